package core

// Sensitivity selects how strict the decision pipeline is.
type Sensitivity string

const (
	// SensitivityHigh is used for profile photos and stories.
	SensitivityHigh Sensitivity = "high"
	// SensitivityNormal is the default, used for video calls.
	SensitivityNormal Sensitivity = "normal"
	// SensitivityLow is the most tolerant profile.
	SensitivityLow Sensitivity = "low"
)

// Thresholds are the decision cut-offs for one sensitivity profile.
type Thresholds struct {
	Nudity float64
	Age    float64
}

// The mapping is fixed; there is no runtime override beyond picking a
// named profile.
var profileThresholds = map[Sensitivity]Thresholds{
	SensitivityHigh:   {Nudity: 0.45, Age: 20},
	SensitivityNormal: {Nudity: 0.60, Age: 18},
	SensitivityLow:    {Nudity: 0.75, Age: 18},
}

// Thresholds returns the cut-offs for the profile. Unknown profiles
// resolve to normal.
func (s Sensitivity) Thresholds() Thresholds {
	if t, ok := profileThresholds[s]; ok {
		return t
	}
	return profileThresholds[SensitivityNormal]
}

// ParseSensitivity maps a request string onto a known profile,
// defaulting to normal.
func ParseSensitivity(s string) Sensitivity {
	switch Sensitivity(s) {
	case SensitivityHigh, SensitivityNormal, SensitivityLow:
		return Sensitivity(s)
	default:
		return SensitivityNormal
	}
}

// restrictedLabels are the region labels that count towards a not-safe
// verdict. Other labels still contribute to the reported confidence.
var restrictedLabels = map[string]struct{}{
	"EXPOSED_ANUS":        {},
	"EXPOSED_BUTTOCKS":    {},
	"EXPOSED_BREAST_F":    {},
	"EXPOSED_GENITALIA_F": {},
	"EXPOSED_GENITALIA_M": {},
}

// IsRestrictedLabel reports whether a region label is in the fixed
// restricted set.
func IsRestrictedLabel(label string) bool {
	_, ok := restrictedLabels[label]
	return ok
}
