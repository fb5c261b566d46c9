package gemini

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/mikey/content-moderation/internal/core"
	"github.com/mikey/content-moderation/internal/utils"
)

// GeminiDetector is an implementation of the Detector capability using
// Google Gemini's vision models.
type GeminiDetector struct {
	client        *genai.Client
	model         *genai.GenerativeModel
	modelName     string
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

const regionsPrompt = `You are an image safety classifier. Examine the image and report every region you can identify.
Respond with a JSON object containing:
- regions: array of objects, one per region, each with:
  - label: string, one of EXPOSED_ANUS, EXPOSED_BUTTOCKS, EXPOSED_BREAST_F, EXPOSED_GENITALIA_F, EXPOSED_GENITALIA_M, COVERED_BREAST_F, COVERED_GENITALIA_F, COVERED_GENITALIA_M, COVERED_BUTTOCKS, FACE_FEMALE, FACE_MALE
  - confidence: number between 0 and 1

Report every region you detect, not only explicit ones. Respond only with the JSON object and nothing else.`

const agePrompt = `You are an age verification system. Look at the image and estimate the age of the youngest clearly visible person.
Respond with a JSON object containing:
- age: number (estimated age in years), or null if no person or face is clearly visible

Respond only with the JSON object and nothing else.`

// regionsResponse represents the structured region report from the model
type regionsResponse struct {
	Regions []struct {
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
	} `json:"regions"`
}

// ageResponse represents the structured age estimate from the model
type ageResponse struct {
	Age *float64 `json:"age"`
}

// NewGeminiDetector creates a new Gemini-backed detector
func NewGeminiDetector(
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) (*GeminiDetector, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetTopP(topP)
	model.SetMaxOutputTokens(int32(maxTokens))

	return &GeminiDetector{
		client:        client,
		model:         model,
		modelName:     modelName,
		logger:        logger,
		textProcessor: textProcessor,
	}, nil
}

// Close closes the Gemini client
func (d *GeminiDetector) Close() error {
	if d.client != nil {
		return d.client.Close()
	}
	return nil
}

// DetectRegions classifies regions of the image.
func (d *GeminiDetector) DetectRegions(ctx context.Context, img *core.SourceImage) ([]core.Detection, error) {
	responseText, err := d.generate(ctx, regionsPrompt, img)
	if err != nil {
		return nil, err
	}

	var parsed regionsResponse
	if err := decodeModelJSON(responseText, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse region response: %w", err)
	}

	detections := make([]core.Detection, 0, len(parsed.Regions))
	for _, region := range parsed.Regions {
		detections = append(detections, core.Detection{
			Label:      d.textProcessor.NormalizeLabel(region.Label),
			Confidence: clamp01(region.Confidence),
		})
	}
	return detections, nil
}

// EstimateAge estimates the age of the youngest clearly visible person.
func (d *GeminiDetector) EstimateAge(ctx context.Context, img *core.SourceImage) (*core.AgeEstimate, error) {
	responseText, err := d.generate(ctx, agePrompt, img)
	if err != nil {
		return nil, err
	}

	var parsed ageResponse
	if err := decodeModelJSON(responseText, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse age response: %w", err)
	}
	if parsed.Age == nil {
		return nil, nil
	}
	return &core.AgeEstimate{Years: *parsed.Age}, nil
}

// generate sends one prompt plus the image and returns the raw text.
func (d *GeminiDetector) generate(ctx context.Context, prompt string, img *core.SourceImage) (string, error) {
	resp, err := d.model.GenerateContent(ctx,
		genai.ImageData("jpeg", img.JPEG),
		genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content with Gemini: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from Gemini")
	}

	responseText := fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])
	return d.textProcessor.SanitizeUTF8(responseText), nil
}

// decodeModelJSON parses the model's JSON reply, salvaging the first
// JSON object if the model wrapped it in prose.
func decodeModelJSON(responseText string, out any) error {
	if err := json.Unmarshal([]byte(responseText), out); err == nil {
		return nil
	}

	jsonStart := -1
	jsonEnd := -1
	for i := 0; i < len(responseText); i++ {
		if responseText[i] == '{' {
			jsonStart = i
			break
		}
	}
	for i := len(responseText) - 1; i >= 0; i-- {
		if responseText[i] == '}' {
			jsonEnd = i + 1
			break
		}
	}
	if jsonStart < 0 || jsonEnd <= jsonStart {
		return fmt.Errorf("no JSON object in model response")
	}
	return json.Unmarshal([]byte(responseText[jsonStart:jsonEnd]), out)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
