package gemini

import (
	"go.uber.org/zap"

	"github.com/mikey/content-moderation/internal/core"
	"github.com/mikey/content-moderation/internal/utils"
)

// Factory creates new instances of GeminiDetector
type Factory struct {
	apiKey        string
	modelName     string
	maxTokens     int
	temperature   float32
	topP          float32
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewFactory creates a new factory for GeminiDetector instances
func NewFactory(
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *Factory {
	return &Factory{
		apiKey:        apiKey,
		modelName:     modelName,
		maxTokens:     maxTokens,
		temperature:   temperature,
		topP:          topP,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateDetector creates a new GeminiDetector
func (f *Factory) CreateDetector() (core.Detector, error) {
	return NewGeminiDetector(
		f.apiKey,
		f.modelName,
		f.maxTokens,
		f.temperature,
		f.topP,
		f.logger,
		f.textProcessor,
	)
}
