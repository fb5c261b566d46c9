package factory

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/content-moderation/internal/adapters/bedrock"
	"github.com/mikey/content-moderation/internal/adapters/gemini"
	"github.com/mikey/content-moderation/internal/adapters/openai"
	"github.com/mikey/content-moderation/internal/config"
	"github.com/mikey/content-moderation/internal/core"
	"github.com/mikey/content-moderation/internal/detector"
	"github.com/mikey/content-moderation/internal/utils"
)

// DetectorFactory creates detector capabilities
type DetectorFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewDetectorFactory creates a new detector factory
func NewDetectorFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *DetectorFactory {
	return &DetectorFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateDetector creates a new detector based on the configuration
func (f *DetectorFactory) CreateDetector() (core.Detector, error) {
	detectorConfig := f.cfg.GetDetector()

	switch detectorConfig.Provider {
	case "openai":
		c := f.cfg.GetOpenAI()
		factory := openai.NewFactory(c.APIKey, c.ModelName, c.MaxTokens, c.Temperature, c.TopP, f.logger, f.textProcessor)
		return factory.CreateDetector()
	case "gemini":
		c := f.cfg.GetGemini()
		factory := gemini.NewFactory(c.APIKey, c.ModelName, c.MaxTokens, c.Temperature, c.TopP, f.logger, f.textProcessor)
		return factory.CreateDetector()
	case "bedrock":
		c := f.cfg.GetBedrock()
		factory := bedrock.NewFactory(c.Region, c.ModelID, c.MaxTokens, c.Temperature, c.TopP, f.logger, f.textProcessor)
		return factory.CreateDetector()
	default:
		return nil, fmt.Errorf("unsupported detector provider: %s", detectorConfig.Provider)
	}
}

// Constructor adapts the factory into the loader's one-shot
// construction hook.
func (f *DetectorFactory) Constructor() detector.Constructor {
	return func(_ context.Context) (core.Detector, error) {
		return f.CreateDetector()
	}
}
