package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/content-moderation/internal/adapters/imaging"
	"github.com/mikey/content-moderation/internal/config"
	"github.com/mikey/content-moderation/internal/core"
	"github.com/mikey/content-moderation/internal/detector"
	"github.com/mikey/content-moderation/internal/factory"
	"github.com/mikey/content-moderation/internal/logging"
	"github.com/mikey/content-moderation/internal/pool"
	"github.com/mikey/content-moderation/internal/utils"
)

var (
	// Detector provider flags
	provider    = flag.String("provider", "openai", "Detector provider (openai, gemini, bedrock)")
	maxTokens   = flag.Int("max-tokens", 512, "Maximum tokens for model response")
	temperature = flag.Float64("temperature", 0.0, "Temperature for model generation")
	topP        = flag.Float64("top-p", 1.0, "Top-p for model generation")

	// OpenAI flags
	openaiAPIKey    = flag.String("openai-api-key", "", "API key for OpenAI")
	openaiModelName = flag.String("openai-model", "gpt-4o-mini", "OpenAI model name")

	// Gemini flags
	geminiAPIKey    = flag.String("gemini-api-key", "", "API key for Google Gemini")
	geminiModelName = flag.String("gemini-model", "gemini-1.5-flash", "Gemini model name")

	// Bedrock flags
	bedrockRegion  = flag.String("bedrock-region", "us-east-1", "AWS region for Bedrock")
	bedrockModelID = flag.String("bedrock-model", "anthropic.claude-3-haiku-20240307-v1:0", "Bedrock model ID")

	// Moderation flags
	sensitivity = flag.String("sensitivity", "normal", "Sensitivity profile (high, normal, low)")
	workers     = flag.Int("workers", 2, "Worker pool size")
	timeout     = flag.Duration("timeout", 2*time.Minute, "Overall processing timeout")

	// Input flags
	inputFile  = flag.String("file", "", "Input image file")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	jsonLog    = flag.Bool("json-log", false, "Output logs in JSON format")
	configFile = flag.String("config", "", "Path to config file (overrides command line flags)")
)

func main() {
	flag.Parse()

	logger, err := logging.InitConsoleLogger(*verbose, *jsonLog)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *inputFile == "" {
		fmt.Println("Usage: moderation-cli -file <image> [flags]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	var cfg *config.Config
	if *configFile != "" {
		cfg, err = config.NewFromFile(*configFile)
		if err != nil {
			logger.Fatal("Failed to load configuration", zap.Error(err))
		}
		logger.Info("Loaded configuration from file", zap.String("file", *configFile))
	} else {
		cfg = createConfigFromFlags()
	}

	data, err := os.ReadFile(*inputFile)
	if err != nil {
		logger.Fatal("Failed to read input file", zap.Error(err))
	}

	textProcessor := utils.NewTextProcessor(logger)
	detectorFactory := factory.NewDetectorFactory(cfg, logger, textProcessor)
	loader := detector.NewLoader(detectorFactory.Constructor(), logger)

	workerPool := pool.New(logger, *workers, *workers*4)
	defer workerPool.Shutdown()

	service := core.NewModerationService(
		imaging.NewDecoder(logger),
		loader,
		workerPool,
		nil,   // no cache for one-shot runs
		logger,
		false, // cache disabled
		0,
	)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	decision := service.ClassifyContent(ctx, data, core.ParseSensitivity(*sensitivity))

	output, err := json.MarshalIndent(decision, "", "  ")
	if err != nil {
		logger.Fatal("Failed to encode decision", zap.Error(err))
	}
	fmt.Println(string(output))

	if decision.Flagged {
		os.Exit(2)
	}
}

// createConfigFromFlags builds a configuration from the command line flags
func createConfigFromFlags() *config.Config {
	v := config.NewEmptyViper()

	v.Set("detector.provider", *provider)

	v.Set("openai.api_key", *openaiAPIKey)
	v.Set("openai.model_name", *openaiModelName)
	v.Set("openai.max_tokens", *maxTokens)
	v.Set("openai.temperature", *temperature)
	v.Set("openai.top_p", *topP)

	v.Set("gemini.api_key", *geminiAPIKey)
	v.Set("gemini.model_name", *geminiModelName)
	v.Set("gemini.max_tokens", *maxTokens)
	v.Set("gemini.temperature", *temperature)
	v.Set("gemini.top_p", *topP)

	v.Set("bedrock.region", *bedrockRegion)
	v.Set("bedrock.model_id", *bedrockModelID)
	v.Set("bedrock.max_tokens", *maxTokens)
	v.Set("bedrock.temperature", *temperature)
	v.Set("bedrock.top_p", *topP)

	return config.NewFromViper(v)
}
