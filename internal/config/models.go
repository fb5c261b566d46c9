package config

// DetectorConfig represents the configuration for the detector provider
type DetectorConfig struct {
	Provider string
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// CacheConfig represents the cache configuration
type CacheConfig struct {
	Enabled       bool
	KeyPrefix     string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	MaxEntries    int
}

// ServerConfig represents the HTTP server configuration
type ServerConfig struct {
	ListenAddress string
	MaxBodyBytes  int64
}

// ModerationConfig represents the moderation pipeline configuration
type ModerationConfig struct {
	Workers            int
	QueueSize          int
	DefaultSensitivity string
}

// GetDetector returns the detector provider configuration
func (c *Config) GetDetector() DetectorConfig {
	return DetectorConfig{
		Provider: c.GetString("detector.provider"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
	}
}

// GetCache returns the cache configuration
func (c *Config) GetCache() CacheConfig {
	return CacheConfig{
		Enabled:       c.GetBool("cache.enabled"),
		KeyPrefix:     c.GetString("cache.key_prefix"),
		RedisAddr:     c.GetString("cache.redis_addr"),
		RedisPassword: c.GetString("cache.redis_password"),
		RedisDB:       c.GetInt("cache.redis_db"),
		MaxEntries:    c.GetInt("cache.max_entries"),
	}
}

// GetServer returns the HTTP server configuration
func (c *Config) GetServer() ServerConfig {
	return ServerConfig{
		ListenAddress: c.GetString("server.listen_address"),
		MaxBodyBytes:  c.GetInt64("server.max_body_bytes"),
	}
}

// GetModeration returns the moderation pipeline configuration
func (c *Config) GetModeration() ModerationConfig {
	return ModerationConfig{
		Workers:            c.GetInt("moderation.workers"),
		QueueSize:          c.GetInt("moderation.queue_size"),
		DefaultSensitivity: c.GetString("moderation.default_sensitivity"),
	}
}
