package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mathbuddy/mathbuddy-go/internal/fusion"
)

const (
	configPathEnv    = "MATHBUDDY_CONFIG"
	llmAPIKeyEnv     = "LLM_API_KEY"
	redisPasswordEnv = "REDIS_PASSWORD"
)

// Config application configuration
type Config struct {
	Server      ServerConfig     `yaml:"server"`
	Redis       RedisConfig      `yaml:"redis"`
	LLM         LLMConfig        `yaml:"llm"`
	Classifiers ClassifierConfig `yaml:"classifiers"`
	Tutor       TutorConfig      `yaml:"tutor"`
	Fusion      FusionConfig     `yaml:"fusion"`
	Session     SessionConfig    `yaml:"session"`
	Services    ServicesConfig   `yaml:"services"`
	Log         LogConfig        `yaml:"log"`
}

// ServerConfig HTTP server settings
type ServerConfig struct {
	Port           int      `yaml:"port"`
	Name           string   `yaml:"name"`
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

// RedisConfig Redis connection
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// LLMConfig OpenAI-compatible chat completions endpoint
type LLMConfig struct {
	Endpoint    string        `yaml:"endpoint"`
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"apiKey"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"maxTokens"`
	Timeout     time.Duration `yaml:"timeout"`
}

// ClassifierConfig external emotion classifier services
type ClassifierConfig struct {
	TextSentimentURL string        `yaml:"textSentimentUrl"`
	FaceEmotionURL   string        `yaml:"faceEmotionUrl"`
	Timeout          time.Duration `yaml:"timeout"`
}

// TutorConfig tutor variant selection
type TutorConfig struct {
	Type           string `yaml:"type"` // llm, prompt, echo, mock
	UseDescription bool   `yaml:"useDescription"`
	UseQA          bool   `yaml:"useQa"`
}

// FusionConfig face aggregation parameters
type FusionConfig struct {
	HalfLife    time.Duration `yaml:"halfLife"`
	Persistence time.Duration `yaml:"persistence"`
}

// Aggregator builds the face aggregator; unset values keep the defaults.
func (f FusionConfig) Aggregator() fusion.Aggregator {
	a := fusion.DefaultAggregator()
	if f.HalfLife > 0 {
		a.HalfLife = f.HalfLife
	}
	if f.Persistence > 0 {
		a.Persistence = f.Persistence
	}
	return a
}

// SessionConfig gateway session storage
type SessionConfig struct {
	TTL               time.Duration `yaml:"ttl"`
	HeartbeatInterval time.Duration `yaml:"heartbeatInterval"`
	HeartbeatTimeout  time.Duration `yaml:"heartbeatTimeout"`
	FrameRate         float64       `yaml:"frameRate"` // webcam frames per second per feed, 0 = unlimited
	FrameBurst        int           `yaml:"frameBurst"`
}

// ServicesConfig downstream service addresses
type ServicesConfig struct {
	TutorBackend string        `yaml:"tutorBackend"`
	Timeout      time.Duration `yaml:"timeout"`
}

// LogConfig logging
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// LoadConfig reads the YAML file at path, or at $MATHBUDDY_CONFIG when path is
// empty, on top of the defaults, then applies environment overrides.
func LoadConfig(path string) (*Config, error) {
	if env := os.Getenv(configPathEnv); env != "" && path == "" {
		path = env
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// ResolvePath returns $MATHBUDDY_CONFIG when set, otherwise fallback.
func ResolvePath(fallback string) string {
	if env := os.Getenv(configPathEnv); env != "" {
		return env
	}
	return fallback
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(llmAPIKeyEnv); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv(redisPasswordEnv); v != "" {
		c.Redis.Password = v
	}
}

// Default returns the configuration used when no file overrides a value.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: 5050, Name: "mathbuddy"},
		Redis:  RedisConfig{Host: "127.0.0.1", Port: 6379},
		LLM: LLMConfig{
			Endpoint:  "https://generativelanguage.googleapis.com/v1beta/openai/chat/completions",
			Model:     "learnlm-2.0-flash-experimental",
			MaxTokens: 512,
			Timeout:   60 * time.Second,
		},
		Classifiers: ClassifierConfig{Timeout: 10 * time.Second},
		Tutor:       TutorConfig{Type: "llm"},
		Fusion: FusionConfig{
			HalfLife:    fusion.DefaultHalfLife,
			Persistence: fusion.DefaultPersistence,
		},
		Session: SessionConfig{
			TTL:               24 * time.Hour,
			HeartbeatInterval: 30 * time.Second,
			HeartbeatTimeout:  60 * time.Second,
			FrameRate:         4,
			FrameBurst:        4,
		},
		Services: ServicesConfig{TutorBackend: "http://127.0.0.1:5050", Timeout: 90 * time.Second},
		Log:      LogConfig{Level: "info"},
	}
}
