package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

type Config struct {
	Mode   string `mapstructure:"mode"`
	Dotenv string `mapstructure:"dotenv"`
	Server struct {
		HTTPPort        string        `mapstructure:"HTTPPort"`
		Timeout         time.Duration `mapstructure:"HTTPTimeout"`
		ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout"`
		AllowedOrigins  []string      `mapstructure:"allowedOrigins"`
	} `mapstructure:"server"`
	Repositories struct {
		Postgres struct {
			Host     string `mapstructure:"host"`
			Password string `mapstructure:"password"`
			Port     string `mapstructure:"port"`
			Username string `mapstructure:"username"`
			DB       string `mapstructure:"db"`
			SSLMode  string `mapstructure:"sslMode"`
			MaxConns int32  `mapstructure:"maxConns"`
		} `mapstructure:"postgres"`
		Redis struct {
			Addr     string `mapstructure:"addr"`
			Password string `mapstructure:"password"`
			DB       int    `mapstructure:"db"`
		} `mapstructure:"redis"`
	} `mapstructure:"repositories"`
	Templates     TemplatesConfig     `mapstructure:"templates"`
	AI            AIConfig            `mapstructure:"ai"`
	RateLimit     RateLimitConfig     `mapstructure:"rateLimit"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// TemplatesConfig selects where itinerary templates live. Store is one of
// "postgres", "redis" or "memory".
type TemplatesConfig struct {
	Store           string        `mapstructure:"store"`
	CacheTTL        time.Duration `mapstructure:"cacheTTL"`
	CleanupInterval time.Duration `mapstructure:"cleanupInterval"`
	WriteTimeout    time.Duration `mapstructure:"writeTimeout"`
}

type AIConfig struct {
	Provider    string        `mapstructure:"provider"`
	Model       string        `mapstructure:"model"`
	Temperature float32       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
	RealDayCap  int           `mapstructure:"realDayCap"`
	MaxDays     int           `mapstructure:"maxDays"`
	Breaker     BreakerConfig `mapstructure:"breaker"`
	GeminiKey   string        `mapstructure:"-"`
	OpenAIKey   string        `mapstructure:"-"`
}

type BreakerConfig struct {
	MaxFailures uint32        `mapstructure:"maxFailures"`
	OpenTimeout time.Duration `mapstructure:"openTimeout"`
}

type RateLimitConfig struct {
	GenerateRequests int           `mapstructure:"generateRequests"`
	Window           time.Duration `mapstructure:"window"`
}

type ObservabilityConfig struct {
	ServiceName string `mapstructure:"serviceName"`
	MetricsPort string `mapstructure:"metricsPort"`
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	// TEMPLATES_STORE overrides templates.store, and so on.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %s", err)
		}
	}

	if dotenv := v.GetString("dotenv"); dotenv != "" {
		if err = godotenv.Load(dotenv); err != nil {
			fmt.Printf("Warning: could not load %s: %s\n", dotenv, err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %s", err)
	}

	config.AI.GeminiKey = os.Getenv("GOOGLE_GEMINI_API_KEY")
	if config.AI.GeminiKey == "" {
		config.AI.GeminiKey = os.Getenv("GEMINI_API_KEY")
	}
	config.AI.OpenAIKey = os.Getenv("OPENAI_API_KEY")

	applyDefaults(&config)
	fmt.Println("Successfully loaded app configs...")
	return config, nil
}

func applyDefaults(c *Config) {
	if c.Server.HTTPPort == "" {
		c.Server.HTTPPort = "8000"
	}
	if c.Server.Timeout == 0 {
		c.Server.Timeout = 60 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Templates.Store == "" {
		c.Templates.Store = "postgres"
	}
	if c.Templates.WriteTimeout == 0 {
		c.Templates.WriteTimeout = 10 * time.Second
	}
	if c.AI.Provider == "" {
		c.AI.Provider = "gemini"
	}
	if c.AI.Temperature == 0 {
		c.AI.Temperature = 0.7
	}
	if c.AI.Timeout == 0 {
		c.AI.Timeout = 30 * time.Second
	}
	if c.AI.RealDayCap <= 0 {
		c.AI.RealDayCap = 3
	}
	if c.AI.MaxDays <= 0 {
		c.AI.MaxDays = 60
	}
	if c.AI.Breaker.MaxFailures == 0 {
		c.AI.Breaker.MaxFailures = 5
	}
	if c.AI.Breaker.OpenTimeout == 0 {
		c.AI.Breaker.OpenTimeout = 30 * time.Second
	}
	if c.RateLimit.GenerateRequests <= 0 {
		c.RateLimit.GenerateRequests = 20
	}
	if c.RateLimit.Window == 0 {
		c.RateLimit.Window = time.Minute
	}
	if c.Observability.ServiceName == "" {
		c.Observability.ServiceName = "travel-agent-crm"
	}
	if c.Observability.MetricsPort == "" {
		c.Observability.MetricsPort = "9090"
	}
}
