package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

type MQConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type JWTConfig struct {
	Secret string `yaml:"secret"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

// InferenceConfig 模型调用配置
type InferenceConfig struct {
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxToolRounds  int    `yaml:"max_tool_rounds"`
}

// Timeout returns the bounded inference timeout, defaulting to 60s.
func (c InferenceConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// FlowConfig carries deployment-specific flow behavior. The fallback ids
// replace what used to be hard-coded employee ids in the flow layer.
type FlowConfig struct {
	FallbackAdminID   string `yaml:"fallback_admin_id"`
	FallbackPartnerID string `yaml:"fallback_partner_id"`
}

// SchedulerConfig 周期任务配置
type SchedulerConfig struct {
	IntervalMinutes int `yaml:"interval_minutes"`
}

func (c SchedulerConfig) Interval() time.Duration {
	if c.IntervalMinutes <= 0 {
		return 60 * time.Minute
	}
	return time.Duration(c.IntervalMinutes) * time.Minute
}

type Config struct {
	DB        DBConfig        `yaml:"db"`
	MQ        MQConfig        `yaml:"mq"`
	Redis     RedisConfig     `yaml:"redis"`
	JWT       JWTConfig       `yaml:"jwt"`
	Server    ServerConfig    `yaml:"server"`
	Inference InferenceConfig `yaml:"inference"`
	Flow      FlowConfig      `yaml:"flow"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

func Load() *Config {
	f, err := os.Open("config.yaml")
	if err != nil {
		log.Fatalf("failed to open config.yaml: %v", err)
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		log.Fatalf("failed to decode config.yaml: %v", err)
	}

	// 环境变量覆盖（生产环境使用）
	overrideFromEnv(&cfg)

	return &cfg
}

func overrideFromEnv(cfg *Config) {
	// DB配置
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.DB.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.DB.Port = p
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		cfg.DB.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		cfg.DB.Password = password
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		cfg.DB.Name = name
	}

	// MQ配置
	if url := os.Getenv("MQ_URL"); url != "" {
		cfg.MQ.URL = url
	}

	// Redis配置
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Redis.Password = password
	}

	// JWT配置
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.JWT.Secret = secret
	}

	// Server配置
	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Server.Port = port
	}

	// 模型配置
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.Inference.APIKey = key
	}
	if model := os.Getenv("INFERENCE_MODEL"); model != "" {
		cfg.Inference.Model = model
	}

	// Flow 配置
	if id := os.Getenv("FLOW_FALLBACK_ADMIN_ID"); id != "" {
		cfg.Flow.FallbackAdminID = id
	}
	if id := os.Getenv("FLOW_FALLBACK_PARTNER_ID"); id != "" {
		cfg.Flow.FallbackPartnerID = id
	}
}
