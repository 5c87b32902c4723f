package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds server settings. Values come from an optional YAML file
// (CONFIG_FILE), with environment variables taking precedence.
type Config struct {
	Port         string `yaml:"port"`
	RedisAddr    string `yaml:"redisAddr"`
	JWTSecret    string `yaml:"jwtSecret"`
	SandboxImage string `yaml:"sandboxImage"`
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:         "8080",
		SandboxImage: "alpine:3.19",
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	cfg.Port = getEnvOrDefault("PORT", cfg.Port)
	cfg.RedisAddr = getEnvOrDefault("REDIS_ADDR", cfg.RedisAddr)
	cfg.JWTSecret = getEnvOrDefault("JWT_SECRET", cfg.JWTSecret)
	cfg.SandboxImage = getEnvOrDefault("SANDBOX_IMAGE", cfg.SandboxImage)
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
