package config

import (
	"errors"
	"os"
	"strings"
)

type Config struct {
	Port         string
	OpenAIAPIKey string
	OpenAIModel  string
	UploadDir    string
	LogLevel     string
	LogFormat    string
	Environment  string
}

func Load() *Config {
	return &Config{
		Port:         getEnvOrDefault("PORT", "8080"),
		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:  getEnvOrDefault("OPENAI_MODEL", "gpt-4o"),
		UploadDir:    getEnvOrDefault("UPLOAD_DIR", "uploads"),
		LogLevel:     getEnvOrDefault("LOG_LEVEL", "INFO"),
		LogFormat:    getEnvOrDefault("LOG_FORMAT", "text"),
		Environment:  getEnvOrDefault("ENVIRONMENT", "development"),
	}
}

func (c *Config) Validate() error {
	var problems []string

	if c.OpenAIAPIKey == "" {
		problems = append(problems, "OPENAI_API_KEY is required")
	}
	if c.OpenAIModel == "" {
		problems = append(problems, "OPENAI_MODEL must not be empty")
	}
	if c.UploadDir == "" {
		problems = append(problems, "UPLOAD_DIR must not be empty")
	}

	validLogLevels := []string{"DEBUG", "INFO", "WARN", "ERROR"}
	if !contains(validLogLevels, strings.ToUpper(c.LogLevel)) {
		problems = append(problems, "LOG_LEVEL must be one of: DEBUG, INFO, WARN, ERROR")
	}

	validLogFormats := []string{"text", "json"}
	if !contains(validLogFormats, strings.ToLower(c.LogFormat)) {
		problems = append(problems, "LOG_FORMAT must be one of: text, json")
	}

	if len(problems) > 0 {
		return errors.New(problems[0])
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return strings.ToLower(c.Environment) == "production"
}

func (c *Config) IsDevelopment() bool {
	return strings.ToLower(c.Environment) == "development"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
