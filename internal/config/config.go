package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	AppEnv   string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`
	Port     string `mapstructure:"port"`

	DBHost     string `mapstructure:"db_host"`
	DBPort     string `mapstructure:"db_port"`
	DBUser     string `mapstructure:"db_user"`
	DBPassword string `mapstructure:"db_password"`
	DBName     string `mapstructure:"db_name"`

	JWTSecret      string `mapstructure:"jwt_secret"`
	APIKey         string `mapstructure:"api_key"`
	AllowedOrigins string `mapstructure:"allowed_origins"`

	ResendAPIKey string `mapstructure:"resend_api_key"`
	MailFrom     string `mapstructure:"mail_from"`

	GeminiAPIKey  string        `mapstructure:"gemini_api_key"`
	GeminiModel   string        `mapstructure:"gemini_model"`
	GeminiBaseURL string        `mapstructure:"gemini_base_url"`
	ChatTimeout   time.Duration `mapstructure:"chat_timeout"`

	DiseaseShURL  string        `mapstructure:"disease_sh_url"`
	WorldBankURL  string        `mapstructure:"world_bank_url"`
	OWIDURL       string        `mapstructure:"owid_url"`
	CDCURL        string        `mapstructure:"cdc_url"`
	CDCAppToken   string        `mapstructure:"cdc_app_token"`
	StatsTimeout  time.Duration `mapstructure:"stats_timeout"`
	StatsCacheTTL time.Duration `mapstructure:"stats_cache_ttl"`

	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`

	MongoURI string `mapstructure:"mongo_uri"`
	MongoDB  string `mapstructure:"mongo_db"`
}

var defaults = map[string]any{
	"app_env":         "development",
	"log_level":       "info",
	"port":            "8080",
	"db_host":         "localhost",
	"db_port":         "3306",
	"db_user":         "healthhub",
	"db_password":     "healthhub_pass",
	"db_name":         "healthhub",
	"jwt_secret":      "",
	"api_key":         "",
	"allowed_origins": "*",
	"resend_api_key":  "",
	"mail_from":       "",
	"gemini_api_key":  "",
	"gemini_model":    "gemini-2.5-flash",
	"gemini_base_url": "https://generativelanguage.googleapis.com",
	"chat_timeout":    15 * time.Second,
	"disease_sh_url":  "https://disease.sh",
	"world_bank_url":  "https://api.worldbank.org",
	"owid_url":        "https://ourworldindata.org/grapher/reported-cases-of-measles.csv",
	"cdc_url":         "https://data.cdc.gov/resource/x9gk-5huc.json",
	"cdc_app_token":   "",
	"stats_timeout":   8 * time.Second,
	"stats_cache_ttl": 10 * time.Minute,
	"redis_addr":      "",
	"redis_password":  "",
	"mongo_uri":       "",
	"mongo_db":        "healthhub",
}

// Load reads .env (if any), then an optional healthhub.yaml from path, then
// the process environment. Environment always wins.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("healthhub")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) DSN() string {
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?parseTime=true&charset=utf8mb4"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// EmailEnabled reports whether confirmation and reset codes can be delivered.
func (c *Config) EmailEnabled() bool {
	return c.ResendAPIKey != "" && c.MailFrom != ""
}
