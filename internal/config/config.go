package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/ini.v1"
)

// DefaultBaseURL is used when neither config.ini nor the environment names a
// service.
const DefaultBaseURL = "https://truthguard-backend-production.up.railway.app"

const (
	envBaseURL = "TRUTHGUARD_API_URL"
	envDBPath  = "TRUTHGUARD_DB_PATH"
)

type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

type LogConfig struct {
	Level string
	File  string
}

type HistoryConfig struct {
	Enabled bool
	DBPath  string
}

type SlackConfig struct {
	BotToken  string
	ChannelID string
}

type Config struct {
	API     APIConfig
	Log     LogConfig
	History HistoryConfig
	Slack   SlackConfig
}

// Dir is the per-user directory holding the global config and history.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".truthguard"
	}
	return filepath.Join(home, ".truthguard")
}

// Load reads config.ini from the working directory, falling back to
// ~/.truthguard/config.ini. A missing file leaves every default in place.
func Load() (*Config, error) {
	_ = godotenv.Load()

	configPath := "config.ini"
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		globalPath := filepath.Join(Dir(), "config.ini")
		if _, err := os.Stat(globalPath); err == nil {
			configPath = globalPath
		}
	}

	cfg, err := ini.LooseLoad(configPath)
	if err != nil {
		return nil, err
	}

	apiSec := cfg.Section("api")
	logSec := cfg.Section("log")
	histSec := cfg.Section("history")
	slackSec := cfg.Section("slack")

	c := &Config{
		API: APIConfig{
			BaseURL: apiSec.Key("base_url").MustString(DefaultBaseURL),
			Timeout: apiSec.Key("timeout").MustDuration(2 * time.Minute),
		},
		Log: LogConfig{
			Level: logSec.Key("level").MustString("info"),
			File:  logSec.Key("file").String(),
		},
		History: HistoryConfig{
			Enabled: histSec.Key("enabled").MustBool(true),
			DBPath:  histSec.Key("db_path").MustString(filepath.Join(Dir(), "truthguard.db")),
		},
		Slack: SlackConfig{
			BotToken:  slackSec.Key("bot_token").String(),
			ChannelID: slackSec.Key("channel_id").String(),
		},
	}

	if v := strings.TrimSpace(os.Getenv(envBaseURL)); v != "" {
		c.API.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(envDBPath)); v != "" {
		c.History.DBPath = v
	}
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")

	return c, nil
}
