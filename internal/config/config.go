package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	APIBaseURL   string `mapstructure:"API_BASE_URL"`
	SessionToken string `mapstructure:"SESSION_TOKEN"`

	// Explicit actor identity, overrides whatever the session token carries.
	ActorID   string `mapstructure:"ACTOR_ID"`
	ActorName string `mapstructure:"ACTOR_NAME"`

	PollIntervalMS int    `mapstructure:"POLL_INTERVAL_MS"`
	HistoryDBPath  string `mapstructure:"HISTORY_DB_PATH"`
	DownloadDir    string `mapstructure:"DOWNLOAD_DIR"`
	LogFile        string `mapstructure:"LOG_FILE"`
}

var AppConfig *Config

func LoadConfig() {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	viper.SetDefault("API_BASE_URL", "https://api.techsterker.com")
	viper.SetDefault("POLL_INTERVAL_MS", 2000)
	viper.SetDefault("DOWNLOAD_DIR", ".")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Unable to decode config: %v", err)
	}
}

// PollInterval returns the message poll period as a duration.
func (c *Config) PollInterval() time.Duration {
	if c.PollIntervalMS <= 0 {
		return 2 * time.Second
	}
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}
