package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Settings are the optional tunables read from home/config.yaml and the
// SPEEDOPS_* environment. Flags still win; these are defaults for the daemon.
type Settings struct {
	Port        int    `mapstructure:"port"`
	DBDriver    string `mapstructure:"db_driver"`
	DBURL       string `mapstructure:"db_url"`
	APIKey      string `mapstructure:"api_key"`
	AIModel     string `mapstructure:"ai_model"`
	AIAPIKey    string `mapstructure:"ai_api_key"` // Anthropic key; ANTHROPIC_API_KEY env still wins
	PipelineYML string `mapstructure:"pipeline"` // optional custom stage pipeline file
}

// DefaultPort is the HTTP listen port when neither flag, file, nor env set one.
const DefaultPort = 4519

// LoadSettings reads home/config.yaml if present and merges SPEEDOPS_* env vars.
// A missing config file is not an error.
func LoadSettings(home string) (Settings, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(home)
	v.SetEnvPrefix("SPEEDOPS")
	v.AutomaticEnv()

	v.SetDefault("port", DefaultPort)
	v.SetDefault("db_driver", "sqlite")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return Settings{}, err
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, err
	}
	if s.PipelineYML != "" && !filepath.IsAbs(s.PipelineYML) {
		s.PipelineYML = filepath.Join(home, s.PipelineYML)
	}
	return s, nil
}
