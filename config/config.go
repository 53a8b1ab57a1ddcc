package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Wiki   WikiConfig   `mapstructure:"wiki"`
	Game   GameConfig   `mapstructure:"game"`
}

type ServerConfig struct {
	HTTPAddress    string        `mapstructure:"http_address"`
	RPCAddress     string        `mapstructure:"rpc_address"`
	MetricsAddress string        `mapstructure:"metrics_address"`
	SessionTimeout time.Duration `mapstructure:"session_timeout"`
}

type WikiConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Language  string        `mapstructure:"language"`
	UserAgent string        `mapstructure:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type GameConfig struct {
	MinNameLength int `mapstructure:"min_name_length"`
	MaxNameLength int `mapstructure:"max_name_length"`
	PINLength     int `mapstructure:"pin_length"`
}

func LoadConfig(path string) (config *Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("server.http_address", ":8080")
	viper.SetDefault("server.rpc_address", ":8081")
	viper.SetDefault("server.metrics_address", ":9090")
	viper.SetDefault("server.session_timeout", 10*time.Minute)
	viper.SetDefault("wiki.base_url", "https://api.wikimedia.org/core/v1/wikipedia/")
	viper.SetDefault("wiki.language", "en")
	viper.SetDefault("wiki.user_agent", "PageRace/1.0")
	viper.SetDefault("wiki.timeout", 10*time.Second)
	viper.SetDefault("game.min_name_length", 3)
	viper.SetDefault("game.max_name_length", 25)
	viper.SetDefault("game.pin_length", 4)

	viper.AutomaticEnv()

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
