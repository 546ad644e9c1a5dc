package config

import (
	"log"

	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Poll        PollConfig        `mapstructure:"poll"`
	Credentials CredentialsConfig `mapstructure:"credentials"`
	Stub        StubConfig        `mapstructure:"stub"`
}

type ServerConfig struct {
	BaseURL string `mapstructure:"baseURL"` // e.g. http://localhost:8000
	Mode    string `mapstructure:"mode"`    // debug, release
}

type PollConfig struct {
	IntervalMS int `mapstructure:"intervalMS"` // live game refresh cadence
}

type CredentialsConfig struct {
	Path string `mapstructure:"path"` // persisted username+token file
}

type StubConfig struct {
	Port string `mapstructure:"port"`
	DSN  string `mapstructure:"dsn"` // sqlite; empty means in-memory
	JWT  JWTConfig
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Expire int    `mapstructure:"expire"` // hours
}

var GlobalConfig *Config

func LoadConfig(path string) {
	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	viper.SetDefault("server.baseURL", "http://localhost:8000")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("poll.intervalMS", 2000)
	viper.SetDefault("credentials.path", ".bizarre-credentials.json")
	viper.SetDefault("stub.port", "8000")
	viper.SetDefault("stub.dsn", "file::memory:?cache=shared")
	viper.SetDefault("stub.jwt.secret", "dev-only-secret")
	viper.SetDefault("stub.jwt.expire", 24)

	viper.SetEnvPrefix("BIZARRE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Config file is optional for the client; defaults and env cover it.
		log.Printf("config file not loaded (%v), using defaults", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}
	GlobalConfig = &cfg
}
