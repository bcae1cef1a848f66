package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type RoomsConfig struct {
	RoomDuration  time.Duration `mapstructure:"room_duration"`
	TurnDuration  time.Duration `mapstructure:"turn_duration"`
	MaxUsers      int           `mapstructure:"max_users"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	StaticPath string        `mapstructure:"static_path"`
	Secret     string        `mapstructure:"secret"`
	RateLimit  int           `mapstructure:"rate_limit"`
	RateWindow time.Duration `mapstructure:"rate_window"`
	Rooms      RoomsConfig   `mapstructure:"rooms"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("secret", "pairpad-dev-secret")
	v.SetDefault("rate_limit", 20)
	v.SetDefault("rate_window", "1s")

	// Session limits. Product constants, kept here only so the whole
	// stack reads them from one place.
	v.SetDefault("rooms.room_duration", "30m")
	v.SetDefault("rooms.turn_duration", "5m")
	v.SetDefault("rooms.max_users", 2)
	v.SetDefault("rooms.sweep_interval", "5m")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	fmt.Printf("🧩 Mode: %s | Port: %d | Static: %s\n", cfg.Mode, cfg.Port, cfg.StaticPath)
	return &cfg, nil
}
