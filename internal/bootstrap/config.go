package bootstrap

import (
	"github.com/spf13/viper"
)

type Config struct {
	ServerPort        string `mapstructure:"SERVER_PORT"`
	RedisUrl          string `mapstructure:"REDIS_URL"`
	IsLocalCors       bool   `mapstructure:"LOCAL_CORS"`
	GridSize          int    `mapstructure:"GRID_SIZE"`
	AsyncGameLimit    int    `mapstructure:"ASYNC_GAME_LIMIT"`
	RankedTurnHours   int    `mapstructure:"RANKED_TURN_HOURS"`
	UnrankedTurnHours int    `mapstructure:"UNRANKED_TURN_HOURS"`
	StaleGameHours    int    `mapstructure:"STALE_GAME_HOURS"`
	LeaderboardLimit  int    `mapstructure:"LEADERBOARD_LIMIT"`
}

func Setup(cfgPath string) (*Config, error) {
	viper.SetConfigFile(cfgPath)

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("GRID_SIZE", 10)
	viper.SetDefault("ASYNC_GAME_LIMIT", 5)
	viper.SetDefault("RANKED_TURN_HOURS", 24)
	viper.SetDefault("UNRANKED_TURN_HOURS", 168)
	viper.SetDefault("STALE_GAME_HOURS", 24)
	viper.SetDefault("LEADERBOARD_LIMIT", 100)

	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	var cfg Config

	err = viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}
