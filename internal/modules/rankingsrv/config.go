package rankingsrv

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config рейтинг-сервиса. Файл configs/ranking.yaml, поверх — env
// с префиксом RANKING_ (RANKING_ADDR, RANKING_ADMIN_KEY и т.д.).
type Config struct {
	Addr     string `mapstructure:"addr"`
	DB       string `mapstructure:"db_dsn"`
	AdminKey string `mapstructure:"admin_key"`

	Jaeger struct {
		Host string `mapstructure:"host"`
		Port int    `mapstructure:"port"`
	} `mapstructure:"jaeger"`
}

func NewConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("ranking")
	v.SetConfigType("yaml")
	v.AddConfigPath("configs")
	v.AddConfigPath(".")

	v.SetDefault("addr", ":3000")
	v.SetDefault("jaeger.host", "127.0.0.1")
	v.SetDefault("jaeger.port", 6831)

	v.SetEnvPrefix("RANKING")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// конфиг-файл опционален, env достаточно
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read ranking config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal ranking config: %w", err)
	}

	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		cfg.DB = dsn
	}
	if key := os.Getenv("ADMIN_KEY"); key != "" {
		cfg.AdminKey = key
	}
	return &cfg, nil
}
