package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/prokazin/telegram-trading/internal/models"
)

const (
	configFilePathENV = "CONFIG_FILE"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	rankingBaseENV    = "RANKING_BASE_URL"
	storePathENV      = "GAME_STORE_PATH"
)

type InstrumentConfig struct {
	Symbol     string  `yaml:"symbol"`
	Price      float64 `yaml:"price"`
	Volatility float64 `yaml:"volatility"`
}

// Config ...
type Config struct {
	Telegram struct {
		Token string `yaml:"token"`
	} `yaml:"telegram"`

	Service struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"` // health + /ws/prices
	} `yaml:"service"`

	// Симулятор цен
	Market struct {
		TickInterval time.Duration      `yaml:"tick_interval"` // 1s
		HistoryCap   int                `yaml:"history_cap"`   // 100 точек
		Instruments  []InstrumentConfig `yaml:"instruments"`
	} `yaml:"market"`

	// Удалённый рейтинг-сервис
	Ranking struct {
		BaseURL string        `yaml:"base_url"`
		TopN    int           `yaml:"top_n"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"ranking"`

	// Путь к локальному файловому стору аккаунтов
	StorePath string `yaml:"store_path"`

	// Игровые параметры (стартовый баланс, плечо, комиссии)
	Trading models.TradingSettings `yaml:"trading"`
}

func NewConfig() (*Config, error) {
	config := Config{}
	config.Market.TickInterval = durationFromEnv("TICK_INTERVAL", "1s")
	config.Market.HistoryCap = intFromEnv("HISTORY_CAP", 100)
	config.Ranking.TopN = intFromEnv("RANKING_TOP_N", 10)
	config.Ranking.Timeout = durationFromEnv("RANKING_TIMEOUT", "5s")
	config.StorePath = getenvDefault(storePathENV, "data/accounts.json")
	// игровые параметры стартуют с дефолтов, yaml переопределяет поверх
	config.Trading.Reset()

	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local.yaml"
	}
	file, err := os.Open("configs/" + configFileName)
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	if err = yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode config file: %w", err)
	}

	if token := os.Getenv(tokenTelegramENV); token != "" {
		config.Telegram.Token = token
	}
	if base := os.Getenv(rankingBaseENV); base != "" {
		config.Ranking.BaseURL = base
	}

	// без инструментов игре нечем торговать — дефолты как в клиенте
	if len(config.Market.Instruments) == 0 {
		config.Market.Instruments = []InstrumentConfig{
			{Symbol: "BTC", Price: 50000, Volatility: 0.02},
			{Symbol: "ETH", Price: 3000, Volatility: 0.03},
			{Symbol: "DOGE", Price: 0.15, Volatility: 0.05},
		}
	}

	return &config, nil
}

func intFromEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationFromEnv(key, def string) time.Duration {
	val := getenvDefault(key, def)
	d, err := time.ParseDuration(val)
	if err != nil {
		d, _ = time.ParseDuration(def)
	}
	return d
}
