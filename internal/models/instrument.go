package models

import "time"

// Instrument — торгуемая монета игры с текущей симулированной ценой.
type Instrument struct {
	Symbol     string  `json:"symbol"`
	Price      float64 `json:"price"`
	Volatility float64 `json:"volatility"` // доля цены за тик, напр. 0.02 => ±2%
}

// PriceTick — одно обновление цены, уходит в сессии и в ws-стрим.
type PriceTick struct {
	Symbol string    `json:"symbol"`
	Price  float64   `json:"price"`
	At     time.Time `json:"at"`
}
