package models

// TradingSettings — плоский набор игровых параметров. Читается валидацией
// позиций (лимит плеча) и онбордингом (стартовый баланс).
type TradingSettings struct {
	StartBalance   float64 `json:"start_balance" yaml:"start_balance"`
	MaxLeverage    int     `json:"max_leverage" yaml:"max_leverage"`
	WithdrawFeePct float64 `json:"withdraw_fee_pct" yaml:"withdraw_fee_pct"`
	StarsRate      float64 `json:"stars_rate" yaml:"stars_rate"` // 1 звезда = StarsRate долларов
	FirstBonusPct  float64 `json:"first_bonus_pct" yaml:"first_bonus_pct"`
}

func DefaultTradingSettings() TradingSettings {
	return TradingSettings{
		StartBalance:   1000,
		MaxLeverage:    10,
		WithdrawFeePct: 5,
		StarsRate:      0.01,
		FirstBonusPct:  10,
	}
}

// Reset возвращает настройки к дефолтам. Версионирования нет — набор плоский.
func (s *TradingSettings) Reset() {
	*s = DefaultTradingSettings()
}
