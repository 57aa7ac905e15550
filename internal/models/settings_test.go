package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTradingSettingsReset(t *testing.T) {
	t.Parallel()

	s := TradingSettings{
		StartBalance:   5,
		MaxLeverage:    100,
		WithdrawFeePct: 50,
		StarsRate:      1,
		FirstBonusPct:  99,
	}
	s.Reset()
	assert.Equal(t, DefaultTradingSettings(), s)
}
