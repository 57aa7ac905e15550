package service

import "github.com/pkg/errors"

// Ошибки валидации открытия и закрытия позиций. Сетевые ошибки рейтинга
// сюда не попадают — их глотает реконсилер; ошибки записи стора
// оборачиваются и отдаются наверх как есть.
var (
	ErrAmountInvalid       = errors.New("amount must be positive")
	ErrAmountExceedsMargin = errors.New("amount exceeds balance with leverage")
	ErrLeverageInvalid     = errors.New("leverage out of allowed range")
	ErrUnknownInstrument   = errors.New("unknown instrument")
	ErrPositionNotFound    = errors.New("position not found")
)
