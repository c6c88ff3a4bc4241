package usecase

import "errors"

var (
	// ErrNoSymbols is returned when Sync is called without any symbol.
	ErrNoSymbols = errors.New("no symbols to sync")
	// ErrInvalidConfig is returned when the sync configuration cannot drive a run.
	ErrInvalidConfig = errors.New("invalid sync config")
)
