package config

import (
	"errors"
)

// Sentinel error kinds. ErrLoadConfig covers unreadable sources,
// ErrInvalidConfig covers values rejected by Validate.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)
