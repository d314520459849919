package constants

import (
	"github.com/go-playground/validator/v10"
)

type contextKey int

const (
	TxKey contextKey = iota
	PoolKey
)

// Validate is the shared validator instance used by DTOs across modules.
var Validate = validator.New()
