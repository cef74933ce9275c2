package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrValidation        = errors.New("validation")         // 422
	ErrNotFound          = errors.New("not found")          // 404
	ErrBusinessRule      = errors.New("business rule")      // 409
	ErrConflict          = errors.New("conflict")           // 409
	ErrInsufficientStock = errors.New("insufficient stock") // 409
	ErrGateway           = errors.New("payment gateway")    // 502
	ErrForbidden         = errors.New("forbidden")          // 403
)

// notFound maps gorm's missing-row error onto ErrNotFound and leaves the rest alone.
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return err
}
