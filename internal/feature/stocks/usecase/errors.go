package usecase

import "errors"

var (
	// ErrStockNotFound is returned when no stock exists with the given name.
	ErrStockNotFound = errors.New("stock not found")

	// ErrStockAlreadyExists is returned when creating a stock whose name is already taken.
	ErrStockAlreadyExists = errors.New("stock already exists")

	// ErrInvalidStock is returned when a stock cannot be created from the given values.
	ErrInvalidStock = errors.New("invalid stock")
)
