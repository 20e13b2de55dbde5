package domain

import "errors"

var (
	// ErrInvalidInput rejects submissions whose content is blank after trimming.
	ErrInvalidInput = errors.New("content is empty after normalization")

	// ErrUnsupportedCategory rejects categories outside {note, progress}.
	ErrUnsupportedCategory = errors.New("unsupported entry category")
)
