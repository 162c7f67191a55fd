package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound   = errors.New("resource not found")
	ErrConflict   = errors.New("resource already exists")
	ErrBadRequest = errors.New("bad request")

	// Storage errors
	ErrStorage = errors.New("vault storage unavailable")

	// Link registry errors
	ErrInvalidURL      = errors.New("invalid Google Drive URL format")
	ErrInvalidCategory = errors.New("invalid category")
	ErrDuplicateLink   = errors.New("this file is already in the vault")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrVaultLocked     = errors.New("vault is not unlocked")
)
