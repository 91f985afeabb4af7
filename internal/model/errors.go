package model

import "errors"

var (
	ErrTokenMissing = errors.New("backend response carried no token")
	ErrUnauthorized = errors.New("unauthorized")

	ErrBackendUnavailable = errors.New("backend unavailable")
)
