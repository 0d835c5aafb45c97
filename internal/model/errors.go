package model

import "errors"

var (
	ErrNotFound        = errors.New("token or slug not found")
	ErrNetwork         = errors.New("collect api unreachable")
	ErrValidation      = errors.New("invalid answers")
	ErrRejected        = errors.New("request rejected by collect api")
	ErrSessionNotFound = errors.New("session not found")
)
