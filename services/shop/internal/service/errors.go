package service

import "errors"

var (
	ErrNotFound     = errors.New("not found")               // 404
	ErrNotOwned     = errors.New("resource not owned")      // 400
	ErrNotSupported = errors.New("operation not supported") // 400
	ErrValidation   = errors.New("validation")              // 400
	ErrPublish      = errors.New("publish failed")          // 502
)
