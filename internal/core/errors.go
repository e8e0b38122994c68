package core

import "errors"

var (
	ErrLLMUnavailable   = errors.New("language model is not configured")
	ErrLocationNotFound = errors.New("location not found")
	ErrUnsafeSQL        = errors.New("generated SQL is not a safe read-only price query")
	ErrPolicyIndexEmpty = errors.New("policy index is empty")
	ErrWeatherAPI       = errors.New("weather API request failed")
)
