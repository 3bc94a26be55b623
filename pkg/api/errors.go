package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
)

type Category string

const (
	CategoryUnauthorized    Category = "unauthorized"
	CategoryForbidden       Category = "forbidden"
	CategoryNotFound        Category = "not_found"
	CategoryRequestTimeout  Category = "request_timeout"
	CategoryPayloadTooLarge Category = "payload_too_large"
	CategoryRateLimited     Category = "rate_limited"
	CategoryServerError     Category = "server_error"
	CategoryUnavailable     Category = "unavailable"
	CategoryGeneric         Category = "generic"
)

// Categorize maps an HTTP status code to the category shown to the user.
func Categorize(status int) Category {
	switch status {
	case http.StatusUnauthorized:
		return CategoryUnauthorized
	case http.StatusForbidden:
		return CategoryForbidden
	case http.StatusNotFound:
		return CategoryNotFound
	case http.StatusRequestTimeout:
		return CategoryRequestTimeout
	case http.StatusRequestEntityTooLarge:
		return CategoryPayloadTooLarge
	case http.StatusTooManyRequests:
		return CategoryRateLimited
	case http.StatusInternalServerError:
		return CategoryServerError
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return CategoryUnavailable
	}
	return CategoryGeneric
}

// StatusError is returned when the server answered with a non-2xx status.
type StatusError struct {
	Method   string
	Path     string
	Status   int
	Category Category
	Message  string
	Detail   string
}

func (e *StatusError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Detail != "" && e.Detail != msg {
		msg = msg + ": " + e.Detail
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, msg)
}

func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	}
	return false
}

// NetworkError is returned when no response was received at all.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
