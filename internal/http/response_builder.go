// Package http serves the dompet JSON API.
//
// Responses share one envelope: the payload under "data", and for mutating
// or failed requests the notification the client should show.
package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"dompet/internal/notify"
)

type envelope struct {
	Data         any                  `json:"data,omitempty"`
	Error        string               `json:"error,omitempty"`
	Notification *notify.Notification `json:"notification,omitempty"`
}

// ResponseBuilder provides a fluent API for building JSON responses.
type ResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       envelope
}

// NewResponse creates a new response builder with default 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

func (b *ResponseBuilder) Data(v any) *ResponseBuilder {
	b.body.Data = v
	return b
}

// Error sets the machine-readable error message.
func (b *ResponseBuilder) Error(msg string) *ResponseBuilder {
	b.body.Error = msg
	return b
}

// Notify attaches the notification the client should display.
func (b *ResponseBuilder) Notify(n notify.Notification) *ResponseBuilder {
	b.body.Notification = &n
	return b
}

func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	if err := json.NewEncoder(w).Encode(b.body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// ErrorResponse creates a response carrying only an error message.
func ErrorResponse(statusCode int, message string) *ResponseBuilder {
	return NewResponse().Status(statusCode).Error(message)
}
