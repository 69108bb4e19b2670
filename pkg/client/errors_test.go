package client

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestAPIError_Class(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		want       ErrorClass
	}{
		{"bad request", http.StatusBadRequest, ErrorClassClient},
		{"unauthorized", http.StatusUnauthorized, ErrorClassClient},
		{"not found", http.StatusNotFound, ErrorClassClient},
		{"too many requests", http.StatusTooManyRequests, ErrorClassRateLimit},
		{"internal server error", http.StatusInternalServerError, ErrorClassServer},
		{"bad gateway", http.StatusBadGateway, ErrorClassServer},
		{"service unavailable", http.StatusServiceUnavailable, ErrorClassServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := &APIError{Endpoint: "dm_conversations", StatusCode: tt.statusCode}
			if got := apiErr.Class(); got != tt.want {
				t.Errorf("Class() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAPIError_Error(t *testing.T) {
	apiErr := &APIError{
		Endpoint:   "users",
		StatusCode: http.StatusNotFound,
		Body:       `{"title":"Not Found"}`,
	}

	msg := apiErr.Error()
	for _, want := range []string{"users", "404"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}
}

func TestAsAPIError(t *testing.T) {
	apiErr := &APIError{Endpoint: "dm_events", StatusCode: http.StatusTooManyRequests}

	t.Run("direct", func(t *testing.T) {
		got, ok := AsAPIError(apiErr)
		if !ok || got != apiErr {
			t.Errorf("AsAPIError() = (%v, %v)", got, ok)
		}
	})

	t.Run("wrapped", func(t *testing.T) {
		wrapped := fmt.Errorf("fetch page: %w", apiErr)
		got, ok := AsAPIError(wrapped)
		if !ok || got != apiErr {
			t.Errorf("AsAPIError() = (%v, %v)", got, ok)
		}
	})

	t.Run("unrelated error", func(t *testing.T) {
		if _, ok := AsAPIError(errors.New("dns failure")); ok {
			t.Error("AsAPIError() matched a non-API error")
		}
	})
}
