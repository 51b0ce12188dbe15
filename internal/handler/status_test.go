package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"bimquery/internal/service"

	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "validation",
			err:  fmt.Errorf("%w: question is required", service.ErrValidation),
			want: http.StatusBadRequest,
		},
		{
			name: "query construction",
			err:  fmt.Errorf("%w: task sum_area needs an area property key", service.ErrQueryConstruction),
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "not configured",
			err:  fmt.Errorf("openai: %w", service.ErrNotConfigured),
			want: http.StatusServiceUnavailable,
		},
		{
			name: "inference",
			err:  fmt.Errorf("category inference: %w", fmt.Errorf("%w: chat completion failed", service.ErrInference)),
			want: http.StatusBadGateway,
		},
		{
			name: "data not ready",
			err:  fmt.Errorf("%w: model has no rows", service.ErrDataNotReady),
			want: http.StatusNotFound,
		},
		{
			name: "unknown",
			err:  errors.New("connection reset"),
			want: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
