package handler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	appvalidator "github.com/fairyhunter13/apparel-storefront/internal/validator"
)

func TestFormatValidationError(t *testing.T) {
	v := appvalidator.New()

	type sample struct {
		Name  string `json:"name" validate:"required,max=5"`
		Count int    `json:"count" validate:"gte=2"`
		Kind  string `json:"kind" validate:"omitempty,oneof=a b"`
	}

	testCases := []struct {
		name     string
		input    sample
		expected string
	}{
		{"required", sample{Count: 2}, "invalid request: name is required"},
		{"max", sample{Name: "toolong", Count: 2}, "invalid request: name exceeds maximum length of 5"},
		{"gte", sample{Name: "ok", Count: 1}, "invalid request: count must be at least 2"},
		{"oneof", sample{Name: "ok", Count: 2, Kind: "c"}, "invalid request: kind must be one of: a b"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, formatValidationError(v.Struct(tc.input)))
		})
	}
}

func TestFormatValidationError_NonValidationError(t *testing.T) {
	assert.Equal(t, "invalid request", formatValidationError(errors.New("boom")))
}
