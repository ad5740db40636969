package filler

import (
	"errors"
	"sync"
	"testing"

	"formchat-be/internal/pkg/logger"
	"formchat-be/pkg/forms"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_Validate(t *testing.T) {
	v := NewValidator(logger.NewNopLogger())

	tests := []struct {
		name     string
		field    forms.Field
		raw      string
		expected string
		wantErr  bool
	}{
		{name: "text trimmed", field: forms.Field{Type: forms.FieldText}, raw: "  John Silva ", expected: "John Silva"},
		{name: "empty text", field: forms.Field{Type: forms.FieldText}, raw: "   ", wantErr: true},
		{name: "text too short", field: forms.Field{Type: forms.FieldText, MinLength: 5}, raw: "abc", wantErr: true},
		{name: "text too long", field: forms.Field{Type: forms.FieldTextarea, MaxLength: 3}, raw: "abcd", wantErr: true},
		{name: "text pattern", field: forms.Field{Type: forms.FieldText, Pattern: `^[A-Z]{3}-\d+$`}, raw: "ABC-12", expected: "ABC-12"},
		{name: "text pattern mismatch", field: forms.Field{Type: forms.FieldText, Pattern: `^[A-Z]{3}-\d+$`}, raw: "abc", wantErr: true},

		{name: "integer", field: forms.Field{Type: forms.FieldNumber}, raw: "42", expected: "42"},
		{name: "decimal comma", field: forms.Field{Type: forms.FieldNumber}, raw: "3,5", expected: "3.5"},
		{name: "not a number", field: forms.Field{Type: forms.FieldNumber}, raw: "many", wantErr: true},
		{name: "nan", field: forms.Field{Type: forms.FieldNumber}, raw: "NaN", wantErr: true},
		{name: "inf", field: forms.Field{Type: forms.FieldNumber}, raw: "inf", wantErr: true},
		{name: "negative infinity", field: forms.Field{Type: forms.FieldNumber}, raw: "-Infinity", wantErr: true},

		{name: "iso date", field: forms.Field{Type: forms.FieldDate}, raw: "2025-03-31", expected: "2025-03-31"},
		{name: "us date", field: forms.Field{Type: forms.FieldDate}, raw: "03/31/2025", expected: "2025-03-31"},
		{name: "day first date", field: forms.Field{Type: forms.FieldDate}, raw: "31/03/2025", expected: "2025-03-31"},
		{name: "date with time", field: forms.Field{Type: forms.FieldDate}, raw: "2025-03-31 10:00:00", expected: "2025-03-31"},
		{name: "impossible date", field: forms.Field{Type: forms.FieldDate}, raw: "2025-02-30", wantErr: true},
		{name: "words are not a date", field: forms.Field{Type: forms.FieldDate}, raw: "next week", wantErr: true},

		{name: "yes", field: forms.Field{Type: forms.FieldBoolean}, raw: "Yes", expected: "true"},
		{name: "sim", field: forms.Field{Type: forms.FieldBoolean}, raw: "sim", expected: "true"},
		{name: "nao", field: forms.Field{Type: forms.FieldBoolean}, raw: "não", expected: "false"},
		{name: "maybe", field: forms.Field{Type: forms.FieldBoolean}, raw: "maybe", wantErr: true},

		{name: "select canonical", field: forms.Field{Type: forms.FieldSelect, Options: []string{"Vacation", "Sick"}}, raw: "vacation", expected: "Vacation"},
		{name: "select unknown", field: forms.Field{Type: forms.FieldSelect, Options: []string{"Vacation", "Sick"}}, raw: "holiday", wantErr: true},

		{name: "email", field: forms.Field{Type: forms.FieldEmail}, raw: "John@X.com", expected: "john@x.com"},
		{name: "bad email", field: forms.Field{Type: forms.FieldEmail}, raw: "john at x", wantErr: true},
		{name: "url", field: forms.Field{Type: forms.FieldURL}, raw: "https://example.com/a", expected: "https://example.com/a"},
		{name: "bad url", field: forms.Field{Type: forms.FieldURL}, raw: "example", wantErr: true},

		{name: "phone", field: forms.Field{Type: forms.FieldPhone}, raw: "+55 (11) 98765-4321", expected: "+5511987654321"},
		{name: "short phone", field: forms.Field{Type: forms.FieldPhone}, raw: "12-34", wantErr: true},
		{name: "phone letters", field: forms.Field{Type: forms.FieldPhone}, raw: "call me", wantErr: true},

		{name: "currency br", field: forms.Field{Type: forms.FieldCurrency}, raw: "R$ 1.234,56", expected: "1234.56"},
		{name: "currency us", field: forms.Field{Type: forms.FieldCurrency}, raw: "$1,234.5", expected: "1234.50"},
		{name: "currency decimal comma", field: forms.Field{Type: forms.FieldCurrency}, raw: "99,90", expected: "99.90"},
		{name: "currency thousands comma", field: forms.Field{Type: forms.FieldCurrency}, raw: "1,500", expected: "1500.00"},
		{name: "currency garbage", field: forms.Field{Type: forms.FieldCurrency}, raw: "lots", wantErr: true},
		{name: "currency nan", field: forms.Field{Type: forms.FieldCurrency}, raw: "NaN", wantErr: true},
		{name: "currency inf", field: forms.Field{Type: forms.FieldCurrency}, raw: "$ inf", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.field.ID = "f"
			got, err := v.Validate(tt.field, tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				var verr *ValidationError
				assert.True(t, errors.As(err, &verr))
				assert.Equal(t, "f", verr.FieldID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

type countingLogger struct {
	logger.ILogger
	mu     sync.Mutex
	errors []string
}

func (l *countingLogger) Error(module, message string, details map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, message)
}

func TestValidator_InvalidPatternIsLoggedOnce(t *testing.T) {
	log := &countingLogger{ILogger: logger.NewNopLogger()}
	v := NewValidator(log)
	field := forms.Field{ID: "code", Type: forms.FieldText, Pattern: `^[A-Z`}

	for i := 0; i < 3; i++ {
		got, err := v.Validate(field, "anything")
		require.NoError(t, err)
		assert.Equal(t, "anything", got)
	}
	assert.Len(t, log.errors, 1)
}
