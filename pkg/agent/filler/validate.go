package filler

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"formchat-be/internal/pkg/logger"
	"formchat-be/pkg/forms"

	"github.com/go-playground/validator/v10"
)

// Accepted date layouts, tried in order. Output is always ISO.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"02/01/2006",
	"2006-01-02 15:04:05",
}

var (
	trueTokens  = map[string]bool{"yes": true, "y": true, "true": true, "sim": true, "s": true, "1": true, "ok": true}
	falseTokens = map[string]bool{"no": true, "n": true, "false": true, "não": true, "nao": true, "0": true}
)

const minPhoneDigits = 7

// ValidationError explains why a value was not accepted for a field
type ValidationError struct {
	FieldID string
	Label   string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Label, e.Reason)
}

// Validator checks raw values against a field's declared type and returns
// the normalized string that gets stored.
type Validator struct {
	validate *validator.Validate
	logger   logger.ILogger

	// compiled patterns by source; nil marks one that does not compile
	patterns sync.Map
}

func NewValidator(logger logger.ILogger) *Validator {
	return &Validator{validate: validator.New(), logger: logger}
}

func (v *Validator) Validate(field forms.Field, raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", v.fail(field, "a value is required")
	}

	switch field.Type {
	case forms.FieldNumber:
		return v.number(field, value)
	case forms.FieldDate:
		return v.date(field, value)
	case forms.FieldBoolean:
		return v.boolean(field, value)
	case forms.FieldSelect:
		return v.selectOption(field, value)
	case forms.FieldEmail:
		if err := v.validate.Var(value, "required,email"); err != nil {
			return "", v.fail(field, "must be a valid email address")
		}
		return strings.ToLower(value), nil
	case forms.FieldURL:
		if err := v.validate.Var(value, "required,url"); err != nil {
			return "", v.fail(field, "must be a valid URL")
		}
		return value, nil
	case forms.FieldPhone:
		return v.phone(field, value)
	case forms.FieldCurrency:
		return v.currency(field, value)
	default:
		return v.text(field, value)
	}
}

func (v *Validator) fail(field forms.Field, reason string) error {
	label := field.Label
	if label == "" {
		label = field.ID
	}
	return &ValidationError{FieldID: field.ID, Label: label, Reason: reason}
}

func (v *Validator) text(field forms.Field, value string) (string, error) {
	n := utf8.RuneCountInString(value)
	if field.MinLength > 0 && n < field.MinLength {
		return "", v.fail(field, fmt.Sprintf("must be at least %d characters", field.MinLength))
	}
	if field.MaxLength > 0 && n > field.MaxLength {
		return "", v.fail(field, fmt.Sprintf("must be at most %d characters", field.MaxLength))
	}
	if re := v.pattern(field); re != nil && !re.MatchString(value) {
		return "", v.fail(field, "is not in the expected format")
	}
	return value, nil
}

// pattern compiles a field's pattern once. A pattern that does not compile is
// logged the first time it is seen and the format check is skipped.
func (v *Validator) pattern(field forms.Field) *regexp.Regexp {
	if field.Pattern == "" {
		return nil
	}
	if cached, ok := v.patterns.Load(field.Pattern); ok {
		re, _ := cached.(*regexp.Regexp)
		return re
	}
	re, err := regexp.Compile(field.Pattern)
	if err != nil {
		if _, seen := v.patterns.LoadOrStore(field.Pattern, (*regexp.Regexp)(nil)); !seen {
			v.logger.Error("FILLER", "Field has an invalid pattern, format check skipped", map[string]interface{}{
				"field":   field.ID,
				"pattern": field.Pattern,
				"error":   err.Error(),
			})
		}
		return nil
	}
	v.patterns.Store(field.Pattern, re)
	return re
}

func (v *Validator) number(field forms.Field, value string) (string, error) {
	s := strings.ReplaceAll(value, " ", "")
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || !finite(f) {
		return "", v.fail(field, "must be a number")
	}
	return strconv.FormatFloat(f, 'f', -1, 64), nil
}

func (v *Validator) date(field forms.Field, value string) (string, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}
	return "", v.fail(field, "must be a calendar date like 2025-03-31")
}

func (v *Validator) boolean(field forms.Field, value string) (string, error) {
	token := strings.ToLower(strings.Trim(value, " .!"))
	switch {
	case trueTokens[token]:
		return "true", nil
	case falseTokens[token]:
		return "false", nil
	}
	return "", v.fail(field, "please answer yes or no")
}

func (v *Validator) selectOption(field forms.Field, value string) (string, error) {
	for _, opt := range field.Options {
		if strings.EqualFold(strings.TrimSpace(opt), value) {
			return opt, nil
		}
	}
	return "", v.fail(field, fmt.Sprintf("must be one of: %s", strings.Join(field.Options, ", ")))
}

func (v *Validator) phone(field forms.Field, value string) (string, error) {
	var b strings.Builder
	for i, r := range value {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
		default:
			return "", v.fail(field, "must be a phone number")
		}
	}
	digits := strings.TrimPrefix(b.String(), "+")
	if len(digits) < minPhoneDigits {
		return "", v.fail(field, fmt.Sprintf("must have at least %d digits", minPhoneDigits))
	}
	return b.String(), nil
}

func (v *Validator) currency(field forms.Field, value string) (string, error) {
	s := strings.ToUpper(value)
	for _, sym := range []string{"R$", "US$", "$", "€", "£", "BRL", "USD", "EUR", " "} {
		s = strings.ReplaceAll(s, sym, "")
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		// Whichever separator comes last is the decimal one
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if len(s)-lastComma-1 == 2 && strings.Count(s, ",") == 1 {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || !finite(f) || f < 0 {
		return "", v.fail(field, "must be an amount like 1234.56")
	}
	return strconv.FormatFloat(f, 'f', 2, 64), nil
}

// finite rejects the NaN and Inf spellings ParseFloat accepts
func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
