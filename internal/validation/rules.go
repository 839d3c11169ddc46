package validation

import (
	"context"
	"fmt"
	"net/mail"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Violation message codes. Parameterised codes carry their bound after a colon,
// e.g. "max_length:10".
const (
	MsgRequired  = "required"
	MsgMinLength = "min_length"
	MsgMaxLength = "max_length"
	MsgMin       = "min"
	MsgMax       = "max"
	MsgIn        = "in"
	MsgEmail     = "email"
	MsgUnique    = "unique"
	MsgType      = "type"
)

// Rule checks a single field value. It returns a non-empty violation message when
// the value breaks the rule. A non-nil error means the rule could not be
// evaluated at all (for example a lookup collaborator failed).
type Rule func(ctx context.Context, value any) (string, error)

// Lookup answers whether a value already exists in some external store.
type Lookup interface {
	Exists(ctx context.Context, value string) (bool, error)
}

// LookupFunc adapts a function to Lookup.
type LookupFunc func(ctx context.Context, value string) (bool, error)

// Exists implements Lookup.
func (f LookupFunc) Exists(ctx context.Context, value string) (bool, error) {
	return f(ctx, value)
}

// Required fails on nil, blank strings and empty slices or maps. Zero numbers
// and false pass; use a pointer field when a numeric value must be present.
func Required() Rule {
	return func(_ context.Context, value any) (string, error) {
		if isBlank(value) {
			return MsgRequired, nil
		}
		return "", nil
	}
}

// MinLength fails when a string value has fewer than n runes.
func MinLength(n int) Rule {
	return stringRule(func(s string) string {
		if utf8.RuneCountInString(s) < n {
			return MsgMinLength + ":" + strconv.Itoa(n)
		}
		return ""
	})
}

// MaxLength fails when a string value has more than n runes.
func MaxLength(n int) Rule {
	return stringRule(func(s string) string {
		if utf8.RuneCountInString(s) > n {
			return MsgMaxLength + ":" + strconv.Itoa(n)
		}
		return ""
	})
}

// Min fails when a numeric value is below n.
func Min(n float64) Rule {
	return numberRule(func(f float64) string {
		if f < n {
			return MsgMin + ":" + formatFloat(n)
		}
		return ""
	})
}

// Max fails when a numeric value is above n.
func Max(n float64) Rule {
	return numberRule(func(f float64) string {
		if f > n {
			return MsgMax + ":" + formatFloat(n)
		}
		return ""
	})
}

// In fails when a string value is not one of allowed.
func In(allowed ...string) Rule {
	msg := MsgIn + ":" + strings.Join(allowed, ",")
	return stringRule(func(s string) string {
		if !slices.Contains(allowed, s) {
			return msg
		}
		return ""
	})
}

// Email fails when a string value is not a bare mail address.
func Email() Rule {
	return stringRule(func(s string) string {
		addr, err := mail.ParseAddress(s)
		if err != nil || addr.Address != s || addr.Name != "" {
			return MsgEmail
		}
		return ""
	})
}

// Unique fails when l reports that the string value already exists.
func Unique(l Lookup) Rule {
	return func(ctx context.Context, value any) (string, error) {
		if isBlank(value) {
			return "", nil
		}
		s, ok := deref(value).(string)
		if !ok {
			return MsgType, nil
		}
		exists, err := l.Exists(ctx, s)
		if err != nil {
			return "", fmt.Errorf("unique lookup: %w", err)
		}
		if exists {
			return MsgUnique, nil
		}
		return "", nil
	}
}

// stringRule lifts a string check into a Rule. Blank values are skipped so that
// optional fields only get checked when present; Required covers presence.
func stringRule(check func(string) string) Rule {
	return func(_ context.Context, value any) (string, error) {
		if isBlank(value) {
			return "", nil
		}
		s, ok := deref(value).(string)
		if !ok {
			return MsgType, nil
		}
		return check(s), nil
	}
}

func numberRule(check func(float64) string) Rule {
	return func(_ context.Context, value any) (string, error) {
		v := deref(value)
		if v == nil {
			return "", nil
		}
		f, ok := toFloat(v)
		if !ok {
			return MsgType, nil
		}
		return check(f), nil
	}
}

func isBlank(value any) bool {
	v := deref(value)
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	default:
		return false
	}
}

// deref unwraps typed nil and non-nil pointers so rules see the pointed-to value.
func deref(value any) any {
	if value == nil {
		return nil
	}
	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	return rv.Interface()
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
