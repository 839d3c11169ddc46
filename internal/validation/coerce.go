package validation

import (
	"fmt"
	"reflect"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// Coerce decodes raw into target, which must be a non-nil pointer to a struct.
// Keys are matched against `json` tags. Values of the wrong shape (an object
// where a string is expected, text where a number is expected) fail; keys
// without a matching field are ignored.
func Coerce(raw map[string]any, target any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "json",
		WeaklyTypedInput: false,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc(time.RFC3339),
			wholeNumberHook,
		),
	})
	if err != nil {
		return fmt.Errorf("building decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("decoding payload: %w", err)
	}
	return nil
}

// wholeNumberHook rejects fractional numbers headed for integer fields instead
// of letting them truncate.
func wholeNumberHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	f, ok := data.(float64)
	if !ok {
		return data, nil
	}
	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if f != float64(int64(f)) {
			return nil, fmt.Errorf("expected whole number, got %v", f)
		}
	}
	return data, nil
}
