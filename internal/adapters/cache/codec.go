package cache

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// SerializationError is returned when a value cannot be stored on the
// remote backend. The contract is deliberately loud: unsupported
// shapes fail the write with a typed error instead of being silently
// normalized or dropped.
type SerializationError struct {
	Type   string
	Reason string
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("cannot serialize %s value: %s", e.Type, e.Reason)
}

// encodeValue serializes a value to the portable JSON form used by the
// remote backend. Supported shapes: nil, booleans, numbers, strings,
// byte slices, slices/arrays, string-keyed maps, and structs of those.
func encodeValue(value any) ([]byte, error) {
	if err := checkEncodable(reflect.ValueOf(value), 0); err != nil {
		return nil, err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, &SerializationError{
			Type:   fmt.Sprintf("%T", value),
			Reason: err.Error(),
		}
	}
	return data, nil
}

// decodeValue is the inverse of encodeValue. Numbers come back as
// float64 and objects as map[string]any, which callers must tolerate.
func decodeValue(data []byte) (any, error) {
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, fmt.Errorf("failed to decode cached value: %w", err)
	}
	return value, nil
}

const maxEncodeDepth = 32

// checkEncodable rejects shapes that json.Marshal would either fail on
// or quietly coerce (e.g. integer-keyed maps become string keys). Only
// the enumerated shapes from the serialization contract pass.
func checkEncodable(v reflect.Value, depth int) error {
	if depth > maxEncodeDepth {
		return &SerializationError{Type: v.Type().String(), Reason: "value nests too deeply"}
	}
	if !v.IsValid() {
		return nil
	}

	switch v.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return nil
	case reflect.Interface, reflect.Pointer:
		if v.IsNil() {
			return nil
		}
		return checkEncodable(v.Elem(), depth+1)
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if err := checkEncodable(v.Index(i), depth+1); err != nil {
				return err
			}
		}
		return nil
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return &SerializationError{
				Type:   v.Type().String(),
				Reason: "map keys must be strings",
			}
		}
		iter := v.MapRange()
		for iter.Next() {
			if err := checkEncodable(iter.Value(), depth+1); err != nil {
				return err
			}
		}
		return nil
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			if !v.Type().Field(i).IsExported() {
				continue
			}
			if err := checkEncodable(v.Field(i), depth+1); err != nil {
				return err
			}
		}
		return nil
	default:
		return &SerializationError{
			Type:   v.Type().String(),
			Reason: fmt.Sprintf("unsupported kind %s", v.Kind()),
		}
	}
}
