package model

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// PropertyType is the declared type of a model property
type PropertyType string

// all supported property types
const (
	TypeString  PropertyType = "string"
	TypeInteger PropertyType = "integer"
	TypeNumber  PropertyType = "number"
	TypeBoolean PropertyType = "boolean"
	TypeDate    PropertyType = "date"
	TypeUUID    PropertyType = "uuid"
	TypeObject  PropertyType = "object"
)

// ErrInvalidValue is returned when a value cannot be coerced to the declared type of a property
var ErrInvalidValue = errors.New("invalid value")

// Valid returns true if t is a known property type
func (t PropertyType) Valid() bool {
	switch t {
	case TypeString, TypeInteger, TypeNumber, TypeBoolean, TypeDate, TypeUUID, TypeObject:
		return true
	}
	return false
}

// Property is a declared property of a model.
//
// Options holds every declared option besides the type, with lowercased names,
// e.g. "index", "required", "default" or "pattern".
type Property struct {
	Name    string
	Type    PropertyType
	Options map[string]interface{}
}

// Option returns the named option, looked up case-insensitively
func (p *Property) Option(name string) (interface{}, bool) {
	v, ok := p.Options[strings.ToLower(name)]
	return v, ok
}

// Default returns the coerced default value of the property, or nil if there is none
func (p *Property) Default() (interface{}, error) {
	v, ok := p.Option("default")
	if !ok || v == nil {
		return nil, nil
	}
	return p.Coerce(v)
}

// Coerce converts value into the property's type. nil stays nil.
func (p *Property) Coerce(value interface{}) (interface{}, error) {
	v, err := Coerce(p.Type, value)
	if err != nil {
		return nil, fmt.Errorf("property %s: %w", p.Name, err)
	}
	return v, nil
}

// Coerce converts value into the given type. Integers are represented as int64, numbers
// as float64, dates as UTC time.Time and uuids as lowercase strings.
func Coerce(t PropertyType, value interface{}) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	switch t {
	case TypeString, "":
		switch v := value.(type) {
		case string:
			return v, nil
		case time.Time:
			return v.Format(time.RFC3339Nano), nil
		case map[string]interface{}, []interface{}:
			return nil, fmt.Errorf("%w: expected string, got %T", ErrInvalidValue, value)
		}
		if f, ok := toFloat(value); ok {
			return strconv.FormatFloat(f, 'f', -1, 64), nil
		}
		return fmt.Sprint(value), nil

	case TypeInteger:
		if s, ok := value.(string); ok {
			i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %q is not an integer", ErrInvalidValue, s)
			}
			return i, nil
		}
		f, ok := toFloat(value)
		if !ok || f != math.Trunc(f) {
			return nil, fmt.Errorf("%w: %v is not an integer", ErrInvalidValue, value)
		}
		return int64(f), nil

	case TypeNumber:
		if s, ok := value.(string); ok {
			f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %q is not a number", ErrInvalidValue, s)
			}
			return f, nil
		}
		f, ok := toFloat(value)
		if !ok {
			return nil, fmt.Errorf("%w: %v is not a number", ErrInvalidValue, value)
		}
		return f, nil

	case TypeBoolean:
		switch v := value.(type) {
		case bool:
			return v, nil
		case string:
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "1", "true", "yes", "on":
				return true, nil
			case "0", "false", "no", "off":
				return false, nil
			}
			return nil, fmt.Errorf("%w: %q is not a boolean", ErrInvalidValue, v)
		}
		if f, ok := toFloat(value); ok {
			return f != 0, nil
		}
		return nil, fmt.Errorf("%w: %v is not a boolean", ErrInvalidValue, value)

	case TypeDate:
		if tm, ok := toTime(value); ok {
			return tm, nil
		}
		return nil, fmt.Errorf("%w: %v is not a date", ErrInvalidValue, value)

	case TypeUUID:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %v is not a uuid", ErrInvalidValue, value)
		}
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a uuid", ErrInvalidValue, s)
		}
		return id.String(), nil

	case TypeObject:
		switch v := value.(type) {
		case map[string]interface{}, []interface{}:
			return v, nil
		case string:
			var o interface{}
			if err := json.Unmarshal([]byte(v), &o); err != nil {
				return nil, fmt.Errorf("%w: %q is not a JSON object", ErrInvalidValue, v)
			}
			return o, nil
		}
		return nil, fmt.Errorf("%w: %v is not an object", ErrInvalidValue, value)
	}
	return nil, fmt.Errorf("%w: unknown type %s", ErrInvalidValue, t)
}
