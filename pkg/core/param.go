package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParamType enumerates the supported parameter types.
type ParamType string

const (
	ParamString  ParamType = "string"
	ParamInteger ParamType = "integer"
	ParamFloat   ParamType = "float"
	ParamDate    ParamType = "date"
	ParamBoolean ParamType = "boolean"
	ParamList    ParamType = "list"
)

// ParseParamType converts a string to a ParamType.
// Returns the type and true if valid, or ParamString and false if not.
func ParseParamType(s string) (ParamType, bool) {
	switch ParamType(strings.ToLower(s)) {
	case ParamString, ParamInteger, ParamFloat, ParamDate, ParamBoolean, ParamList:
		return ParamType(strings.ToLower(s)), true
	default:
		return ParamString, false
	}
}

// ParameterDefinition declares one typed parameter of a spec.
type ParameterDefinition struct {
	// Name is the placeholder name referenced in SQL templates.
	Name string
	// Type is the declared value type.
	Type ParamType
	// Required makes a missing value an error when no default exists.
	Required bool
	// Default is the fallback value for absent inputs.
	Default any
	// Description is free-form documentation.
	Description string
}

// DateLayout is the accepted ISO date format for date parameters.
const DateLayout = "2006-01-02"

// Coerce converts a raw value to the definition's declared type.
//
// Absent values (nil) resolve to the default; a required definition
// without a default fails with a MissingParameterError. Conversion
// failures return a ConversionError naming the parameter, target type,
// and original value. Coerce has no side effects.
func (d ParameterDefinition) Coerce(raw any) (any, error) {
	if raw == nil {
		if d.Default != nil {
			return d.convert(d.Default)
		}
		if d.Required {
			return nil, &MissingParameterError{Name: d.Name}
		}
		return nil, nil
	}
	return d.convert(raw)
}

func (d ParameterDefinition) convert(raw any) (any, error) {
	switch d.Type {
	case ParamString:
		return toText(raw), nil

	case ParamInteger:
		switch v := raw.(type) {
		case int:
			return int64(v), nil
		case int64:
			return v, nil
		case float64:
			if v == float64(int64(v)) {
				return int64(v), nil
			}
		case string:
			if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
				return n, nil
			}
		}
		return nil, d.conversionError(raw)

	case ParamFloat:
		switch v := raw.(type) {
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		case float64:
			return v, nil
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return f, nil
			}
		}
		return nil, d.conversionError(raw)

	case ParamBoolean:
		switch v := raw.(type) {
		case bool:
			return v, nil
		case string:
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "true", "1", "yes":
				return true, nil
			default:
				return false, nil
			}
		case int:
			return v == 1, nil
		}
		return nil, d.conversionError(raw)

	case ParamDate:
		switch v := raw.(type) {
		case time.Time:
			return v, nil
		case string:
			t, err := time.Parse(DateLayout, strings.TrimSpace(v))
			if err != nil {
				return nil, d.conversionError(raw)
			}
			return t, nil
		}
		return nil, d.conversionError(raw)

	case ParamList:
		switch v := raw.(type) {
		case []any:
			return v, nil
		case []string:
			out := make([]any, len(v))
			for i, s := range v {
				out[i] = s
			}
			return out, nil
		default:
			// A scalar becomes a single-element list.
			return []any{raw}, nil
		}

	default:
		return nil, d.conversionError(raw)
	}
}

func (d ParameterDefinition) conversionError(raw any) error {
	return &ConversionError{Name: d.Name, Type: d.Type, Value: raw}
}

// toText renders a value in its natural text form.
func toText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case time.Time:
		return t.Format(DateLayout)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// MissingParameterError reports an absent required parameter.
type MissingParameterError struct {
	Name string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("missing required parameter %q", e.Name)
}

// ConversionError reports a failed type conversion.
type ConversionError struct {
	Name  string
	Type  ParamType
	Value any
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("parameter %q: cannot convert %v to %s", e.Name, e.Value, e.Type)
}
