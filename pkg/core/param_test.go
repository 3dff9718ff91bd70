package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestCoerce_MissingRequired(t *testing.T) {
	def := ParameterDefinition{Name: "run_date", Type: ParamDate, Required: true}

	_, err := def.Coerce(nil)
	if err == nil {
		t.Fatal("Coerce(nil) should fail for required parameter without default")
	}

	var missing *MissingParameterError
	if !errors.As(err, &missing) {
		t.Fatalf("error = %T, want *MissingParameterError", err)
	}
	if missing.Name != "run_date" {
		t.Errorf("error names %q, want run_date", missing.Name)
	}
}

func TestCoerce_AbsentOptional(t *testing.T) {
	def := ParameterDefinition{Name: "limit", Type: ParamInteger}

	v, err := def.Coerce(nil)
	if err != nil {
		t.Fatalf("Coerce(nil) failed: %v", err)
	}
	if v != nil {
		t.Errorf("Coerce(nil) = %v, want nil", v)
	}
}

func TestCoerce_DefaultIsCoerced(t *testing.T) {
	def := ParameterDefinition{Name: "limit", Type: ParamInteger, Default: "100"}

	v, err := def.Coerce(nil)
	if err != nil {
		t.Fatalf("Coerce(nil) failed: %v", err)
	}
	if v != int64(100) {
		t.Errorf("Coerce(nil) = %v (%T), want int64(100)", v, v)
	}
}

func TestCoerce_Types(t *testing.T) {
	tests := []struct {
		name string
		def  ParameterDefinition
		raw  any
		want any
	}{
		{"integer from string", ParameterDefinition{Name: "n", Type: ParamInteger}, "42", int64(42)},
		{"integer from float", ParameterDefinition{Name: "n", Type: ParamInteger}, float64(7), int64(7)},
		{"float from string", ParameterDefinition{Name: "f", Type: ParamFloat}, "3.5", 3.5},
		{"float from int", ParameterDefinition{Name: "f", Type: ParamFloat}, 2, 2.0},
		{"bool true", ParameterDefinition{Name: "b", Type: ParamBoolean}, "YES", true},
		{"bool one", ParameterDefinition{Name: "b", Type: ParamBoolean}, "1", true},
		{"bool other string is false", ParameterDefinition{Name: "b", Type: ParamBoolean}, "off", false},
		{"string from int", ParameterDefinition{Name: "s", Type: ParamString}, 10, "10"},
		{"string passthrough", ParameterDefinition{Name: "s", Type: ParamString}, "abc", "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.def.Coerce(tt.raw)
			if err != nil {
				t.Fatalf("Coerce(%v) failed: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("Coerce(%v) = %v (%T), want %v (%T)", tt.raw, got, got, tt.want, tt.want)
			}
		})
	}
}

func TestCoerce_Date(t *testing.T) {
	def := ParameterDefinition{Name: "ds", Type: ParamDate}

	v, err := def.Coerce("2025-01-31")
	if err != nil {
		t.Fatalf("Coerce failed: %v", err)
	}
	got, ok := v.(time.Time)
	if !ok {
		t.Fatalf("Coerce returned %T, want time.Time", v)
	}
	if got.Format(DateLayout) != "2025-01-31" {
		t.Errorf("date = %s, want 2025-01-31", got.Format(DateLayout))
	}

	// Already-typed dates pass through unchanged.
	now := time.Now()
	v, err = def.Coerce(now)
	if err != nil {
		t.Fatalf("Coerce(time.Time) failed: %v", err)
	}
	if !v.(time.Time).Equal(now) {
		t.Error("typed date should pass through unchanged")
	}
}

func TestCoerce_InvalidDate(t *testing.T) {
	def := ParameterDefinition{Name: "ds", Type: ParamDate}

	_, err := def.Coerce("2025-13-40")
	if err == nil {
		t.Fatal("Coerce should reject an impossible date")
	}

	var conv *ConversionError
	if !errors.As(err, &conv) {
		t.Fatalf("error = %T, want *ConversionError", err)
	}
	if conv.Name != "ds" || conv.Type != ParamDate {
		t.Errorf("error = %+v, want name=ds type=date", conv)
	}
	if !strings.Contains(err.Error(), "ds") || !strings.Contains(err.Error(), "date") {
		t.Errorf("error message %q should name parameter and target type", err.Error())
	}
}

func TestCoerce_ListWrapsScalar(t *testing.T) {
	def := ParameterDefinition{Name: "regions", Type: ParamList}

	v, err := def.Coerce("kr")
	if err != nil {
		t.Fatalf("Coerce failed: %v", err)
	}
	got, ok := v.([]any)
	if !ok || len(got) != 1 || got[0] != "kr" {
		t.Errorf("Coerce(scalar) = %v, want [kr]", v)
	}

	v, err = def.Coerce([]string{"kr", "jp"})
	if err != nil {
		t.Fatalf("Coerce failed: %v", err)
	}
	if got := v.([]any); len(got) != 2 {
		t.Errorf("Coerce([]string) = %v, want 2 elements", got)
	}
}

func TestCoerce_IntegerConversionFailure(t *testing.T) {
	def := ParameterDefinition{Name: "n", Type: ParamInteger}

	_, err := def.Coerce("not-a-number")
	var conv *ConversionError
	if !errors.As(err, &conv) {
		t.Fatalf("error = %T, want *ConversionError", err)
	}
	if conv.Value != "not-a-number" {
		t.Errorf("error should carry original value, got %v", conv.Value)
	}
}
