/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValueKind discriminates the scalar variants an attribute can hold.
type ValueKind int

const (
	StringValue ValueKind = iota
	IntValue
	FloatValue
)

func (k ValueKind) String() string {
	switch k {
	case StringValue:
		return "string"
	case IntValue:
		return "int"
	case FloatValue:
		return "float"
	default:
		return fmt.Sprintf("ValueKind(%d)", int(k))
	}
}

// Value is a tagged scalar held in an entity's attribute bag.
// The zero Value is the empty string.
type Value struct {
	kind ValueKind
	s    string
	i    int64
	f    float64
}

// String returns a string Value.
func String(s string) Value { return Value{kind: StringValue, s: s} }

// Int returns an integer Value.
func Int(i int64) Value { return Value{kind: IntValue, i: i} }

// Float returns a float Value.
func Float(f float64) Value { return Value{kind: FloatValue, f: f} }

// ValueOf converts a decoded JSON scalar into a Value.
// json.Number is split into Int or Float by its textual form so that 3.0 stays a float.
func ValueOf(x any) (Value, error) {
	switch v := x.(type) {
	case Value:
		return v, nil
	case string:
		return String(v), nil
	case json.Number:
		return numberValue(string(v))
	case int:
		return Int(int64(v)), nil
	case int32:
		return Int(int64(v)), nil
	case int64:
		return Int(v), nil
	case float32:
		return Float(float64(v)), nil
	case float64:
		return Float(v), nil
	default:
		return Value{}, fmt.Errorf("unsupported attribute type %T", x)
	}
}

func numberValue(s string) (Value, error) {
	if !strings.ContainsAny(s, ".eE") {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return Int(i), nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Value{}, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return Float(f), nil
}

// Kind reports which variant v holds.
func (v Value) Kind() ValueKind { return v.kind }

// Interface returns the held scalar as string, int64 or float64.
func (v Value) Interface() any {
	switch v.kind {
	case IntValue:
		return v.i
	case FloatValue:
		return v.f
	default:
		return v.s
	}
}

// String returns the plain textual form, without quoting.
func (v Value) String() string {
	switch v.kind {
	case IntValue:
		return strconv.FormatInt(v.i, 10)
	case FloatValue:
		return formatFloat(v.f)
	default:
		return v.s
	}
}

// Repr returns the display form used when rendering entities; strings are quoted.
func (v Value) Repr() string {
	if v.kind == StringValue {
		return strconv.Quote(v.s)
	}
	return v.String()
}

// Equal reports whether both values hold the same variant and scalar.
func (v Value) Equal(o Value) bool {
	return v.kind == o.kind && v.s == o.s && v.i == o.i && v.f == o.f
}

// MarshalJSON always writes floats with a fraction or exponent.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case IntValue:
		return []byte(strconv.FormatInt(v.i, 10)), nil
	case FloatValue:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return nil, fmt.Errorf("unsupported float value %v", v.f)
		}
		return []byte(formatFloat(v.f)), nil
	default:
		return json.Marshal(v.s)
	}
}

// UnmarshalJSON accepts a JSON string or number.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	parsed, err := ValueOf(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// formatFloat mirrors encoding/json's float layout and appends ".0" to integral values.
func formatFloat(f float64) string {
	abs := math.Abs(f)
	format := byte('f')
	if abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}
	s := strconv.FormatFloat(f, format, -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}
