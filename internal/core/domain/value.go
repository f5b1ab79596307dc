package domain

import (
	"fmt"
	"strconv"
)

// ColumnType enumerates the value types a table column can hold.
type ColumnType int8

const (
	TypeInt ColumnType = iota
	TypeFloat
	TypeBool
	TypeString
	// TypeBlobRef is a string path referencing a binary blob stored outside
	// the table, e.g. a video file inside the archive.
	TypeBlobRef
)

// String returns the schema-file spelling of the type.
func (t ColumnType) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeBool:
		return "bool"
	case TypeString:
		return "string"
	case TypeBlobRef:
		return "blobref"
	default:
		return fmt.Sprintf("ColumnType(%d)", int8(t))
	}
}

// Value is a single typed table cell. Exactly one of the payload fields is
// meaningful, selected by Type. All fields are exported so values survive gob
// encoding in the reference cache.
type Value struct {
	Type  ColumnType
	Int   int64
	Float float64
	Bool  bool
	Str   string
}

// IntValue returns an integer cell.
func IntValue(v int64) Value { return Value{Type: TypeInt, Int: v} }

// FloatValue returns a float cell.
func FloatValue(v float64) Value { return Value{Type: TypeFloat, Float: v} }

// BoolValue returns a boolean cell.
func BoolValue(v bool) Value { return Value{Type: TypeBool, Bool: v} }

// StringValue returns a string cell.
func StringValue(v string) Value { return Value{Type: TypeString, Str: v} }

// BlobRefValue returns a blob-reference cell.
func BlobRefValue(path string) Value { return Value{Type: TypeBlobRef, Str: path} }

// Equal reports whether two values have the same type and payload.
func (v Value) Equal(o Value) bool {
	if v.Type != o.Type {
		return false
	}
	switch v.Type {
	case TypeInt:
		return v.Int == o.Int
	case TypeFloat:
		return v.Float == o.Float
	case TypeBool:
		return v.Bool == o.Bool
	default:
		return v.Str == o.Str
	}
}

// Native returns the cell as a plain Go value, the representation handed to
// script expressions.
func (v Value) Native() any {
	switch v.Type {
	case TypeInt:
		return v.Int
	case TypeFloat:
		return v.Float
	case TypeBool:
		return v.Bool
	default:
		return v.Str
	}
}

// String renders the cell for row keys and logs. Floats use the shortest
// representation that round-trips, so keys stay deterministic.
func (v Value) String() string {
	switch v.Type {
	case TypeInt:
		return strconv.FormatInt(v.Int, 10)
	case TypeFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case TypeBool:
		return strconv.FormatBool(v.Bool)
	default:
		return v.Str
	}
}

// CoerceValue converts a plain Go value into a cell of the given column type.
// Numeric kinds convert between each other; anything else must match.
func CoerceValue(t ColumnType, raw any) (Value, error) {
	switch t {
	case TypeInt:
		switch n := raw.(type) {
		case int:
			return IntValue(int64(n)), nil
		case int64:
			return IntValue(n), nil
		case float64:
			return IntValue(int64(n)), nil
		}
	case TypeFloat:
		switch n := raw.(type) {
		case int:
			return FloatValue(float64(n)), nil
		case int64:
			return FloatValue(float64(n)), nil
		case float64:
			return FloatValue(n), nil
		}
	case TypeBool:
		if b, ok := raw.(bool); ok {
			return BoolValue(b), nil
		}
	case TypeString, TypeBlobRef:
		if s, ok := raw.(string); ok {
			return Value{Type: t, Str: s}, nil
		}
	}
	return Value{}, fmt.Errorf("cannot store %T as %s", raw, t)
}
