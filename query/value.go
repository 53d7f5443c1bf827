package query

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Value is a typed Firestore value. Exactly one field is set.
type Value struct {
	NullValue      *string     `json:"nullValue,omitempty"`
	BooleanValue   *bool       `json:"booleanValue,omitempty"`
	IntegerValue   *string     `json:"integerValue,omitempty"`
	DoubleValue    *float64    `json:"doubleValue,omitempty"`
	TimestampValue *string     `json:"timestampValue,omitempty"`
	StringValue    *string     `json:"stringValue,omitempty"`
	ReferenceValue *string     `json:"referenceValue,omitempty"`
	ArrayValue     *ArrayValue `json:"arrayValue,omitempty"`
	MapValue       *MapValue   `json:"mapValue,omitempty"`
}

type ArrayValue struct {
	Values []Value `json:"values,omitempty"`
}

type MapValue struct {
	Fields map[string]Value `json:"fields,omitempty"`
}

func StringValue(s string) Value {
	return Value{StringValue: &s}
}

func BoolValue(b bool) Value {
	return Value{BooleanValue: &b}
}

func TimestampValue(t time.Time) Value {
	s := t.UTC().Format(time.RFC3339Nano)
	return Value{TimestampValue: &s}
}

func ReferenceValue(ref string) Value {
	return Value{ReferenceValue: &ref}
}

func ArrayOf(values ...Value) Value {
	return Value{ArrayValue: &ArrayValue{Values: values}}
}

// UnmarshalJSON never fails: members of the wrong JSON type are dropped so
// that a malformed field reads as absent instead of failing the whole response.
func (v *Value) UnmarshalJSON(data []byte) error {
	*v = Value{}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}

	for key, msg := range raw {
		switch key {
		case "nullValue":
			null := "NULL_VALUE"
			v.NullValue = &null
		case "booleanValue":
			var b bool
			if json.Unmarshal(msg, &b) == nil {
				v.BooleanValue = &b
			}
		case "integerValue":
			// Sent as a string, but accept bare numbers too
			s := strings.Trim(string(msg), `"`)
			v.IntegerValue = &s
		case "doubleValue":
			var f float64
			if json.Unmarshal(msg, &f) == nil {
				v.DoubleValue = &f
			}
		case "timestampValue":
			v.TimestampValue = decodeString(msg)
		case "stringValue":
			v.StringValue = decodeString(msg)
		case "referenceValue":
			v.ReferenceValue = decodeString(msg)
		case "arrayValue":
			var a ArrayValue
			if json.Unmarshal(msg, &a) == nil {
				v.ArrayValue = &a
			}
		case "mapValue":
			var m MapValue
			if json.Unmarshal(msg, &m) == nil {
				v.MapValue = &m
			}
		}
	}

	return nil
}

func decodeString(msg json.RawMessage) *string {
	var s string
	if json.Unmarshal(msg, &s) != nil {
		return nil
	}
	return &s
}

// String returns the string payload or "" when the value holds something else
func (v Value) String() string {
	if v.StringValue == nil {
		return ""
	}
	return *v.StringValue
}

func (v Value) Bool() bool {
	return v.BooleanValue != nil && *v.BooleanValue
}

// Int parses integer, double or numeric string payloads. Anything else,
// including negative counts, reads as 0.
func (v Value) Int() int64 {
	var n int64
	switch {
	case v.IntegerValue != nil:
		n, _ = strconv.ParseInt(*v.IntegerValue, 10, 64)
	case v.DoubleValue != nil:
		n = int64(*v.DoubleValue)
	case v.StringValue != nil:
		n, _ = strconv.ParseInt(strings.TrimSpace(*v.StringValue), 10, 64)
	}
	if n < 0 {
		return 0
	}
	return n
}

// Time parses a timestamp payload, returning the zero time on failure
func (v Value) Time() time.Time {
	if v.TimestampValue == nil {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, *v.TimestampValue)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Strings collects the string members of an array payload
func (v Value) Strings() []string {
	out := []string{}
	if v.ArrayValue == nil {
		return out
	}
	for _, item := range v.ArrayValue.Values {
		if item.StringValue != nil {
			out = append(out, *item.StringValue)
		}
	}
	return out
}

// Maps returns the field maps of an array of map values
func (v Value) Maps() []map[string]Value {
	out := []map[string]Value{}
	if v.ArrayValue == nil {
		return out
	}
	for _, item := range v.ArrayValue.Values {
		if item.MapValue != nil {
			out = append(out, item.MapValue.Fields)
		}
	}
	return out
}
