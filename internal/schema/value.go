package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Kind enumerates the scalar shapes a cell can take.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindRaw // nested JSON (object or array), kept verbatim
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindRaw:
		return "raw"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is a single cell of a record.
// Numbers keep the token they were read from so that stringification
// reproduces the source, while set membership compares numerically.
// Integral numbers are keyed by their exact decimal text, so 64-bit IDs
// beyond float64 precision stay distinct.
type Value struct {
	kind Kind
	text string
	num  float64
	nkey string
	b    bool
}

func Null() Value { return Value{} }

func NewString(s string) Value { return Value{kind: KindString, text: s} }

func NewBool(b bool) Value { return Value{kind: KindBool, b: b} }

func NewNumber(f float64) Value {
	return Value{kind: KindNumber, num: f, text: strconv.FormatFloat(f, 'f', -1, 64), nkey: floatKey(f)}
}

func NewInt(i int64) Value {
	s := strconv.FormatInt(i, 10)
	return Value{kind: KindNumber, num: float64(i), text: s, nkey: s}
}

func NewUint(u uint64) Value {
	s := strconv.FormatUint(u, 10)
	return Value{kind: KindNumber, num: float64(u), text: s, nkey: s}
}

// NewNumberToken parses a JSON number token. Integer literals keep full
// precision for comparison.
func NewNumberToken(tok string) (Value, error) {
	if isIntegerLiteral(tok) {
		n, ok := new(big.Int).SetString(tok, 10)
		if !ok {
			return Value{}, errors.Errorf("invalid number %q", tok)
		}
		f, _ := new(big.Float).SetInt(n).Float64()
		return Value{kind: KindNumber, num: f, text: tok, nkey: n.String()}, nil
	}
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return Value{}, errors.Wrapf(err, "invalid number %q", tok)
	}
	return Value{kind: KindNumber, num: f, text: tok, nkey: floatKey(f)}, nil
}

func isIntegerLiteral(tok string) bool {
	digits := strings.TrimPrefix(tok, "-")
	if digits == "" {
		return false
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// floatKey renders integral floats as integer text so that 1.0 and 1
// share a key.
func floatKey(f float64) string {
	if !math.IsInf(f, 0) && f == math.Trunc(f) {
		n, _ := big.NewFloat(f).Int(nil)
		return n.String()
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// NewRaw stores nested JSON in compact form.
func NewRaw(raw []byte) (Value, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return Value{}, errors.Wrap(err, "invalid nested value")
	}
	return Value{kind: KindRaw, text: buf.String()}, nil
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

// String renders the value the way it is compared against record keys:
// strings verbatim, numbers as written, null as the empty string.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return v.text
	}
}

// Key is the set-membership identity of the value. Values of different
// kinds never share a key.
func (v Value) Key() string {
	switch v.kind {
	case KindNull:
		return "\x00"
	case KindString:
		return "s:" + v.text
	case KindNumber:
		return "n:" + v.nkey
	case KindBool:
		return "b:" + strconv.FormatBool(v.b)
	default:
		return "r:" + v.text
	}
}

func (v Value) Equal(o Value) bool { return v.Key() == o.Key() }

// Bool reports the payload of a boolean value.
func (v Value) Bool() (bool, bool) { return v.b, v.kind == KindBool }

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindString:
		return json.Marshal(v.text)
	case KindNumber, KindRaw:
		return []byte(v.text), nil
	case KindBool:
		return json.Marshal(v.b)
	}
	return nil, errors.Errorf("cannot marshal value of kind %s", v.kind)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := ParseJSON(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ParseJSON converts one encoded JSON value into a Value.
func ParseJSON(raw []byte) (Value, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return Value{}, errors.New("empty value")
	}
	switch trimmed[0] {
	case 'n':
		return Null(), nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(trimmed, &b); err != nil {
			return Value{}, errors.Wrap(err, "invalid boolean")
		}
		return NewBool(b), nil
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return Value{}, errors.Wrap(err, "invalid string")
		}
		return NewString(s), nil
	case '{', '[':
		return NewRaw(trimmed)
	default:
		return NewNumberToken(string(trimmed))
	}
}

// FromInterface converts a decoded YAML/JSON/SQL scalar into a Value.
func FromInterface(x interface{}) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case string:
		return NewString(t), nil
	case []byte:
		return NewString(string(t)), nil
	case bool:
		return NewBool(t), nil
	case int:
		return NewInt(int64(t)), nil
	case int32:
		return NewInt(int64(t)), nil
	case int64:
		return NewInt(t), nil
	case uint64:
		return NewUint(t), nil
	case float32:
		return NewNumber(float64(t)), nil
	case float64:
		return NewNumber(t), nil
	case json.Number:
		return NewNumberToken(t.String())
	case time.Time:
		return NewString(t.Format(time.RFC3339)), nil
	case fmt.Stringer:
		return NewString(t.String()), nil
	default:
		raw, err := json.Marshal(t)
		if err != nil {
			return Value{}, errors.Wrapf(err, "unsupported value of type %T", x)
		}
		return NewRaw(raw)
	}
}

// FormatValues joins values for log output.
func FormatValues(vals []Value) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		if v.kind == KindString {
			parts[i] = strconv.Quote(v.text)
		} else {
			parts[i] = v.String()
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
