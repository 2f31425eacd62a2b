package catalog

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ValueKind discriminates the possible shapes of an attribute value
type ValueKind int

const (
	KindString ValueKind = iota
	KindNumber
	KindBool
	KindList
	KindRaw
)

// AttributeValue is a tagged union over the value shapes a product attribute
// can carry. Exactly one of the value fields is meaningful, selected by kind.
type AttributeValue struct {
	kind ValueKind
	str  string
	num  decimal.Decimal
	b    bool
	list []string
	raw  json.RawMessage
}

// StringValue creates a string attribute value
func StringValue(s string) AttributeValue {
	return AttributeValue{kind: KindString, str: s}
}

// NumberValue creates a numeric attribute value
func NumberValue(d decimal.Decimal) AttributeValue {
	return AttributeValue{kind: KindNumber, num: d}
}

// BoolValue creates a boolean attribute value
func BoolValue(b bool) AttributeValue {
	return AttributeValue{kind: KindBool, b: b}
}

// ListValue creates a list attribute value
func ListValue(items []string) AttributeValue {
	copied := make([]string, len(items))
	copy(copied, items)
	return AttributeValue{kind: KindList, list: copied}
}

// RawValue creates a raw-JSON attribute value for shapes the union does not model
func RawValue(raw json.RawMessage) AttributeValue {
	return AttributeValue{kind: KindRaw, raw: raw}
}

// ParseAttributeValue coerces a raw string into the most specific value kind:
// number, boolean, delimited list, then string fallback.
func ParseAttributeValue(raw string) AttributeValue {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return StringValue("")
	}
	if d, err := decimal.NewFromString(trimmed); err == nil {
		return NumberValue(d)
	}
	switch strings.ToLower(trimmed) {
	case "true", "yes":
		return BoolValue(true)
	case "false", "no":
		return BoolValue(false)
	}
	if strings.Contains(trimmed, "|") {
		parts := strings.Split(trimmed, "|")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return ListValue(parts)
	}
	return StringValue(raw)
}

// Kind returns the discriminator of this value
func (v AttributeValue) Kind() ValueKind {
	return v.kind
}

// IsZero reports whether the value is the empty string value
func (v AttributeValue) IsZero() bool {
	return v.kind == KindString && v.str == ""
}

// AsString renders the value as a string regardless of kind. Lists are joined
// with "|", raw JSON is returned verbatim.
func (v AttributeValue) AsString() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num.String()
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindList:
		return strings.Join(v.list, "|")
	case KindRaw:
		return string(v.raw)
	default:
		return ""
	}
}

// AsNumber returns the numeric value, coercing strings where possible
func (v AttributeValue) AsNumber() (decimal.Decimal, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindString:
		d, err := decimal.NewFromString(strings.TrimSpace(v.str))
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	default:
		return decimal.Zero, false
	}
}

// AsBool returns the boolean value, coercing common string forms
func (v AttributeValue) AsBool() (bool, bool) {
	switch v.kind {
	case KindBool:
		return v.b, true
	case KindString:
		switch strings.ToLower(strings.TrimSpace(v.str)) {
		case "true", "yes", "1":
			return true, true
		case "false", "no", "0":
			return false, true
		}
	case KindNumber:
		return !v.num.IsZero(), true
	}
	return false, false
}

// AsList returns the list items; scalar values become a one-element list
func (v AttributeValue) AsList() []string {
	switch v.kind {
	case KindList:
		copied := make([]string, len(v.list))
		copy(copied, v.list)
		return copied
	default:
		s := v.AsString()
		if s == "" {
			return nil
		}
		return []string{s}
	}
}

// Equal reports whether two values are equal after string normalization.
// Numeric values compare by decimal equality so "19.9" equals "19.90".
func (v AttributeValue) Equal(other AttributeValue) bool {
	if v.kind == KindNumber && other.kind == KindNumber {
		return v.num.Equal(other.num)
	}
	return v.AsString() == other.AsString()
}

// Attribute is a named attribute-value pair on a product or variant
type Attribute struct {
	Name  string
	Value AttributeValue
}

// NormalizeName lower-cases and trims an attribute name for case-insensitive lookup
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// AttributeMap is a typed key-value lookup over normalized attribute names,
// built once per transform invocation.
type AttributeMap map[string]AttributeValue

// BuildAttributeMap indexes a list of attributes by normalized name.
// The first occurrence of a name wins.
func BuildAttributeMap(attrs []Attribute) AttributeMap {
	m := make(AttributeMap, len(attrs))
	for _, a := range attrs {
		key := NormalizeName(a.Name)
		if _, exists := m[key]; !exists {
			m[key] = a.Value
		}
	}
	return m
}

// Lookup performs a case-insensitive attribute lookup
func (m AttributeMap) Lookup(name string) (AttributeValue, bool) {
	v, ok := m[NormalizeName(name)]
	return v, ok
}
