package integration

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/pimsync/backend/internal/domain/catalog"
)

// ---------------------------------------------------------------------------
// Field names
// ---------------------------------------------------------------------------

// Standard internal field names. Anything outside this set is treated as a
// product attribute and resolved through the attribute index.
const (
	FieldSKU         = "sku"
	FieldName        = "name"
	FieldDescription = "description"
	FieldPrice       = "price"
	FieldWeight      = "weight"
	FieldCategory    = "category"
	FieldImages      = "images"
	FieldVariants    = "variants"
)

// ---------------------------------------------------------------------------
// Value processors
// ---------------------------------------------------------------------------

// ValueProcessor converts an internal attribute value into the wire
// representation a platform expects. Processors never fail; unconvertible
// values fall back to their string form.
type ValueProcessor func(v catalog.AttributeValue) string

// ProcessIdentity renders the value as-is
func ProcessIdentity(v catalog.AttributeValue) string {
	return v.AsString()
}

// ProcessNumeric renders the value as a plain decimal string, defaulting
// to "0" when the value is not numeric
func ProcessNumeric(v catalog.AttributeValue) string {
	if n, ok := v.AsNumber(); ok {
		return n.String()
	}
	if n, err := decimal.NewFromString(strings.TrimSpace(v.AsString())); err == nil {
		return n.String()
	}
	return "0"
}

// ProcessBoolean renders the value as "true"/"false"
func ProcessBoolean(v catalog.AttributeValue) string {
	if b, ok := v.AsBool(); ok {
		if b {
			return "true"
		}
		return "false"
	}
	switch strings.ToLower(strings.TrimSpace(v.AsString())) {
	case "1", "yes", "y", "true":
		return "true"
	default:
		return "false"
	}
}

// ProcessListJoin renders a list value as a pipe-delimited string
func ProcessListJoin(v catalog.AttributeValue) string {
	if items := v.AsList(); len(items) > 0 {
		return strings.Join(items, "|")
	}
	return v.AsString()
}

// ---------------------------------------------------------------------------
// Field catalog
// ---------------------------------------------------------------------------

// FieldSpec describes one standard field: its default external name and how
// its value is rendered for the wire.
type FieldSpec struct {
	// Name is the internal field name
	Name string
	// DefaultExternalName is used when the active mapping carries no
	// correspondence entry for this field
	DefaultExternalName string
	// Required marks fields an export mapping can never omit
	Required bool
	// Processor renders the field value; nil means identity
	Processor ValueProcessor
}

// standardFields is the catalog of well-known internal fields, keyed by name
var standardFields = map[string]FieldSpec{
	FieldSKU:         {Name: FieldSKU, DefaultExternalName: "sku", Required: true},
	FieldName:        {Name: FieldName, DefaultExternalName: "name", Required: true},
	FieldDescription: {Name: FieldDescription, DefaultExternalName: "description"},
	FieldPrice:       {Name: FieldPrice, DefaultExternalName: "regular_price", Processor: ProcessNumeric},
	FieldWeight:      {Name: FieldWeight, DefaultExternalName: "weight", Processor: ProcessNumeric},
	FieldCategory:    {Name: FieldCategory, DefaultExternalName: "categories"},
	FieldImages:      {Name: FieldImages, DefaultExternalName: "images"},
	FieldVariants:    {Name: FieldVariants, DefaultExternalName: "variations"},
}

// IsStandardField reports whether the name is a well-known field rather than
// a product attribute
func IsStandardField(name string) bool {
	_, ok := standardFields[name]
	return ok
}

// ResolveField returns the spec for a field name. Unknown names resolve to a
// pass-through attribute spec under the same name, so a selection can freely
// mix standard fields and attributes.
func ResolveField(name string) FieldSpec {
	if spec, ok := standardFields[name]; ok {
		return spec
	}
	return FieldSpec{Name: name, DefaultExternalName: name}
}

// RequiredFields lists the field names every export mapping must include
func RequiredFields() []string {
	return []string{FieldSKU, FieldName}
}

// Render applies the field's processor to the value
func (s FieldSpec) Render(v catalog.AttributeValue) string {
	if s.Processor == nil {
		return ProcessIdentity(v)
	}
	return s.Processor(v)
}
