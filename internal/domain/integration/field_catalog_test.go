package integration

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pimsync/backend/internal/domain/catalog"
)

func TestResolveField(t *testing.T) {
	t.Run("standard field", func(t *testing.T) {
		spec := ResolveField(FieldPrice)
		assert.Equal(t, "regular_price", spec.DefaultExternalName)
		assert.False(t, spec.Required)
	})

	t.Run("required fields", func(t *testing.T) {
		assert.True(t, ResolveField(FieldSKU).Required)
		assert.True(t, ResolveField(FieldName).Required)
	})

	t.Run("unknown name falls through as attribute", func(t *testing.T) {
		spec := ResolveField("warranty_months")
		assert.Equal(t, "warranty_months", spec.Name)
		assert.Equal(t, "warranty_months", spec.DefaultExternalName)
		assert.False(t, spec.Required)
	})
}

func TestIsStandardField(t *testing.T) {
	assert.True(t, IsStandardField(FieldSKU))
	assert.True(t, IsStandardField(FieldVariants))
	assert.False(t, IsStandardField("colour"))
}

func TestFieldSpec_Render(t *testing.T) {
	t.Run("numeric processor", func(t *testing.T) {
		spec := ResolveField(FieldPrice)
		assert.Equal(t, "19.99", spec.Render(catalog.StringValue("19.99")))
		assert.Equal(t, "0", spec.Render(catalog.StringValue("not a number")))
	})

	t.Run("identity by default", func(t *testing.T) {
		spec := ResolveField(FieldDescription)
		assert.Equal(t, "hello", spec.Render(catalog.StringValue("hello")))
	})
}

func TestProcessBoolean(t *testing.T) {
	assert.Equal(t, "true", ProcessBoolean(catalog.BoolValue(true)))
	assert.Equal(t, "false", ProcessBoolean(catalog.BoolValue(false)))
	assert.Equal(t, "true", ProcessBoolean(catalog.StringValue("Yes")))
	assert.Equal(t, "false", ProcessBoolean(catalog.StringValue("no")))
}

func TestProcessListJoin(t *testing.T) {
	assert.Equal(t, "red|green|blue", ProcessListJoin(catalog.ListValue([]string{"red", "green", "blue"})))
	assert.Equal(t, "solo", ProcessListJoin(catalog.StringValue("solo")))
}
