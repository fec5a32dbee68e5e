package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderSetsMetadata(t *testing.T) {
	t.Parallel()

	err := Newf("something broke: %d", 42).
		Component("weather").
		Category(CategoryNetwork).
		Context("lat", -0.23).
		Build()

	assert.Equal(t, "something broke: 42", err.Error())
	assert.Equal(t, "weather", err.Component)
	assert.Equal(t, string(CategoryNetwork), err.GetCategory())
	assert.Equal(t, -0.23, err.GetContext()["lat"])
	assert.False(t, err.Timestamp.IsZero())
}

func TestBuilderDefaults(t *testing.T) {
	t.Parallel()

	err := Newf("bare").Build()
	assert.Equal(t, ComponentUnknown, err.Component)
	assert.Equal(t, string(CategoryGeneric), err.GetCategory())
	assert.Nil(t, err.GetContext())
}

func TestBuildPassesThroughEnhancedError(t *testing.T) {
	t.Parallel()

	inner := Newf("original").Component("model").Category(CategoryModelLoad).Build()

	rewrapped := New(inner).Build()
	assert.Same(t, inner, rewrapped)

	// Adding metadata creates a new enhanced error instead.
	annotated := New(inner).Context("path", "model.json").Build()
	assert.NotSame(t, inner, annotated)
	assert.Equal(t, "model.json", annotated.GetContext()["path"])
}

func TestUnwrapPreservesSentinels(t *testing.T) {
	t.Parallel()

	sentinel := NewStd("upstream unavailable")
	err := New(fmt.Errorf("%w: connection refused", sentinel)).
		Component("weather").
		Category(CategoryNetwork).
		Build()

	assert.ErrorIs(t, err, sentinel)

	var enhanced *EnhancedError
	require.ErrorAs(t, fmt.Errorf("handler: %w", err), &enhanced)
	assert.Equal(t, "weather", enhanced.Component)
}

func TestGetContextReturnsCopy(t *testing.T) {
	t.Parallel()

	err := Newf("x").Context("key", "value").Build()
	ctx := err.GetContext()
	ctx["key"] = "mutated"

	assert.Equal(t, "value", err.GetContext()["key"])
}

func TestLogAttrsFlattensMetadata(t *testing.T) {
	t.Parallel()

	err := Newf("x").Component("risk").Category(CategoryDatabase).Context("date", "2026-08-28").Build()
	attrs := err.LogAttrs()

	assert.Contains(t, attrs, "component")
	assert.Contains(t, attrs, "risk")
	assert.Contains(t, attrs, "date")
	assert.Contains(t, attrs, "2026-08-28")
}
