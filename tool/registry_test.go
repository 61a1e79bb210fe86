package tool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoTool(name string) Tool {
	return NewFuncTool(name, "echo "+name, map[string]any{"type": "object"},
		func(_ context.Context, _ map[string]any) (string, error) { return name, nil })
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("a")))

	err := r.Register(echoTool("a"))
	assert.ErrorIs(t, err, ErrDuplicateTool)
	assert.Equal(t, 1, r.Len())
}

func TestRegistryGetUnknown(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("missing")
	assert.ErrorIs(t, err, ErrUnknownTool)
}

func TestRegistrySpecsPreserveRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(echoTool("c"), echoTool("a"), echoTool("b"))

	specs := r.Specs()
	require.Len(t, specs, 3)
	assert.Equal(t, "c", specs[0].Name)
	assert.Equal(t, "a", specs[1].Name)
	assert.Equal(t, "b", specs[2].Name)
}

func TestRegistryMustRegisterPanicsOnDuplicate(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(echoTool("a"))
	assert.Panics(t, func() { r.MustRegister(echoTool("a")) })
}
