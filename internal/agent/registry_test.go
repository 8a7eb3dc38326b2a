package agent

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janschaeferjohann/seriem-agent/errors"
)

func TestRegistryRegisterAndDescriptors(t *testing.T) {
	r := NewRegistry()
	r.Register(Tool{Name: "beta", Description: "second"})
	r.Register(Tool{Name: "alpha", Description: "first"})

	descs := r.Descriptors()
	require.Len(t, descs, 2)
	// Registration order, not alphabetical
	assert.Equal(t, "beta", descs[0].Name)
	assert.Equal(t, "alpha", descs[1].Name)

	t.Run("re-register replaces in place", func(t *testing.T) {
		r.Register(Tool{Name: "beta", Description: "updated"})
		descs := r.Descriptors()
		require.Len(t, descs, 2)
		assert.Equal(t, "beta", descs[0].Name)
		assert.Equal(t, "updated", descs[0].Description)
	})
}

func TestRegistryDispatch(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry()
	r.Register(Tool{
		Name: "greet",
		Handler: func(_ context.Context, args map[string]any) (string, error) {
			return fmt.Sprintf("hello %v", args["who"]), nil
		},
	})
	r.Register(Tool{
		Name: "plain_failure",
		Handler: func(_ context.Context, _ map[string]any) (string, error) {
			return "", fmt.Errorf("disk on fire")
		},
	})
	r.Register(Tool{
		Name: "structured_failure",
		Handler: func(_ context.Context, _ map[string]any) (string, error) {
			return "", errors.AmbiguousEdit("main.py", 3)
		},
	})

	t.Run("result passes through", func(t *testing.T) {
		got := r.Dispatch(ctx, "greet", map[string]any{"who": "world"})
		assert.Equal(t, "hello world", got)
	})

	t.Run("unknown tool", func(t *testing.T) {
		got := r.Dispatch(ctx, "no_such_tool", nil)
		assert.Equal(t, "Error: unknown tool 'no_such_tool'", got)
	})

	t.Run("plain error is folded", func(t *testing.T) {
		got := r.Dispatch(ctx, "plain_failure", nil)
		assert.Equal(t, "Error: disk on fire", got)
	})

	t.Run("structured error folds without code prefix", func(t *testing.T) {
		got := r.Dispatch(ctx, "structured_failure", nil)
		assert.Equal(t, "Error: Found 3 occurrences of the text. Please provide more context to make it unique.", got)
	})
}

func TestDecodeArgs(t *testing.T) {
	type target struct {
		Path      string `json:"path"`
		Recursive bool   `json:"recursive"`
		Limit     int    `json:"limit"`
	}

	t.Run("typed values", func(t *testing.T) {
		var out target
		err := decodeArgs(map[string]any{"path": "a/b", "recursive": true, "limit": 3}, &out)
		require.NoError(t, err)
		assert.Equal(t, target{Path: "a/b", Recursive: true, Limit: 3}, out)
	})

	t.Run("weak typing tolerates model quirks", func(t *testing.T) {
		var out target
		// JSON numbers arrive as float64, booleans sometimes as strings
		err := decodeArgs(map[string]any{"recursive": "true", "limit": float64(7)}, &out)
		require.NoError(t, err)
		assert.True(t, out.Recursive)
		assert.Equal(t, 7, out.Limit)
	})

	t.Run("unknown keys are ignored", func(t *testing.T) {
		var out target
		err := decodeArgs(map[string]any{"path": "x", "surprise": "y"}, &out)
		require.NoError(t, err)
		assert.Equal(t, "x", out.Path)
	})
}
