package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// TestResolve_ConcurrentCallsAreDeterministic exercises the claim behind
// Resolve's by-value visited set: many goroutines resolving the same name
// against one shared Registry must never observe a
// partially-mutated visited chain from another goroutine's recursion.
func TestResolve_ConcurrentCallsAreDeterministic(t *testing.T) {
	data := []byte(`{
		"a": {"environment": ["b", "shared.json"]},
		"b": {"environment": ["c", "shared.json"]},
		"c": {"environment": ["leaf.json"]}
	}`)
	reg, err := parseCommandsJSON(data, t.TempDir(), "")
	require.NoError(t, err)

	want, err := reg.Resolve("a")
	require.NoError(t, err)

	g, ctx := errgroup.WithContext(context.Background())
	results := make([][]ResolvedEnvRef, 64)
	for i := 0; i < 64; i++ {
		i := i
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			got, err := reg.Resolve("a")
			if err != nil {
				return err
			}
			results[i] = got
			return nil
		})
	}
	require.NoError(t, g.Wait())

	for i, got := range results {
		assert.Equalf(t, want, got, "goroutine %d produced a divergent resolution", i)
	}
}
