package providers

//go:generate mockgen -source=provider.go -destination=mocks/mocks.go -package=mocks Provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"namecheck/internal/ownercheck/models"
	"namecheck/pkg/platform/circuit"
)

type namedProvider string

func (p namedProvider) ID() string                  { return string(p) }
func (p namedProvider) Login(context.Context) error { return nil }
func (p namedProvider) LookupOwnerName(context.Context, string, string) (string, error) {
	return "", nil
}
func (p namedProvider) CheckOwnerName(context.Context, string, string, string) models.OwnerResult {
	return models.Match(string(p))
}

func TestRegistry(t *testing.T) {
	t.Run("keeps registration order and rejects duplicates", func(t *testing.T) {
		reg := NewRegistry()
		require.NoError(t, reg.Register(namedProvider("ACB")))
		require.NoError(t, reg.Register(namedProvider("Techcombank")))
		assert.Error(t, reg.Register(namedProvider("ACB")))

		all := reg.All()
		require.Len(t, all, 2)
		assert.Equal(t, "ACB", all[0].ID())
		assert.Equal(t, "Techcombank", all[1].ID())
		assert.Equal(t, 2, reg.Len())

		p, ok := reg.Get("Techcombank")
		require.True(t, ok)
		assert.Equal(t, "Techcombank", p.ID())
		_, ok = reg.Get("MBBank")
		assert.False(t, ok)
	})

	t.Run("unavailable results open the breaker and decisive ones close it", func(t *testing.T) {
		reg := NewRegistry(circuit.WithFailureThreshold(2), circuit.WithSuccessThreshold(1))
		require.NoError(t, reg.Register(namedProvider("ACB")))
		require.NoError(t, reg.Register(namedProvider("Techcombank")))

		assert.False(t, reg.Observe(models.Unavailable("ACB", "timeout")).Opened)
		assert.True(t, reg.Observe(models.Unavailable("ACB", "timeout")).Opened)
		assert.Equal(t, circuit.StateOpen, reg.BreakerState("ACB"))

		healthy, degraded := reg.Healthy()
		require.Len(t, healthy, 1)
		require.Len(t, degraded, 1)
		assert.Equal(t, "Techcombank", healthy[0].ID())
		assert.Equal(t, "ACB", degraded[0].ID())

		assert.True(t, reg.Observe(models.Mismatch("ACB", "NGUYEN VAN A")).Closed)
		assert.Equal(t, circuit.StateClosed, reg.BreakerState("ACB"))
	})

	t.Run("results from unknown adapters are ignored", func(t *testing.T) {
		reg := NewRegistry()
		assert.Equal(t, circuit.StateChange{}, reg.Observe(models.Unavailable("ghost", "x")))
		assert.Equal(t, circuit.StateClosed, reg.BreakerState("ghost"))
	})
}
