package runtime

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_Attach_Detach(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	c1 := newFakeConnection("c1", "alice")
	c2 := newFakeConnection("c2", "")

	// Given no connection
	req.Empty(registry.All())

	// When two connections attach
	registry.Attach(c2)
	registry.Attach(c1)

	// Then they are resolvable and ordered
	conn, ok := registry.Get("c1")
	req.True(ok)
	req.Equal(c1, conn)
	req.Len(registry.All(), 2)
	req.Equal("c1", registry.All()[0].ID())

	// When one detaches
	registry.Detach("c1")
	_, ok = registry.Get("c1")
	req.False(ok)
	req.Len(registry.All(), 1)
}
