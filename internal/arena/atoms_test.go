package arena_test

import (
	"testing"

	"github.com/forthen-lang/forthen/internal/arena"
	"github.com/stretchr/testify/require"
)

func Test_Atoms(t *testing.T) {
	var a arena.Atoms
	a.PageSize = 4

	require.Equal(t, uint(0), a.Len())
	require.Nil(t, a.Get(0), "unallocated id must read as nil")

	id0 := a.Alloc("row:a")
	id1 := a.Alloc("item:b")
	require.Equal(t, uint(0), id0)
	require.Equal(t, uint(1), id1)
	require.Equal(t, uint(2), a.Len())

	require.Equal(t, "row:a", a.Get(id0))
	require.Equal(t, "item:b", a.Get(id1))

	a.Set(id0, "row:a'")
	require.Equal(t, "row:a'", a.Get(id0))

	// force growth across several pages
	var ids []uint
	for i := 0; i < 32; i++ {
		ids = append(ids, a.Alloc(i))
	}
	for i, id := range ids {
		require.Equal(t, i, a.Get(id))
	}
}

func Test_Atoms_Limit(t *testing.T) {
	var a arena.Atoms
	a.PageSize = 4
	a.Limit = 2
	a.Alloc(1)
	a.Alloc(2)
	require.Panics(t, func() { a.Alloc(3) })
}
