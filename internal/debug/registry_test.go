package debug

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryDump(t *testing.T) {
	r := NewRegistry()
	calls := 0
	require.NoError(t, r.Register("controller", SnapshotFunc(func() interface{} {
		calls++
		return map[string]int{"seq": calls}
	})))
	require.NoError(t, r.Register("list", SnapshotFunc(func() interface{} { return "ok" })))

	require.Equal(t, []string{"controller", "list"}, r.Names())
	dump := r.Dump()
	require.Equal(t, map[string]int{"seq": 1}, dump["controller"])
	require.Equal(t, "ok", dump["list"])

	require.NoError(t, r.Register("list", SnapshotFunc(func() interface{} { return "replaced" })))
	require.Equal(t, []string{"controller", "list"}, r.Names())
	require.Equal(t, "replaced", r.Dump()["list"])
}

func TestRegistryRejectsBadEntries(t *testing.T) {
	r := NewRegistry()
	require.Error(t, r.Register("", SnapshotFunc(func() interface{} { return nil })))
	require.Error(t, r.Register("x", nil))
	require.Empty(t, r.Dump())
}

func TestNilRegistry(t *testing.T) {
	var r *Registry
	require.NoError(t, r.Register("x", SnapshotFunc(func() interface{} { return 1 })))
	require.Nil(t, r.Dump())
	require.Nil(t, r.Names())
}
