package version

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 1, 15, 10, 30, 42, 0, time.UTC)

func TestParse(t *testing.T) {
	valid := []string{"v202401151030", "v202401151030-2", "v202401151030-10"}
	for _, s := range valid {
		_, err := Parse(s)
		assert.NoError(t, err, s)
	}

	invalid := []string{"", "202401151030", "v2024011510", "v202401151030-1", "v202401151030-x", "v202413151030", "v202401151030.md"}
	for _, s := range invalid {
		_, err := Parse(s)
		assert.Error(t, err, s)
	}
}

func TestTimestampAndSuffix(t *testing.T) {
	id := ID("v202401151030-3")
	ts, err := id.Timestamp()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC), ts)

	n, err := id.Suffix()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = ID("v202401151030").Suffix()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNew(t *testing.T) {
	assert.Equal(t, ID("v202401151030"), New(base, 0))
	assert.Equal(t, ID("v202401151030"), New(base, 1))
	assert.Equal(t, ID("v202401151030-2"), New(base, 2))
}

func TestNewStampsUTC(t *testing.T) {
	local := base.In(time.FixedZone("UTC+8", 8*60*60))
	assert.Equal(t, ID("v202401151030"), New(local, 0))

	ts, err := New(local, 0).Timestamp()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, ts.Location())
}

func TestSortNumeric(t *testing.T) {
	ids := []ID{"v202401151030-10", "v202401151031", "v202401151030", "v202401151030-9", "v202401151030-2"}
	Sort(ids)
	assert.Equal(t, []ID{"v202401151030", "v202401151030-2", "v202401151030-9", "v202401151030-10", "v202401151031"}, ids)
}

func TestAllocateMissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "John_Doe")

	alloc, err := Allocate(root, base)
	require.NoError(t, err)
	assert.Equal(t, ID("v202401151030"), alloc.ID)
	assert.Equal(t, filepath.Join(root, "v202401151030"), alloc.Dir)

	_, statErr := os.Stat(root)
	assert.True(t, os.IsNotExist(statErr), "allocation must not create anything")
}

func TestAllocateSameMinuteIsDistinct(t *testing.T) {
	root := t.TempDir()
	seen := map[ID]bool{}

	for i := 0; i < 12; i++ {
		alloc, err := Allocate(root, base.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
		require.False(t, seen[alloc.ID], "duplicate id %s", alloc.ID)
		seen[alloc.ID] = true
		require.NoError(t, os.Mkdir(alloc.Dir, 0o755))
	}

	ids, err := Existing(root)
	require.NoError(t, err)
	require.Len(t, ids, 12)
	assert.Equal(t, ID("v202401151030"), ids[0])
	assert.Equal(t, ID("v202401151030-12"), ids[11])
}

func TestAllocateIncompleteDirectoryOccupiesName(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "v202401151030"), 0o755))

	alloc, err := Allocate(root, base)
	require.NoError(t, err)
	assert.Equal(t, ID("v202401151030-2"), alloc.ID)
}

func TestAllocateClockSkew(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "v202401151200"), 0o755))

	alloc, err := Allocate(root, base)
	require.NoError(t, err)
	assert.Equal(t, ID("v202401151200-2"), alloc.ID)
	assert.Equal(t, 1, Compare(alloc.ID, "v202401151200"))
}

func TestAllocateIgnoresForeignEntries(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "notes"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "v209901010000"), []byte("file"), 0o600))

	alloc, err := Allocate(root, base)
	require.NoError(t, err)
	assert.Equal(t, ID("v202401151030"), alloc.ID)
}

func TestAllocateRootIsFile(t *testing.T) {
	root := filepath.Join(t.TempDir(), "profile")
	require.NoError(t, os.WriteFile(root, []byte("x"), 0o600))

	_, err := Allocate(root, base)
	require.Error(t, err)
	var pathErr *PathError
	assert.True(t, errors.As(err, &pathErr))
}
