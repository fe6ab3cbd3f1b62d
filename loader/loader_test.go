package loader

import (
	"slices"
	"sync"
	"testing"

	"github.com/dendrascience/arcalts/alts"
	"github.com/dendrascience/arcalts/arc"
	"github.com/dendrascience/arcalts/pathhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var (
	fox   = pathhash.New("fox")
	model = pathhash.New("stage/fox/normal/model")
)

func testLoader(t *testing.T) (*arc.Index, *alts.Manager, *Loader) {
	t.Helper()
	b := arc.NewBuilder()
	b.AddFile("stage/fox/normal/model/a.bin", []byte("a"))
	b.AddFile("stage/fox/normal/model/b.bin", []byte("b"))
	b.AddFile("stage/fox/normal_s01/model/c.bin", []byte("c1"))
	b.AddFile("stage/fox/normal_s01/model/b.bin", []byte("b"))
	b.AddFile("stage/fox/normal_s01/model/a.bin", []byte("a1"))
	idx := b.Build()

	log := zaptest.NewLogger(t)
	catalog := alts.BuildCatalog(idx, alts.CatalogOptions{Logger: log})
	mgr := alts.NewManager(idx, catalog, alts.WithLogger(log))
	return idx, mgr, New(mgr, log)
}

func fileIndex(t *testing.T, idx *arc.Index, p string) uint32 {
	t.Helper()
	i, err := idx.FilePathIndex(pathhash.New(p))
	require.NoError(t, err)
	return i
}

func TestLoadDir_Vanilla(t *testing.T) {
	idx, _, l := testLoader(t)

	got := l.LoadDir(model)
	assert.Equal(t, []uint32{
		fileIndex(t, idx, "stage/fox/normal/model/a.bin"),
		fileIndex(t, idx, "stage/fox/normal/model/b.bin"),
	}, got)
	assert.Equal(t, 2, l.Resident())
	for _, i := range got {
		assert.Equal(t, 1, l.Refs(i))
	}
}

func TestLoadDir_SubstitutesActiveAlt(t *testing.T) {
	idx, mgr, l := testLoader(t)
	vanilla := l.LoadDir(model)

	variant := []uint32{
		fileIndex(t, idx, "stage/fox/normal_s01/model/a.bin"),
		fileIndex(t, idx, "stage/fox/normal_s01/model/b.bin"),
		fileIndex(t, idx, "stage/fox/normal_s01/model/c.bin"),
	}

	mgr.SetSelectionCount(1)
	mgr.SetSelection(0, alts.Regular(fox, 1))
	require.Equal(t, 1, mgr.Advance(fox, false))

	got := l.LoadDir(model)
	assert.Equal(t, variant, got)
	assert.Equal(t, 3, l.Resident())
	for _, i := range vanilla {
		assert.Zero(t, l.Refs(i))
	}

	children, ok := l.Children(model)
	require.True(t, ok)
	assert.Equal(t, variant, children)
}

func TestLoadDir_ConcurrentAdvance(t *testing.T) {
	idx, mgr, l := testLoader(t)
	vanilla := []uint32{
		fileIndex(t, idx, "stage/fox/normal/model/a.bin"),
		fileIndex(t, idx, "stage/fox/normal/model/b.bin"),
	}
	variant := []uint32{
		fileIndex(t, idx, "stage/fox/normal_s01/model/a.bin"),
		fileIndex(t, idx, "stage/fox/normal_s01/model/b.bin"),
		fileIndex(t, idx, "stage/fox/normal_s01/model/c.bin"),
	}

	mgr.SetSelectionCount(2)
	mgr.SetSelection(0, alts.Regular(fox, 1))
	mgr.SetSelection(1, alts.Regular(fox, 0))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for range 200 {
			mgr.Advance(fox, false)
		}
	}()
	go func() {
		defer wg.Done()
		for range 200 {
			got := l.LoadDir(model)
			assert.True(t, slices.Equal(got, vanilla) || slices.Equal(got, variant), "mixed children %v", got)
		}
	}()
	wg.Wait()
}

func TestLoad_AcquiresBeforeRelease(t *testing.T) {
	_, _, l := testLoader(t)
	dir := pathhash.New("some/dir")

	l.Load(dir, []uint32{1, 2})
	l.Load(dir, []uint32{2, 3})

	assert.Zero(t, l.Refs(1))
	assert.Equal(t, 1, l.Refs(2))
	assert.Equal(t, 1, l.Refs(3))

	l.Load(dir, []uint32{2, 3})
	assert.Equal(t, 1, l.Refs(2))
	assert.Equal(t, 2, l.Resident())
}

func TestUnload(t *testing.T) {
	_, _, l := testLoader(t)
	one, two := pathhash.New("one"), pathhash.New("two")

	l.Load(one, []uint32{7, 8})
	l.Load(two, []uint32{8})
	assert.Equal(t, 2, l.Refs(8))

	l.Unload(one)
	assert.Zero(t, l.Refs(7))
	assert.Equal(t, 1, l.Refs(8))
	_, ok := l.Children(one)
	assert.False(t, ok)

	l.Unload(one)
	l.Unload(two)
	assert.Zero(t, l.Resident())
}
