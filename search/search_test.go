package search

import (
	"testing"

	"github.com/dendrascience/arcalts/arc"
	"github.com/dendrascience/arcalts/pathhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stageIndex() *arc.Index {
	b := arc.NewBuilder()
	b.AddFile("stage/fox/normal/a.nutexb", []byte("a"))
	b.AddFile("stage/fox/normal/model/m1.numdlb", []byte("m1"))
	b.AddFile("stage/fox/normal/model/m2.numdlb", []byte("m2"))
	b.AddFile("stage/fox/normal/model/deep/d.bin", []byte("d"))
	b.AddFile("stage/fox/normal/param/p.prc", []byte("p"))
	b.AddFile("stage/fox/normal/b.nutexb", []byte("b"))

	// variant built in a different order, with one new file
	b.AddFile("stage/fox/normal_s01/extra.bin", []byte("x"))
	b.AddFile("stage/fox/normal_s01/b.nutexb", []byte("b2"))
	b.AddFile("stage/fox/normal_s01/model/m2.numdlb", []byte("m2'"))
	b.AddFile("stage/fox/normal_s01/model/m1.numdlb", []byte("m1'"))
	b.AddFile("stage/fox/normal_s01/a.nutexb", []byte("a2"))
	return b.Build()
}

func names(idx *arc.Index, entries []Entry) []string {
	var out []string
	for _, e := range entries {
		out = append(out, idx.Labels().Format(e.Path.FileName))
	}
	return out
}

func chain(idx *arc.Index, folder string) []string {
	return names(idx, Walk(idx, pathhash.New(folder), 1))
}

func TestWalk_Depth(t *testing.T) {
	idx := stageIndex()
	root := pathhash.New("stage/fox/normal")

	assert.Empty(t, Walk(idx, root, 0))
	assert.Empty(t, Walk(idx, root, -3))

	one := Walk(idx, root, 1)
	assert.Equal(t, []string{"a.nutexb", "model", "param", "b.nutexb"}, names(idx, one))
	for _, e := range one {
		assert.Empty(t, e.Children)
	}

	two := Walk(idx, root, 2)
	require.Len(t, two, 4)
	assert.Equal(t, []string{"m1.numdlb", "m2.numdlb", "deep"}, names(idx, two[1].Children))
	assert.Empty(t, two[1].Children[2].Children)
}

func TestWalk_MissingFolder(t *testing.T) {
	idx := stageIndex()
	assert.Empty(t, Walk(idx, pathhash.New("stage/fox/normal_s02"), 3))
	assert.Empty(t, Files(idx, pathhash.New("stage/fox/battle")))
	assert.Empty(t, CollectFolders(idx, pathhash.New("stage/nothing")))
}

func TestFlatten(t *testing.T) {
	idx := stageIndex()
	files := Flatten(Walk(idx, pathhash.New("stage/fox/normal"), 8))
	assert.Equal(t, []string{"a.nutexb", "m1.numdlb", "m2.numdlb", "d.bin", "p.prc", "b.nutexb"}, names(idx, files))
}

func TestDirectChildAndFiles(t *testing.T) {
	idx := stageIndex()
	folder := pathhash.New("stage/fox/normal")

	_, e, ok := DirectChild(idx, folder, pathhash.New("model"))
	require.True(t, ok)
	assert.True(t, e.IsDir)
	assert.Equal(t, pathhash.New("stage/fox/normal/model"), e.Path)

	_, _, ok = DirectChild(idx, folder, pathhash.New("m1.numdlb"))
	assert.False(t, ok)

	var got []string
	for _, f := range Files(idx, folder) {
		got = append(got, idx.Labels().Format(f.FileName))
	}
	assert.Equal(t, []string{"a.nutexb", "b.nutexb"}, got)
}

func TestCollectFolders(t *testing.T) {
	idx := stageIndex()
	got := CollectFolders(idx, pathhash.New("stage/fox/normal"))
	assert.Equal(t, []pathhash.Hash{
		pathhash.New("model"),
		pathhash.New("model/deep"),
		pathhash.New("param"),
	}, got)
}

func TestOrderFix(t *testing.T) {
	idx := stageIndex()
	src := pathhash.New("stage/fox/normal")
	dst := pathhash.New("stage/fox/normal_s01")

	require.Equal(t, []string{"extra.bin", "b.nutexb", "model", "a.nutexb"}, chain(idx, "stage/fox/normal_s01"))

	require.NoError(t, OrderFix(idx, src, dst))
	assert.Equal(t, []string{"a.nutexb", "model", "b.nutexb", "extra.bin"}, chain(idx, "stage/fox/normal_s01"))
	assert.Equal(t, []string{"m1.numdlb", "m2.numdlb"}, chain(idx, "stage/fox/normal_s01/model"))
	assert.Empty(t, idx.Validate())

	// base untouched
	assert.Equal(t, []string{"a.nutexb", "model", "param", "b.nutexb"}, chain(idx, "stage/fox/normal"))
}

func TestOrderFix_Idempotent(t *testing.T) {
	idx := stageIndex()
	src := pathhash.New("stage/fox/normal")
	dst := pathhash.New("stage/fox/normal_s01")

	require.NoError(t, OrderFix(idx, src, dst))
	first := idx.PathLinks()
	once := Walk(idx, dst, 3)

	require.NoError(t, OrderFix(idx, src, dst))
	assert.Equal(t, first, idx.PathLinks())
	assert.Equal(t, once, Walk(idx, dst, 3))
}

func TestOrderFix_MissingDestination(t *testing.T) {
	idx := stageIndex()
	before := Walk(idx, pathhash.New("stage/fox/normal"), 3)
	assert.NoError(t, OrderFix(idx, pathhash.New("stage/fox/normal"), pathhash.New("stage/fox/normal_s09")))
	assert.Equal(t, before, Walk(idx, pathhash.New("stage/fox/normal"), 3))
}
