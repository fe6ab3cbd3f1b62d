package arc

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dendrascience/arcalts/pathhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPack_ExtensionCheck(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{name: "valid .arcz extension", path: "data.arcz"},
		{name: "valid .arcz with path", path: "out/data.arcz"},
		{name: "missing dot in extension", path: "dataarcz", wantErr: true},
		{name: "wrong extension", path: "data.zip", wantErr: true},
		{name: "no extension", path: "data", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkArczPath(tt.path)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrNotArczExtension))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestPackLoad_PreservesOrderAndContent(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "stages.arcz")
	b := sampleBuilder()

	meta, err := b.Pack(dest)
	require.NoError(t, err)
	assert.Equal(t, 5, meta.FileCount)
	assert.Equal(t, 4, meta.BlockCount)
	assert.Positive(t, meta.CompressedSize)

	blocks, err := CountBlocks(dest)
	require.NoError(t, err)
	assert.Equal(t, 4, blocks)

	idx, loaded, err := Load(dest)
	require.NoError(t, err)
	assert.Equal(t, meta.FileCount, loaded.FileCount)
	assert.Empty(t, idx.Validate())

	assert.Equal(t, []string{"sky.nutexb", "plate.nutexb"}, childNames(t, idx, "stage/fox/normal_s01/model"))
	data, err := idx.ReadFile(pathhash.New("stage/fox/normal/param/light.prc"))
	require.NoError(t, err)
	assert.Equal(t, "light", string(data))

	first, err := idx.FirstChild(pathhash.New("stage/common"))
	require.NoError(t, err)
	assert.Equal(t, NoIndex, first)
}

func TestLoad_MissingBlock(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "broken.arcz")
	f, err := os.Create(dest)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	require.NoError(t, writeJSON(w, manifestName, Manifest{Entries: []ManifestEntry{
		{Path: "stage/fox/normal/a.bin", Block: "deadbeef"},
	}}))
	require.NoError(t, writeJSON(w, metadataName, Metadata{}))
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	_, _, err = Load(dest)
	assert.True(t, errors.Is(err, ErrBlockMissing))
}

func TestMetadata_Save(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, sampleBuilder().Metadata().Save(dir))
	_, err := os.Stat(filepath.Join(dir, metadataName))
	assert.NoError(t, err)
}
