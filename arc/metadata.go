package arc

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dendrascience/arcalts/version"
)

type Metadata struct {
	ArcaltsVersion   string    `json:"arcalts_version"`
	PackedAt         time.Time `json:"packed_at"`
	CompressedSize   int       `json:"compressed_size"`
	FileCount        int       `json:"file_count"`
	FolderCount      int       `json:"folder_count"`
	BlockCount       int       `json:"block_count"`
	UncompressedSize int       `json:"uncompressed_size"`
}

// Metadata summarizes the builder's content. CompressedSize is 0 until the
// content has been packed.
func (b *Builder) Metadata() Metadata {
	m := Metadata{
		ArcaltsVersion: version.GetVersion(),
		PackedAt:       time.Now().UTC(),
		BlockCount:     len(b.blocks),
	}
	for _, e := range b.entries {
		if e.isDir {
			m.FolderCount++
			continue
		}
		m.FileCount++
	}
	for _, data := range b.blocks {
		m.UncompressedSize += len(data)
	}
	return m
}

func (m Metadata) Save(path string) error {
	if !strings.HasSuffix(path, ".json") {
		path = filepath.Join(path, metadataName)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	je := json.NewEncoder(f)
	je.SetIndent("", "  ")
	return je.Encode(m)
}
