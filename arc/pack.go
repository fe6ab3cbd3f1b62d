package arc

import (
	"archive/zip"
	"bufio"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const (
	manifestName = "manifest.json"
	metadataName = "metadata.json"
	blockDir     = "blocks/"
)

// ManifestEntry is one path of a packed archive, in insertion order.
type ManifestEntry struct {
	Path  string `json:"path"`
	Dir   bool   `json:"dir,omitempty"`
	Block string `json:"block,omitempty"`
}

// Manifest lists every path of a packed archive. Order is significant: it is
// the order children were added and therefore the sibling chain order.
type Manifest struct {
	Entries []ManifestEntry `json:"entries"`
}

// Manifest returns the builder's entries in insertion order.
func (b *Builder) Manifest() Manifest {
	sums := make(map[uint32]string, len(b.blockBySum))
	for sum, block := range b.blockBySum {
		sums[block] = sum
	}
	m := Manifest{Entries: make([]ManifestEntry, 0, len(b.entries))}
	for _, e := range b.entries {
		me := ManifestEntry{Path: e.path, Dir: e.isDir}
		if !e.isDir {
			me.Block = sums[e.block]
		}
		m.Entries = append(m.Entries, me)
	}
	return m
}

func checkArczPath(p string) error {
	if filepath.Ext(p) != ".arcz" {
		return ErrNotArczExtension
	}
	return nil
}

// Pack writes the builder's content to an .arcz file at dest. Each distinct
// data block is stored once under blocks/<sha256>.
func (b *Builder) Pack(dest string) (Metadata, error) {
	if err := checkArczPath(dest); err != nil {
		return Metadata{}, err
	}
	os.Remove(dest)
	file, err := os.Create(dest)
	if err != nil {
		return Metadata{}, err
	}
	defer file.Close()

	w := zip.NewWriter(file)
	manifest := b.Manifest()

	written := make(map[string]bool)
	for _, e := range manifest.Entries {
		if e.Dir || written[e.Block] {
			continue
		}
		written[e.Block] = true
		data := b.blocks[b.blockBySum[e.Block]]
		writer, err := w.Create(blockDir + e.Block)
		if err != nil {
			return Metadata{}, err
		}
		if _, err := writer.Write(data); err != nil {
			return Metadata{}, err
		}
	}

	if err := writeJSON(w, manifestName, manifest); err != nil {
		return Metadata{}, err
	}
	meta := b.Metadata()
	if err := writeJSON(w, metadataName, meta); err != nil {
		return Metadata{}, err
	}
	if err := w.Close(); err != nil {
		return Metadata{}, err
	}

	stat, err := file.Stat()
	if err != nil {
		return Metadata{}, err
	}
	meta.CompressedSize = int(stat.Size())
	return meta, nil
}

func writeJSON(w *zip.Writer, name string, v any) error {
	writer, err := w.Create(name)
	if err != nil {
		return err
	}
	je := json.NewEncoder(writer)
	je.SetIndent("", "  ")
	return je.Encode(v)
}

// Load reads an .arcz file and rebuilds its index, preserving the packed
// child order.
func Load(p string) (*Index, Metadata, error) {
	b, meta, err := loadBuilder(p)
	if err != nil {
		return nil, Metadata{}, err
	}
	return b.Build(), meta, nil
}

// loadBuilder reads an .arcz file back into a builder in manifest order.
func loadBuilder(p string) (*Builder, Metadata, error) {
	if err := checkArczPath(p); err != nil {
		return nil, Metadata{}, err
	}
	zrc, err := zip.OpenReader(p)
	if err != nil {
		return nil, Metadata{}, err
	}
	defer zrc.Close()

	var manifest Manifest
	if err := readJSON(&zrc.Reader, manifestName, &manifest); err != nil {
		return nil, Metadata{}, fmt.Errorf("read manifest: %w", err)
	}
	var meta Metadata
	if err := readJSON(&zrc.Reader, metadataName, &meta); err != nil {
		return nil, Metadata{}, fmt.Errorf("read metadata: %w", err)
	}

	b := NewBuilder()
	for _, e := range manifest.Entries {
		if e.Dir {
			b.AddDir(e.Path)
			continue
		}
		data, err := readBlock(&zrc.Reader, e.Block)
		if err != nil {
			return nil, Metadata{}, fmt.Errorf("%s: %w", e.Path, err)
		}
		b.AddFile(e.Path, data)
	}
	return b, meta, nil
}

func readJSON(r *zip.Reader, name string, v any) error {
	f, err := r.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewDecoder(bufio.NewReader(f)).Decode(v)
}

func readBlock(r *zip.Reader, sum string) ([]byte, error) {
	f, err := r.Open(path.Join("blocks", sum))
	if err != nil {
		return nil, fmt.Errorf("block %s: %w", sum, ErrBlockMissing)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	if got := fmt.Sprintf("%x", sha256.Sum256(data)); got != sum {
		return nil, fmt.Errorf("block %s has checksum %s", sum, got)
	}
	return data, nil
}

// CountBlocks returns the number of data blocks stored in an .arcz file.
func CountBlocks(p string) (int, error) {
	zrc, err := zip.OpenReader(p)
	if err != nil {
		return 0, err
	}
	defer zrc.Close()
	n := 0
	for _, f := range zrc.File {
		if strings.HasPrefix(f.Name, blockDir) && f.Name != blockDir {
			n++
		}
	}
	return n, nil
}
