package arc

import (
	"cmp"
	"crypto/sha256"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dendrascience/arcalts/pathhash"
)

// FilesPerBucket is the target number of archive link table entries per
// bucket.
const FilesPerBucket = 32

type builderEntry struct {
	path   string
	hash   pathhash.Hash
	parent pathhash.Hash
	name   pathhash.Hash
	ext    pathhash.Hash
	isDir  bool
	block  uint32
}

// Builder assembles an Index. Children are linked in insertion order, so a
// builder fed out of order produces out-of-order sibling chains the same way
// independently packed content does.
type Builder struct {
	labels     *pathhash.Labels
	entries    []builderEntry
	byPath     map[pathhash.Hash]int
	children   map[pathhash.Hash][]int
	blocks     [][]byte
	blockBySum map[string]uint32
}

// NewBuilder returns an empty builder holding only the root folder.
func NewBuilder() *Builder {
	return &Builder{
		labels:     pathhash.NewLabels(),
		byPath:     make(map[pathhash.Hash]int),
		children:   make(map[pathhash.Hash][]int),
		blockBySum: make(map[string]uint32),
	}
}

func cleanArcPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = path.Clean("/" + p)
	return pathhash.Lower(strings.TrimPrefix(p, "/"))
}

// AddDir registers a folder and any missing ancestors, returning its hash.
func (b *Builder) AddDir(p string) pathhash.Hash {
	p = cleanArcPath(p)
	if p == "" || p == "." {
		return pathhash.Empty
	}
	h := pathhash.New(p)
	if i, ok := b.byPath[h]; ok && b.entries[i].isDir {
		return h
	}
	parent := b.AddDir(path.Dir(p))
	b.add(builderEntry{
		path:   p,
		hash:   b.labels.Add(p),
		parent: parent,
		name:   b.labels.Add(path.Base(p)),
		isDir:  true,
		block:  NoIndex,
	})
	return h
}

// AddFile registers a file and its folders. Identical content is stored once
// and every path holding it shares the block.
func (b *Builder) AddFile(p string, data []byte) pathhash.Hash {
	p = cleanArcPath(p)
	parent := b.AddDir(path.Dir(p))
	name := path.Base(p)
	h := pathhash.New(p)
	if _, ok := b.byPath[h]; ok {
		return h
	}

	sum := fmt.Sprintf("%x", sha256.Sum256(data))
	block, ok := b.blockBySum[sum]
	if !ok {
		block = uint32(len(b.blocks))
		b.blocks = append(b.blocks, slices.Clone(data))
		b.blockBySum[sum] = block
	}

	var ext pathhash.Hash
	if e := path.Ext(name); e != "" {
		ext = b.labels.Add(strings.TrimPrefix(e, "."))
	}

	b.add(builderEntry{
		path:   p,
		hash:   b.labels.Add(p),
		parent: parent,
		name:   b.labels.Add(name),
		ext:    ext,
		block:  block,
	})
	return h
}

func (b *Builder) add(e builderEntry) {
	i := len(b.entries)
	b.entries = append(b.entries, e)
	b.byPath[e.hash] = i
	b.children[e.parent] = append(b.children[e.parent], i)
}

// Build lays out the arenas and sorted tables. The builder may keep being
// used afterwards; each Build returns an independent Index.
func (b *Builder) Build() *Index {
	idx := &Index{labels: b.labels}

	// search section: path list in insertion order
	idx.pathList = make([]PathEntry, len(b.entries))
	idx.pathToIndex = make([]HashToIndex, len(b.entries))
	for i, e := range b.entries {
		idx.pathList[i] = PathEntry{
			Path:     e.hash,
			Parent:   e.parent,
			FileName: e.name,
			Ext:      e.ext,
			IsDir:    e.isDir,
			Next:     NoIndex,
		}
		idx.pathToIndex[i] = HashToIndex{Hash: e.hash, Index: uint32(i)}
	}
	sortTable(idx.pathToIndex)

	folders := []pathhash.Hash{pathhash.Empty}
	for _, e := range b.entries {
		if e.isDir {
			folders = append(folders, e.hash)
		}
	}
	idx.folderList = make([]FolderEntry, len(folders))
	idx.folderPathToIndex = make([]HashToIndex, len(folders))
	for f, h := range folders {
		first := NoIndex
		kids := b.children[h]
		for k, child := range kids {
			if k == 0 {
				first = uint32(child)
			}
			if k+1 < len(kids) {
				idx.pathList[child].Next = uint32(kids[k+1])
			}
		}
		idx.folderList[f] = FolderEntry{Path: h, FirstChild: first}
		idx.folderPathToIndex[f] = HashToIndex{Hash: h, Index: uint32(f)}
	}
	sortTable(idx.folderPathToIndex)

	// archive section
	for _, e := range b.entries {
		if e.isDir {
			continue
		}
		idx.filePaths = append(idx.filePaths, FilePath{
			Path:     e.hash,
			Parent:   e.parent,
			FileName: e.name,
			Ext:      e.ext,
			Link:     e.block,
		})
	}
	idx.blocks = slices.Clone(b.blocks)

	bucketCount := 1 + len(idx.filePaths)/FilesPerBucket
	grouped := make([][]HashToIndex, bucketCount)
	for i, fp := range idx.filePaths {
		bk := bucketFor(fp.Path, bucketCount)
		grouped[bk] = append(grouped[bk], HashToIndex{Hash: fp.Path, Index: uint32(i)})
	}
	idx.buckets = make([]Bucket, bucketCount)
	for bk, entries := range grouped {
		sortTable(entries)
		idx.buckets[bk] = Bucket{Start: uint32(len(idx.fileHashToPathIndex)), Count: uint32(len(entries))}
		idx.fileHashToPathIndex = append(idx.fileHashToPathIndex, entries...)
	}

	return idx
}

func sortTable(t []HashToIndex) {
	slices.SortFunc(t, func(a, b HashToIndex) int {
		return cmp.Compare(a.Hash, b.Hash)
	})
}

// FromDir builds an index from a directory tree. Children are added in
// lexical order, matching how a packed archive lists vanilla content.
func FromDir(root string) (*Index, error) {
	b := NewBuilder()
	if err := b.AddTree(root); err != nil {
		return nil, err
	}
	return b.Build(), nil
}

// AddTree walks root and adds every folder and file beneath it.
func (b *Builder) AddTree(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return ErrNotDirectory
	}
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == root {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return fmt.Errorf("failed to get relative path: %w", err)
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			b.AddDir(rel)
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		b.AddFile(rel, data)
		return nil
	})
}
