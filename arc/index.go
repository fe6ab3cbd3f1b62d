package arc

import (
	"fmt"
	"slices"

	"github.com/dendrascience/arcalts/pathhash"
	"github.com/taigrr/colorhash"
)

// NoIndex terminates sibling chains and marks empty folders.
const NoIndex uint32 = 0xFF_FFFF

type (
	// HashToIndex is one slot of a hash-indexed table. Index is the mutable
	// joint that lookups resolve to.
	HashToIndex struct {
		Hash  pathhash.Hash `json:"hash"`
		Index uint32        `json:"index"`
	}

	// FilePath is an archive-side file record. Link points at the data block;
	// two paths with the same Link share storage.
	FilePath struct {
		Path     pathhash.Hash
		Parent   pathhash.Hash
		FileName pathhash.Hash
		Ext      pathhash.Hash
		Link     uint32
	}

	// Bucket is a contiguous, hash-sorted run of the archive link table.
	Bucket struct {
		Start uint32
		Count uint32
	}

	// PathEntry is a search-side record for a file or folder. Next is the
	// sibling link: the path list index of the following child, or NoIndex.
	PathEntry struct {
		Path     pathhash.Hash
		Parent   pathhash.Hash
		FileName pathhash.Hash
		Ext      pathhash.Hash
		IsDir    bool
		Next     uint32
	}

	// FolderEntry holds a folder's first-child link into the path list.
	FolderEntry struct {
		Path       pathhash.Hash
		FirstChild uint32
	}
)

// Index is the in-memory virtual filesystem index. It has two independent
// sections: the archive section (file paths, bucketed hash→file path table
// and data blocks) and the search section (path list with sibling links,
// hash→path table and folder list). Entries live in fixed arenas addressed
// by stable integer indices; patching only ever rewrites stored indices.
//
// Index does no locking of its own.
type Index struct {
	filePaths           []FilePath
	fileHashToPathIndex []HashToIndex
	buckets             []Bucket
	blocks              [][]byte

	pathList          []PathEntry
	pathToIndex       []HashToIndex
	folderList        []FolderEntry
	folderPathToIndex []HashToIndex

	labels *pathhash.Labels
}

// Labels returns the names recorded while building the index.
func (idx *Index) Labels() *pathhash.Labels {
	return idx.labels
}

// bucketFor picks the archive bucket for a hash. The bucket is derived from a
// color hash of the hex form, the same scheme the content store uses for its
// hash path buckets.
func bucketFor(h pathhash.Hash, buckets int) int {
	if buckets <= 1 {
		return 0
	}
	return int(uint32(colorhash.HashString(h.String())) % uint32(buckets))
}

func searchTable(table []HashToIndex, h pathhash.Hash) (int, bool) {
	return slices.BinarySearchFunc(table, h, func(e HashToIndex, target pathhash.Hash) int {
		switch {
		case e.Hash < target:
			return -1
		case e.Hash > target:
			return 1
		}
		return 0
	})
}

// Archive section

// FilePathCount returns the number of archive file paths.
func (idx *Index) FilePathCount() int {
	return len(idx.filePaths)
}

// FilePath returns the archive file path at index i.
func (idx *Index) FilePath(i uint32) (FilePath, error) {
	if int(i) >= len(idx.filePaths) {
		return FilePath{}, fmt.Errorf("file path %d: %w", i, ErrIndexOutOfRange)
	}
	return idx.filePaths[i], nil
}

// FileLinkSlot locates h in its bucket of the archive link table and returns
// the absolute slot.
func (idx *Index) FileLinkSlot(h pathhash.Hash) (int, error) {
	if len(idx.buckets) == 0 {
		return 0, fmt.Errorf("file %s: %w", h, ErrMissing)
	}
	b := idx.buckets[bucketFor(h, len(idx.buckets))]
	bucket := idx.fileHashToPathIndex[b.Start : b.Start+b.Count]
	i, ok := searchTable(bucket, h)
	if !ok {
		return 0, fmt.Errorf("file %s: %w", h, ErrMissing)
	}
	return int(b.Start) + i, nil
}

// FilePathIndex resolves h through the archive link table.
func (idx *Index) FilePathIndex(h pathhash.Hash) (uint32, error) {
	slot, err := idx.FileLinkSlot(h)
	if err != nil {
		return 0, err
	}
	return idx.fileHashToPathIndex[slot].Index, nil
}

// FileLink returns the data block link of the file path h resolves to.
func (idx *Index) FileLink(h pathhash.Hash) (uint32, error) {
	i, err := idx.FilePathIndex(h)
	if err != nil {
		return 0, err
	}
	fp, err := idx.FilePath(i)
	if err != nil {
		return 0, err
	}
	return fp.Link, nil
}

// ReadFile returns the content h resolves to through the archive link table.
func (idx *Index) ReadFile(h pathhash.Hash) ([]byte, error) {
	link, err := idx.FileLink(h)
	if err != nil {
		return nil, err
	}
	if int(link) >= len(idx.blocks) {
		return nil, fmt.Errorf("file %s block %d: %w", h, link, ErrBlockMissing)
	}
	return idx.blocks[link], nil
}

// FileLinks returns a copy of the archive link table.
func (idx *Index) FileLinks() []HashToIndex {
	return slices.Clone(idx.fileHashToPathIndex)
}

// SetFileLink overwrites the stored file path index at slot.
func (idx *Index) SetFileLink(slot int, value uint32) error {
	if slot < 0 || slot >= len(idx.fileHashToPathIndex) {
		return fmt.Errorf("archive slot %d: %w", slot, ErrSlotOutOfRange)
	}
	idx.fileHashToPathIndex[slot].Index = value
	return nil
}

// BlockCount returns the number of distinct data blocks.
func (idx *Index) BlockCount() int {
	return len(idx.blocks)
}

// Search section

// PathCount returns the number of search path entries.
func (idx *Index) PathCount() int {
	return len(idx.pathList)
}

// Path returns the search entry at index i.
func (idx *Index) Path(i uint32) (PathEntry, bool) {
	if int(i) >= len(idx.pathList) {
		return PathEntry{}, false
	}
	return idx.pathList[i], true
}

// PathSlot returns the slot of h in the search index table.
func (idx *Index) PathSlot(h pathhash.Hash) (int, error) {
	i, ok := searchTable(idx.pathToIndex, h)
	if !ok {
		return 0, fmt.Errorf("path %s: %w", h, ErrMissing)
	}
	return i, nil
}

// PathIndex resolves h through the search index table.
func (idx *Index) PathIndex(h pathhash.Hash) (uint32, error) {
	slot, err := idx.PathSlot(h)
	if err != nil {
		return 0, err
	}
	return idx.pathToIndex[slot].Index, nil
}

// PathEntryFromHash resolves h through the search index table.
func (idx *Index) PathEntryFromHash(h pathhash.Hash) (PathEntry, error) {
	i, err := idx.PathIndex(h)
	if err != nil {
		return PathEntry{}, err
	}
	e, ok := idx.Path(i)
	if !ok {
		return PathEntry{}, fmt.Errorf("path %s entry %d: %w", h, i, ErrIndexOutOfRange)
	}
	return e, nil
}

// PathLinks returns a copy of the search index table.
func (idx *Index) PathLinks() []HashToIndex {
	return slices.Clone(idx.pathToIndex)
}

// SetPathLink overwrites the stored path list index at slot.
func (idx *Index) SetPathLink(slot int, value uint32) error {
	if slot < 0 || slot >= len(idx.pathToIndex) {
		return fmt.Errorf("search slot %d: %w", slot, ErrSlotOutOfRange)
	}
	idx.pathToIndex[slot].Index = value
	return nil
}

// SetNext rewrites the sibling link of the entry at index i.
func (idx *Index) SetNext(i, next uint32) error {
	if int(i) >= len(idx.pathList) {
		return fmt.Errorf("path entry %d: %w", i, ErrIndexOutOfRange)
	}
	idx.pathList[i].Next = next
	return nil
}

func (idx *Index) folderSlot(h pathhash.Hash) (int, error) {
	i, ok := searchTable(idx.folderPathToIndex, h)
	if !ok {
		return 0, fmt.Errorf("folder %s: %w", h, ErrMissing)
	}
	f := idx.folderPathToIndex[i].Index
	if f == NoIndex || int(f) >= len(idx.folderList) {
		return 0, fmt.Errorf("folder %s: %w", h, ErrMissing)
	}
	return int(f), nil
}

// Folder returns the folder entry for h.
func (idx *Index) Folder(h pathhash.Hash) (FolderEntry, error) {
	f, err := idx.folderSlot(h)
	if err != nil {
		return FolderEntry{}, err
	}
	return idx.folderList[f], nil
}

// FolderCount returns the number of folders including the root.
func (idx *Index) FolderCount() int {
	return len(idx.folderList)
}

// FirstChild returns the first-child link of folder h.
func (idx *Index) FirstChild(h pathhash.Hash) (uint32, error) {
	f, err := idx.Folder(h)
	if err != nil {
		return NoIndex, err
	}
	return f.FirstChild, nil
}

// SetFirstChild rewrites the first-child link of folder h.
func (idx *Index) SetFirstChild(h pathhash.Hash, first uint32) error {
	f, err := idx.folderSlot(h)
	if err != nil {
		return err
	}
	idx.folderList[f].FirstChild = first
	return nil
}
