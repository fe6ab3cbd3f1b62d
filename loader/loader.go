// Package loader tracks which files a directory load keeps resident and
// swaps a directory's children for the active alt's variant files.
package loader

import (
	"sync"

	"github.com/dendrascience/arcalts/alts"
	"github.com/dendrascience/arcalts/arc"
	"github.com/dendrascience/arcalts/internal/logging"
	"github.com/dendrascience/arcalts/internal/metrics"
	"github.com/dendrascience/arcalts/pathhash"
	"github.com/dendrascience/arcalts/search"
	"go.uber.org/zap"
)

// Loader reference counts file path indices across loaded directories.
type Loader struct {
	mgr *alts.Manager
	log *zap.Logger

	mu     sync.Mutex
	refs   map[uint32]int
	loaded map[pathhash.Hash][]uint32
}

// New returns a loader resolving directories against mgr's active alt.
func New(mgr *alts.Manager, log *zap.Logger) *Loader {
	return &Loader{
		mgr:    mgr,
		log:    logging.Or(log),
		refs:   make(map[uint32]int),
		loaded: make(map[pathhash.Hash][]uint32),
	}
}

// dirChildren returns the file path indices of the files directly under dir,
// resolved through the archive table as it currently stands.
func dirChildren(idx *arc.Index, dir pathhash.Hash) []uint32 {
	var out []uint32
	for _, f := range search.Files(idx, dir) {
		i, err := idx.FilePathIndex(f.Path)
		if err != nil {
			continue
		}
		out = append(out, i)
	}
	return out
}

// Load makes dir resident with children, or with the variant files when the
// active alt remaps dir, and returns the list that was made resident. The new
// list is acquired before the previous load of dir is released, so files
// shared by both never drop to zero references.
func (l *Loader) Load(dir pathhash.Hash, children []uint32) []uint32 {
	sub, ok := l.mgr.Substitute(dir)
	return l.load(dir, children, sub, ok)
}

func (l *Loader) load(dir pathhash.Hash, children []uint32, sub alts.Substitution, ok bool) []uint32 {
	resolved := children
	substituted := false
	if ok {
		resolved = sub.Indices
		substituted = true
		l.logSubstitution(dir, len(children), sub)
	}
	resolved = append([]uint32(nil), resolved...)

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, i := range resolved {
		l.refs[i]++
	}
	if prev, ok := l.loaded[dir]; ok {
		l.release(prev)
	}
	l.loaded[dir] = resolved

	metrics.RecordResolve(substituted)
	metrics.SetResident(len(l.refs))
	return resolved
}

// LoadDir loads dir with its own children. The children and the
// substitution are read together, so an alt change cannot fall between them.
func (l *Loader) LoadDir(dir pathhash.Hash) []uint32 {
	children, sub, ok := l.mgr.Resolve(dir, func(idx *arc.Index) []uint32 {
		return dirChildren(idx, dir)
	})
	return l.load(dir, children, sub, ok)
}

func (l *Loader) logSubstitution(dir pathhash.Hash, before int, sub alts.Substitution) {
	var label string
	l.mgr.View(func(idx *arc.Index) {
		label = idx.Labels().Format(dir)
	})
	l.log.Debug("substituting directory children",
		zap.String("dir", label),
		zap.Int("alt", sub.Folder.AltNo),
		zap.Int("vanilla_children", before),
		zap.Int("alt_children", len(sub.Indices)),
		zap.Int("shared", sub.Shared))
}

// Unload releases everything dir holds.
func (l *Loader) Unload(dir pathhash.Hash) {
	l.mu.Lock()
	defer l.mu.Unlock()
	prev, ok := l.loaded[dir]
	if !ok {
		return
	}
	l.release(prev)
	delete(l.loaded, dir)
	metrics.SetResident(len(l.refs))
}

func (l *Loader) release(children []uint32) {
	for _, i := range children {
		switch n := l.refs[i]; {
		case n <= 1:
			delete(l.refs, i)
		default:
			l.refs[i] = n - 1
		}
	}
}

// Children returns what dir currently holds.
func (l *Loader) Children(dir pathhash.Hash) ([]uint32, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.loaded[dir]
	return append([]uint32(nil), c...), ok
}

// Refs returns the reference count of file path index i.
func (l *Loader) Refs(i uint32) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.refs[i]
}

// Resident returns the number of file path indices with references.
func (l *Loader) Resident() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.refs)
}
