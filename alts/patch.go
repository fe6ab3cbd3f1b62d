package alts

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/dendrascience/arcalts/arc"
	"github.com/dendrascience/arcalts/internal/metrics"
	"github.com/dendrascience/arcalts/pathhash"
	"github.com/dendrascience/arcalts/search"
)

// Table names one of the two hash tables an alt patches.
type Table int

const (
	// ArchiveTable is the bucketed path to file path index table.
	ArchiveTable Table = iota
	// SearchTable is the path to path list index table.
	SearchTable
)

func (t Table) String() string {
	if t == SearchTable {
		return "search"
	}
	return "archive"
}

// Patch overwrites the stored index at one slot of a table.
type Patch struct {
	Table Table
	Slot  int
	Value uint32
	Path  pathhash.Hash
}

// PatchSet is an ordered list of slot writes, sorted by table then slot.
type PatchSet []Patch

// Snapshot holds the values of both tables before any patch was applied.
// Reverts always restore these values, never the ones of a previous alt.
type Snapshot struct {
	archive map[pathhash.Hash]uint32
	search  map[pathhash.Hash]uint32
}

// TakeSnapshot captures the current values of both tables. It must be called
// once, before anything is patched.
func TakeSnapshot(idx *arc.Index) *Snapshot {
	s := &Snapshot{
		archive: make(map[pathhash.Hash]uint32, idx.FilePathCount()),
		search:  make(map[pathhash.Hash]uint32, idx.PathCount()),
	}
	for _, e := range idx.FileLinks() {
		s.archive[e.Hash] = e.Index
	}
	for _, e := range idx.PathLinks() {
		s.search[e.Hash] = e.Index
	}
	return s
}

// Lookup returns the pristine value stored for h in table t.
func (s *Snapshot) Lookup(t Table, h pathhash.Hash) (uint32, bool) {
	var v uint32
	var ok bool
	switch t {
	case ArchiveTable:
		v, ok = s.archive[h]
	case SearchTable:
		v, ok = s.search[h]
	}
	return v, ok
}

// BuildPatches computes the writes that make alt active and the writes that
// undo them. For every mapped folder pair, each file directly under the
// variant folder redirects the same-named base file to the variant. Files
// missing from a table on either side are skipped.
//
// It only reads the search section's sibling chains and the snapshot, so it
// gives the same result whether or not another alt is currently applied.
func BuildPatches(idx *arc.Index, snap *Snapshot, alt *StageAlt) (apply, revert PatchSet) {
	if alt == nil {
		return nil, nil
	}

	type key struct {
		table Table
		slot  int
	}
	seen := make(map[key]bool)

	add := func(t Table, slot int, base, variant pathhash.Hash) {
		k := key{t, slot}
		if seen[k] {
			return
		}
		value, ok := snap.Lookup(t, variant)
		if !ok {
			metrics.RecordPatchSkipped(t.String())
			return
		}
		pristine, ok := snap.Lookup(t, base)
		if !ok {
			metrics.RecordPatchSkipped(t.String())
			return
		}
		seen[k] = true
		apply = append(apply, Patch{Table: t, Slot: slot, Value: value, Path: base})
		revert = append(revert, Patch{Table: t, Slot: slot, Value: pristine, Path: base})
	}

	for _, pair := range alt.Folders() {
		if pair.Base == pair.Variant {
			continue
		}
		for _, f := range search.Files(idx, pair.Variant) {
			base := pair.Base.Join(f.FileName)
			variant := pair.Variant.Join(f.FileName)

			if slot, err := idx.FileLinkSlot(base); err == nil {
				add(ArchiveTable, slot, base, variant)
			} else {
				metrics.RecordPatchSkipped(ArchiveTable.String())
			}
			if slot, err := idx.PathSlot(base); err == nil {
				add(SearchTable, slot, base, variant)
			} else {
				metrics.RecordPatchSkipped(SearchTable.String())
			}
		}
	}

	sortPatches(apply)
	sortPatches(revert)
	return apply, revert
}

func sortPatches(ps PatchSet) {
	slices.SortFunc(ps, func(a, b Patch) int {
		if c := cmp.Compare(a.Table, b.Table); c != 0 {
			return c
		}
		return cmp.Compare(a.Slot, b.Slot)
	})
}

// Count returns the number of writes per table.
func (ps PatchSet) Count(t Table) int {
	n := 0
	for _, p := range ps {
		if p.Table == t {
			n++
		}
	}
	return n
}

// Mutator is the only writer of the index's hash tables.
type Mutator struct {
	idx *arc.Index
}

// NewMutator returns a mutator for idx.
func NewMutator(idx *arc.Index) *Mutator {
	return &Mutator{idx: idx}
}

// Apply writes every patch of ps. op labels the writes in metrics. A failed
// write stops the set and is returned; earlier writes stay applied.
func (m *Mutator) Apply(ps PatchSet, op string) error {
	for _, p := range ps {
		var err error
		switch p.Table {
		case ArchiveTable:
			err = m.idx.SetFileLink(p.Slot, p.Value)
		case SearchTable:
			err = m.idx.SetPathLink(p.Slot, p.Value)
		default:
			err = fmt.Errorf("unknown table %d", p.Table)
		}
		if err != nil {
			return fmt.Errorf("%s %s slot %d: %w", op, p.Table, p.Slot, err)
		}
	}
	metrics.RecordPatch(ArchiveTable.String(), op, ps.Count(ArchiveTable))
	metrics.RecordPatch(SearchTable.String(), op, ps.Count(SearchTable))
	return nil
}
