// Package search walks the search section of the archive index: folder
// children reached through first-child and sibling links.
//
// Every walk tolerates missing folders. A folder that does not exist simply
// has no children, which lets callers probe for numbered variants without
// checking first.
package search

import (
	"github.com/dendrascience/arcalts/arc"
	"github.com/dendrascience/arcalts/pathhash"
)

// Section is the read side of the search section.
type Section interface {
	FirstChild(folder pathhash.Hash) (uint32, error)
	Path(i uint32) (arc.PathEntry, bool)
}

// Tree is a Section whose sibling chains can be rewritten.
type Tree interface {
	Section
	SetFirstChild(folder pathhash.Hash, first uint32) error
	SetNext(i, next uint32) error
}

// Entry is one node of a walk. Children is only populated for folders.
type Entry struct {
	Index    uint32
	Path     arc.PathEntry
	Children []Entry
}

// IsDir reports whether the entry is a folder.
func (e Entry) IsDir() bool { return e.Path.IsDir }

// children returns the path list indices chained from folder, in sibling
// order. A chain that revisits an index is cut at the repeat.
func children(s Section, folder pathhash.Hash) []uint32 {
	first, err := s.FirstChild(folder)
	if err != nil {
		return nil
	}
	var out []uint32
	seen := make(map[uint32]bool)
	for cur := first; cur != arc.NoIndex && !seen[cur]; {
		e, ok := s.Path(cur)
		if !ok {
			break
		}
		seen[cur] = true
		out = append(out, cur)
		cur = e.Next
	}
	return out
}

// Walk returns the children of folder down to depth levels. A depth of 1
// lists the direct children only; depth <= 0 returns nothing.
func Walk(s Section, folder pathhash.Hash, depth int) []Entry {
	if depth <= 0 {
		return nil
	}
	var out []Entry
	for _, i := range children(s, folder) {
		e, _ := s.Path(i)
		entry := Entry{Index: i, Path: e}
		if e.IsDir {
			entry.Children = Walk(s, e.Path, depth-1)
		}
		out = append(out, entry)
	}
	return out
}

// Flatten returns the files of a walk depth-first, keeping sibling order.
func Flatten(entries []Entry) []Entry {
	var out []Entry
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, Flatten(e.Children)...)
			continue
		}
		out = append(out, e)
	}
	return out
}

// DirectChild returns the first child of folder whose file name is name.
func DirectChild(s Section, folder, name pathhash.Hash) (uint32, arc.PathEntry, bool) {
	for _, i := range children(s, folder) {
		e, _ := s.Path(i)
		if e.FileName == name {
			return i, e, true
		}
	}
	return arc.NoIndex, arc.PathEntry{}, false
}

// Files returns the direct file children of folder.
func Files(s Section, folder pathhash.Hash) []arc.PathEntry {
	var out []arc.PathEntry
	for _, i := range children(s, folder) {
		if e, _ := s.Path(i); !e.IsDir {
			out = append(out, e)
		}
	}
	return out
}

// CollectFolders returns every folder below root as a path relative to root,
// parents before their children and siblings in chain order.
func CollectFolders(s Section, root pathhash.Hash) []pathhash.Hash {
	type frame struct {
		abs pathhash.Hash
		rel pathhash.Hash
	}

	push := func(stack []frame, abs, rel pathhash.Hash) []frame {
		var subs []frame
		for _, i := range children(s, abs) {
			if e, _ := s.Path(i); e.IsDir {
				subs = append(subs, frame{abs: e.Path, rel: rel.Join(e.FileName)})
			}
		}
		for k := len(subs) - 1; k >= 0; k-- {
			stack = append(stack, subs[k])
		}
		return stack
	}

	var out []pathhash.Hash
	stack := push(nil, root, pathhash.Empty)
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, f.rel)
		stack = push(stack, f.abs, f.rel)
	}
	return out
}
