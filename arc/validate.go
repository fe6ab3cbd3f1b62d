package arc

import (
	"fmt"
	"slices"
)

func tableSorted(t []HashToIndex) bool {
	return slices.IsSortedFunc(t, func(a, b HashToIndex) int {
		switch {
		case a.Hash < b.Hash:
			return -1
		case a.Hash > b.Hash:
			return 1
		}
		return 0
	})
}

// Validate checks the structural invariants of the index and returns one
// message per problem found. An empty result means the index is consistent.
func (idx *Index) Validate() []string {
	var errors []string

	if !tableSorted(idx.pathToIndex) {
		errors = append(errors, "search index table is not sorted by hash")
	}
	if !tableSorted(idx.folderPathToIndex) {
		errors = append(errors, "folder index table is not sorted by hash")
	}
	for slot, e := range idx.pathToIndex {
		if int(e.Index) >= len(idx.pathList) {
			errors = append(errors, fmt.Sprintf("search slot %d (%s) points past path list: %d", slot, idx.labels.Format(e.Hash), e.Index))
		}
	}

	total := uint32(0)
	for bk, b := range idx.buckets {
		if b.Start != total {
			errors = append(errors, fmt.Sprintf("bucket %d starts at %d, expected %d", bk, b.Start, total))
		}
		total += b.Count
		if int(b.Start+b.Count) > len(idx.fileHashToPathIndex) {
			errors = append(errors, fmt.Sprintf("bucket %d overruns archive table", bk))
			continue
		}
		entries := idx.fileHashToPathIndex[b.Start : b.Start+b.Count]
		if !tableSorted(entries) {
			errors = append(errors, fmt.Sprintf("bucket %d is not sorted by hash", bk))
		}
		for _, e := range entries {
			if got := bucketFor(e.Hash, len(idx.buckets)); got != bk {
				errors = append(errors, fmt.Sprintf("%s stored in bucket %d, hashes to %d", idx.labels.Format(e.Hash), bk, got))
			}
			if int(e.Index) >= len(idx.filePaths) {
				errors = append(errors, fmt.Sprintf("archive entry %s points past file paths: %d", idx.labels.Format(e.Hash), e.Index))
			}
		}
	}
	for i, fp := range idx.filePaths {
		if int(fp.Link) >= len(idx.blocks) {
			errors = append(errors, fmt.Sprintf("file path %d (%s) links to missing block %d", i, idx.labels.Format(fp.Path), fp.Link))
		}
	}

	for _, f := range idx.folderList {
		seen := make(map[uint32]bool)
		for cur := f.FirstChild; cur != NoIndex; {
			if seen[cur] {
				errors = append(errors, fmt.Sprintf("folder %s has a cycle in its child chain at %d", idx.labels.Format(f.Path), cur))
				break
			}
			seen[cur] = true
			e, ok := idx.Path(cur)
			if !ok {
				errors = append(errors, fmt.Sprintf("folder %s child chain points past path list: %d", idx.labels.Format(f.Path), cur))
				break
			}
			if e.Parent != f.Path {
				errors = append(errors, fmt.Sprintf("folder %s chains to %s whose parent is %s", idx.labels.Format(f.Path), idx.labels.Format(e.Path), idx.labels.Format(e.Parent)))
			}
			cur = e.Next
		}
	}

	return errors
}
