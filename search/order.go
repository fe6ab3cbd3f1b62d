package search

import (
	"fmt"

	"github.com/dendrascience/arcalts/arc"
	"github.com/dendrascience/arcalts/pathhash"
)

// OrderFix rewrites the sibling chain of dst so children that share a name
// with a child of src appear in src's order, followed by dst's remaining
// children in their existing relative order. Matching subfolders are fixed
// the same way. Running it again on a fixed pair leaves the chains unchanged.
//
// A dst that is missing, or a src with no children, is left alone.
func OrderFix(t Tree, src, dst pathhash.Hash) error {
	type pair struct{ src, dst pathhash.Hash }

	stack := []pair{{src, dst}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, err := t.FirstChild(p.dst); err != nil {
			continue
		}
		srcKids := children(t, p.src)
		if len(srcKids) == 0 {
			continue
		}

		var ordered []uint32
		placed := make(map[uint32]bool)
		for _, i := range srcKids {
			se, _ := t.Path(i)
			di, de, ok := DirectChild(t, p.dst, se.FileName)
			if !ok || placed[di] {
				continue
			}
			ordered = append(ordered, di)
			placed[di] = true
			if se.IsDir && de.IsDir {
				stack = append(stack, pair{se.Path, de.Path})
			}
		}
		for _, i := range children(t, p.dst) {
			if !placed[i] {
				ordered = append(ordered, i)
				placed[i] = true
			}
		}

		if err := relink(t, p.dst, ordered); err != nil {
			return fmt.Errorf("order fix %s: %w", p.dst, err)
		}
	}
	return nil
}

func relink(t Tree, folder pathhash.Hash, ordered []uint32) error {
	if len(ordered) == 0 {
		return t.SetFirstChild(folder, arc.NoIndex)
	}
	if err := t.SetFirstChild(folder, ordered[0]); err != nil {
		return err
	}
	for k := 1; k < len(ordered); k++ {
		if err := t.SetNext(ordered[k-1], ordered[k]); err != nil {
			return err
		}
	}
	return t.SetNext(ordered[len(ordered)-1], arc.NoIndex)
}
