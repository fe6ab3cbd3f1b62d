// Package alts discovers stage alts in the archive index and switches the
// active one by patching the index's hash tables.
//
// The catalog is built once, up front. After that the Manager owns the only
// Mutator, so at most one alt's patches are ever live and reverting always
// restores the values captured before the first patch.
package alts

import (
	"cmp"
	"fmt"
	"maps"
	"slices"

	"github.com/dendrascience/arcalts/pathhash"
)

// UI texture slots of a stage alt.
const (
	UILoading = iota
	UIPreview
	UINormal
	UIEnd
	UIBattle

	uiSlots
)

// SelectionKind says how a session slot picks its alt.
type SelectionKind int

const (
	SelectionInvalid SelectionKind = iota
	SelectionRandom
	SelectionRegular
)

func (k SelectionKind) String() string {
	switch k {
	case SelectionRandom:
		return "random"
	case SelectionRegular:
		return "regular"
	default:
		return "invalid"
	}
}

// Selection is what the UI chose for one upcoming stage of a session. The
// zero value is an invalid selection.
type Selection struct {
	Kind  SelectionKind
	Stage pathhash.Hash
	Alt   int
}

// Random picks any eligible alt of the incoming stage.
var Random = Selection{Kind: SelectionRandom}

// Invalid marks a slot the UI never filled in.
var Invalid = Selection{}

// Regular selects alt of stage.
func Regular(stage pathhash.Hash, alt int) Selection {
	return Selection{Kind: SelectionRegular, Stage: stage, Alt: alt}
}

func (s Selection) String() string {
	switch s.Kind {
	case SelectionRegular:
		return fmt.Sprintf("%s @ alt #%d", s.Stage, s.Alt)
	case SelectionRandom:
		return "Random"
	default:
		return "Invalid"
	}
}

// SharedLink records the data block links of a base file and its variant
// that the unmodified archive deduplicated.
type SharedLink struct {
	Base    uint32 `yaml:"base" json:"base"`
	Variant uint32 `yaml:"variant" json:"variant"`
}

// FolderPair maps a base folder to the folder that replaces it.
type FolderPair struct {
	Base    pathhash.Hash
	Variant pathhash.Hash
}

// StageAlt is one selectable alt of a stage. It is never modified after the
// catalog is built and is shared by pointer.
type StageAlt struct {
	Stage   pathhash.Hash
	Ordinal int

	// AltFolders maps every overridden base folder to its variant folder.
	// Folders missing from the map keep resolving to base content.
	AltFolders map[pathhash.Hash]pathhash.Hash

	// SharingBase lists base files whose variant shares a data block with
	// them in the unmodified archive.
	SharingBase map[pathhash.Hash]SharedLink

	UIPaths [uiSlots]pathhash.Hash

	NormalWifiSafe bool
	NormalIgnore   bool
	BattleWifiSafe bool
	BattleIgnore   bool
}

// WifiSafe reports whether the alt may be used online in the given form.
func (a *StageAlt) WifiSafe(isBattle bool) bool {
	if isBattle {
		return a.BattleWifiSafe
	}
	return a.NormalWifiSafe
}

// Ignored reports whether random selection must skip the alt in the given
// form.
func (a *StageAlt) Ignored(isBattle bool) bool {
	if isBattle {
		return a.BattleIgnore
	}
	return a.NormalIgnore
}

// Folders returns the folder mapping sorted by base hash.
func (a *StageAlt) Folders() []FolderPair {
	pairs := make([]FolderPair, 0, len(a.AltFolders))
	for _, base := range slices.Sorted(maps.Keys(a.AltFolders)) {
		pairs = append(pairs, FolderPair{Base: base, Variant: a.AltFolders[base]})
	}
	return pairs
}

// StageAltInfo lists the alts of one stage. Alts[0] is always vanilla.
type StageAltInfo struct {
	Name         pathhash.Hash
	Folder       pathhash.Hash
	NormalFolder pathhash.Hash
	BattleFolder pathhash.Hash
	HasBattle    bool
	Alts         []*StageAlt
}

// Alt returns the alt with the given ordinal.
func (i *StageAltInfo) Alt(ordinal int) (*StageAlt, bool) {
	if i == nil || ordinal < 0 || ordinal >= len(i.Alts) {
		return nil, false
	}
	return i.Alts[ordinal], true
}

// Catalog maps stage names to their alts.
type Catalog map[pathhash.Hash]*StageAltInfo

// Stages returns the catalog's stages sorted by name hash.
func (c Catalog) Stages() []*StageAltInfo {
	out := slices.Collect(maps.Values(c))
	slices.SortFunc(out, func(a, b *StageAltInfo) int { return cmp.Compare(a.Name, b.Name) })
	return out
}

// AltCount returns the number of discovered alts, not counting vanilla.
func (c Catalog) AltCount() int {
	n := 0
	for _, info := range c {
		if len(info.Alts) > 1 {
			n += len(info.Alts) - 1
		}
	}
	return n
}

// AltFolder is one variant folder as the content loader sees it.
type AltFolder struct {
	AltNo    int
	BasePath pathhash.Hash
	NewPath  pathhash.Hash
	Files    []pathhash.Hash
}

// BaseFile returns the path of name under the base folder.
func (f AltFolder) BaseFile(name pathhash.Hash) pathhash.Hash {
	return f.BasePath.Join(name)
}

// NewFile returns the path of name under the variant folder.
func (f AltFolder) NewFile(name pathhash.Hash) pathhash.Hash {
	return f.NewPath.Join(name)
}
