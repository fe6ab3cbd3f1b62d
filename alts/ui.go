package alts

import (
	"fmt"

	"github.com/dendrascience/arcalts/pathhash"
)

var (
	uiReplace      = pathhash.New("ui/replace/stage")
	uiReplacePatch = pathhash.New("ui/replace_patch/stage")

	battlefieldS = pathhash.New("battlefield_s")
	battlefieldL = pathhash.New("battlefield_l")
	battlefield  = pathhash.New("battlefield")

	dlcStages = hashSet(
		"battlefield_s",
		"brave_altar",
		"buddy_spiral",
		"demon_dojo",
		"dolly_stadium",
		"fe_shrine",
		"ff_cave",
		"jack_mementoes",
		"pickel_world",
		"tantan_spring",
		"trail_castle",
		"xeno_alst",
	)
)

const bntx = ".bntx"

func hashSet(names ...string) map[pathhash.Hash]bool {
	set := make(map[pathhash.Hash]bool, len(names))
	for _, name := range names {
		set[pathhash.New(name)] = true
	}
	return set
}

// IsDLCStage reports whether stage keeps its UI under the patch root.
func IsDLCStage(stage pathhash.Hash) bool {
	return dlcStages[stage]
}

func uiRoot(stage pathhash.Hash) pathhash.Hash {
	if IsDLCStage(stage) {
		return uiReplacePatch
	}
	return uiReplace
}

// uiName applies the display aliases used by the alt UI textures.
func uiName(stage pathhash.Hash) pathhash.Hash {
	switch stage {
	case battlefieldS:
		return pathhash.New("battlefields")
	case battlefieldL:
		return pathhash.New("battlefieldl")
	}
	return stage
}

func ordinalSuffix(ordinal int) string {
	return fmt.Sprintf("_s%02d", ordinal)
}

func uiSuffix(ordinal int) string {
	if ordinal == 0 {
		return bntx
	}
	return ordinalSuffix(ordinal) + bntx
}

// uiSlotPath builds <root>/stage_k/stage_k_<name><suffix>.
func uiSlotPath(root pathhash.Hash, slot int, name pathhash.Hash, suffix string) pathhash.Hash {
	dir := fmt.Sprintf("stage_%d", slot)
	return root.JoinPath(dir).JoinPath(dir + "_").ConcatHash(name).Concat(suffix)
}

// UIPaths returns the five UI texture paths of stage at ordinal.
func UIPaths(stage pathhash.Hash, ordinal int) [uiSlots]pathhash.Hash {
	root := uiRoot(stage)
	name := uiName(stage)
	suffix := uiSuffix(ordinal)

	var paths [uiSlots]pathhash.Hash
	for slot := range paths {
		paths[slot] = uiSlotPath(root, slot, name, suffix)
	}
	return paths
}

// VanillaNormalUIPath is the normal form texture of the unmodified stage.
func VanillaNormalUIPath(stage pathhash.Hash) pathhash.Hash {
	return uiSlotPath(uiRoot(stage), UINormal, uiName(stage), bntx)
}

// The battle and end textures are shared by both battlefield variants and
// small battlefield keeps them under the base root.
func vanillaFormUIPath(stage pathhash.Hash, slot int) pathhash.Hash {
	root := uiReplace
	if IsDLCStage(stage) && stage != battlefieldS {
		root = uiReplacePatch
	}
	name := stage
	if stage == battlefieldS || stage == battlefieldL {
		name = battlefield
	}
	return uiSlotPath(root, slot, name, bntx)
}

// VanillaBattleUIPath is the battle form texture of the unmodified stage.
func VanillaBattleUIPath(stage pathhash.Hash) pathhash.Hash {
	return vanillaFormUIPath(stage, UIBattle)
}

// VanillaEndUIPath is the end form texture of the unmodified stage.
func VanillaEndUIPath(stage pathhash.Hash) pathhash.Hash {
	return vanillaFormUIPath(stage, UIEnd)
}
