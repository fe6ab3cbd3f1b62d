package alts

import (
	"github.com/dendrascience/arcalts/arc"
	"github.com/dendrascience/arcalts/internal/logging"
	"github.com/dendrascience/arcalts/internal/metrics"
	"github.com/dendrascience/arcalts/pathhash"
	"github.com/dendrascience/arcalts/search"
	"go.uber.org/zap"
)

// DefaultMaxAlts bounds the numbered variant folders looked up per stage.
const DefaultMaxAlts = 99

var (
	stageRoot    = pathhash.New("stage")
	effectStage  = pathhash.New("effect/stage")
	commonName   = pathhash.New("common")
	normalName   = pathhash.New("normal")
	battleName   = pathhash.New("battle")
	wifiSafeFlag = pathhash.New("wifi-safe.flag")
	wifiIgnore   = pathhash.New("wifi-ignore.flag")
	flagExt      = pathhash.New("flag")
)

// CatalogOptions configures BuildCatalog.
type CatalogOptions struct {
	MaxAlts int
	Logger  *zap.Logger
}

type catalogBuilder struct {
	idx     *arc.Index
	maxAlts int
	log     *zap.Logger
}

// BuildCatalog discovers the alts of every stage under "stage". The variant
// folders' sibling chains are reordered to match their base folders as a side
// effect, so it must run before the index is shared.
//
// Problems with one stage are logged and that stage is skipped; the catalog
// for the others still builds.
func BuildCatalog(idx *arc.Index, opts CatalogOptions) Catalog {
	b := catalogBuilder{
		idx:     idx,
		maxAlts: opts.MaxAlts,
		log:     logging.Or(opts.Logger),
	}
	if b.maxAlts <= 0 {
		b.maxAlts = DefaultMaxAlts
	}

	catalog := make(Catalog)
	for _, stage := range search.Walk(idx, stageRoot, 1) {
		if !stage.IsDir() {
			b.log.Error("file encountered in stage folder", b.name("path", stage.Path.Path))
			continue
		}
		if stage.Path.FileName == commonName {
			continue
		}
		info, ok := b.stage(stage.Path)
		if !ok {
			metrics.RecordStageSkipped()
			continue
		}
		catalog[info.Name] = info
	}

	metrics.SetCatalogSize(len(catalog), catalog.AltCount())
	b.log.Info("alt catalog built",
		zap.Int("stages", len(catalog)),
		zap.Int("alts", catalog.AltCount()))
	return catalog
}

func (b *catalogBuilder) name(key string, h pathhash.Hash) zap.Field {
	return zap.String(key, b.idx.Labels().Format(h))
}

func (b *catalogBuilder) childFolder(folder, name pathhash.Hash) (arc.PathEntry, bool) {
	_, e, ok := search.DirectChild(b.idx, folder, name)
	if !ok || !e.IsDir {
		return arc.PathEntry{}, false
	}
	return e, true
}

func (b *catalogBuilder) folderExists(h pathhash.Hash) bool {
	_, err := b.idx.Folder(h)
	return err == nil
}

func (b *catalogBuilder) hasChild(folder, name pathhash.Hash) bool {
	_, _, ok := search.DirectChild(b.idx, folder, name)
	return ok
}

func (b *catalogBuilder) stage(entry arc.PathEntry) (*StageAltInfo, bool) {
	name := entry.FileName
	log := b.log.With(b.name("stage", name))

	normal, ok := b.childFolder(entry.Path, normalName)
	if !ok {
		log.Error("stage has no normal folder, skipping")
		return nil, false
	}
	battle, hasBattle := b.childFolder(entry.Path, battleName)

	info := &StageAltInfo{
		Name:         name,
		Folder:       entry.Path,
		NormalFolder: entry.Path.JoinPath("normal"),
		BattleFolder: entry.Path.JoinPath("battle"),
		HasBattle:    hasBattle,
	}

	normalFolders := search.CollectFolders(b.idx, normal.Path)
	var battleFolders []pathhash.Hash
	if hasBattle {
		battleFolders = search.CollectFolders(b.idx, battle.Path)
	}
	effect := effectStage.Join(name)

	hasEffect := b.folderExists(effect)

	vanilla := &StageAlt{
		Stage:          name,
		AltFolders:     map[pathhash.Hash]pathhash.Hash{},
		SharingBase:    map[pathhash.Hash]SharedLink{},
		UIPaths:        UIPaths(name, 0),
		NormalWifiSafe: true,
		BattleWifiSafe: true,
	}
	if hasEffect {
		vanilla.AltFolders[effect] = effect
	}
	mapFolders(vanilla.AltFolders, normal.Path, normal.Path, normalFolders)
	if hasBattle {
		mapFolders(vanilla.AltFolders, battle.Path, battle.Path, battleFolders)
	}
	info.Alts = append(info.Alts, vanilla)

	for n := 1; n <= b.maxAlts; n++ {
		suffix := ordinalSuffix(n)
		variant, ok := b.childFolder(entry.Path, normalName.Concat(suffix))
		if !ok {
			break
		}

		alt := &StageAlt{
			Stage:          name,
			Ordinal:        n,
			AltFolders:     map[pathhash.Hash]pathhash.Hash{},
			UIPaths:        UIPaths(name, n),
			NormalWifiSafe: b.hasChild(variant.Path, wifiSafeFlag),
			NormalIgnore:   b.hasChild(variant.Path, wifiIgnore),
		}

		// effect folders without a variant stay vanilla
		if variantEffect := effect.Concat(suffix); hasEffect && b.folderExists(variantEffect) {
			alt.AltFolders[effect] = variantEffect
		}

		if err := search.OrderFix(b.idx, normal.Path, variant.Path); err != nil {
			log.Error("failed to fix variant order", zap.Int("alt", n), zap.Error(err))
		}
		mapFolders(alt.AltFolders, normal.Path, variant.Path, normalFolders)

		if hasBattle {
			b.battle(log, alt, entry.Path, battle.Path, battleFolders, suffix)
		}

		alt.SharingBase = b.sharingBase(alt.AltFolders)
		info.Alts = append(info.Alts, alt)
	}

	log.Info("stage alts discovered", zap.Int("alts", len(info.Alts)-1), zap.Bool("battle", hasBattle))
	return info, true
}

func (b *catalogBuilder) battle(log *zap.Logger, alt *StageAlt, stage, base pathhash.Hash, folders []pathhash.Hash, suffix string) {
	variant, ok := b.childFolder(stage, battleName.Concat(suffix))
	if !ok {
		log.Error("battle form alt is missing even though the stage has a battle form", zap.Int("alt", alt.Ordinal))
		return
	}

	alt.BattleWifiSafe = b.hasChild(variant.Path, wifiSafeFlag)
	alt.BattleIgnore = b.hasChild(variant.Path, wifiIgnore)

	if err := search.OrderFix(b.idx, base, variant.Path); err != nil {
		log.Error("failed to fix battle variant order", zap.Int("alt", alt.Ordinal), zap.Error(err))
	}
	mapFolders(alt.AltFolders, base, variant.Path, folders)
}

// mapFolders maps every folder below base, given relative to it, onto the
// same relative path below variant.
func mapFolders(into map[pathhash.Hash]pathhash.Hash, base, variant pathhash.Hash, rel []pathhash.Hash) {
	for _, p := range rel {
		into[base.Join(p)] = variant.Join(p)
	}
}

// sharingBase records, for every file directly under a mapped variant folder,
// the base file whose data block the archive deduplicated with it.
func (b *catalogBuilder) sharingBase(folders map[pathhash.Hash]pathhash.Hash) map[pathhash.Hash]SharedLink {
	out := make(map[pathhash.Hash]SharedLink)
	for base, variant := range folders {
		if base == variant {
			continue
		}
		for _, f := range search.Files(b.idx, variant) {
			basePath := base.Join(f.FileName)
			baseLink, err := b.idx.FileLink(basePath)
			if err != nil {
				continue
			}
			variantLink, err := b.idx.FileLink(variant.Join(f.FileName))
			if err != nil {
				continue
			}
			if baseLink == variantLink {
				out[basePath] = SharedLink{Base: baseLink, Variant: variantLink}
			}
		}
	}
	return out
}
