// Package script exposes the stage alt manager to the stage select screen:
// panels are mapped to UI stage ids, and UI stage ids to stages through the
// stage database.
package script

import (
	"fmt"
	"sync"

	"github.com/dendrascience/arcalts/alts"
	"github.com/dendrascience/arcalts/arc"
	"github.com/dendrascience/arcalts/internal/logging"
	"github.com/dendrascience/arcalts/pathhash"
	"go.uber.org/zap"
)

// DefaultTexture is shown when no stage texture can be resolved.
const DefaultTexture = "ui/replace/chara/chara_1/chara_1_wario_04.bntx"

// Form is the stage form the screen asks about.
type Form int

const (
	FormNormal Form = iota
	FormBattle
	FormEnd
)

func (f Form) String() string {
	switch f {
	case FormNormal:
		return "normal"
	case FormBattle:
		return "battle"
	case FormEnd:
		return "end"
	}
	return fmt.Sprintf("form(%d)", int(f))
}

// randomPanels are the UI stage ids of the random tiles.
var randomPanels = map[pathhash.Hash]bool{
	pathhash.New("ui_stage_random"):        true,
	pathhash.New("ui_stage_random_normal"): true,
	pathhash.New("ui_stage_random_battle"): true,
	pathhash.New("ui_stage_random_end"):    true,
}

// Bindings is the call surface of the stage select script.
type Bindings struct {
	mgr *alts.Manager
	db  *StageDB
	log *zap.Logger

	mu     sync.RWMutex
	panels map[int]pathhash.Hash
}

// NewBindings returns bindings resolving stages through db.
func NewBindings(mgr *alts.Manager, db *StageDB, log *zap.Logger) *Bindings {
	return &Bindings{
		mgr:    mgr,
		db:     db,
		log:    logging.Or(log),
		panels: make(map[int]pathhash.Hash),
	}
}

// SetPanels records the UI stage id shown on each panel, by position.
func (b *Bindings) SetPanels(ids []pathhash.Hash) {
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.panels)
	for i, id := range ids {
		b.panels[i] = id
	}
}

func (b *Bindings) panel(id int) (pathhash.Hash, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	ui, ok := b.panels[id]
	return ui, ok
}

func (b *Bindings) name(key string, h pathhash.Hash) zap.Field {
	return zap.String(key, b.db.Labels().Format(h))
}

// stage resolves a panel to its stage, logging why when it cannot.
func (b *Bindings) stage(panel int) (pathhash.Hash, bool) {
	ui, ok := b.panel(panel)
	if !ok {
		b.log.Error("no ui stage id for panel", zap.Int("panel", panel))
		return 0, false
	}
	stage, ok := b.db.Stage(ui)
	if !ok {
		b.log.Error("no stage for ui stage id", b.name("ui_stage_id", ui))
		return 0, false
	}
	return stage, true
}

// RegisterAlt stores the selection made on panel into preview slot.
func (b *Bindings) RegisterAlt(preview, panel, alt int) {
	ui, ok := b.panel(panel)
	if !ok {
		b.log.Error("no ui stage id for panel", zap.Int("panel", panel))
		return
	}
	if randomPanels[ui] {
		b.log.Info("registering random selection", zap.Int("preview", preview))
		b.mgr.SetSelection(preview, alts.Random)
		return
	}
	stage, ok := b.db.Stage(ui)
	if !ok {
		b.log.Error("no stage for ui stage id", b.name("ui_stage_id", ui))
		return
	}
	b.log.Info("registering stage selection",
		zap.Int("preview", preview),
		b.name("stage", stage),
		zap.Int("alt", alt))
	b.mgr.SetSelection(preview, alts.Regular(stage, alt))
}

// GetNextAlt returns the alt after alt for the stage on panel, or 0.
func (b *Bindings) GetNextAlt(panel, alt int, form Form) int {
	stage, ok := b.stage(panel)
	if !ok {
		return 0
	}
	return b.mgr.NextAlt(stage, alt, form != FormNormal)
}

// GetPrevAlt returns the alt before alt for the stage on panel, or 0.
func (b *Bindings) GetPrevAlt(panel, alt int, form Form) int {
	stage, ok := b.stage(panel)
	if !ok {
		return 0
	}
	return b.mgr.PrevAlt(stage, alt, form != FormNormal)
}

// GetIndexForTexture returns the file path index of the texture for the
// stage on panel in form at alt. Anything that cannot be resolved falls back
// to DefaultTexture, and to arc.NoIndex when that is missing too.
func (b *Bindings) GetIndexForTexture(panel int, form Form, alt int) uint32 {
	def := arc.NoIndex
	b.mgr.View(func(idx *arc.Index) {
		i, err := idx.FilePathIndex(pathhash.New(DefaultTexture))
		if err != nil {
			b.log.Error("default texture is missing", zap.Error(err))
			return
		}
		def = i
	})

	stage, ok := b.stage(panel)
	if !ok {
		return def
	}

	var path pathhash.Hash
	switch form {
	case FormNormal:
		path = b.mgr.NormalUIPath(stage, alt)
	case FormBattle:
		path = b.mgr.BattleUIPath(stage, alt)
	case FormEnd:
		path = b.mgr.EndUIPath(stage, alt)
	default:
		b.log.Error("stage form is invalid here", zap.Stringer("form", form))
		return def
	}

	out := def
	b.mgr.View(func(idx *arc.Index) {
		i, err := idx.FilePathIndex(path)
		if err != nil {
			b.log.Error("no file path index for ui path",
				zap.Stringer("path", path),
				b.name("stage", stage),
				zap.Int("alt", alt),
				zap.Error(err))
			return
		}
		out = i
	})
	return out
}

// SetStageUseNum sizes the selection list for the coming set.
func (b *Bindings) SetStageUseNum(n int) {
	b.mgr.SetSelectionCount(n)
}

// OnLoad runs when the stage select screen loads.
func (b *Bindings) OnLoad() {
	b.mgr.ResetCursor()
}

// OffLoad runs when the stage select screen closes.
func (b *Bindings) OffLoad() {
	b.log.Debug("stage select closed", zap.Int("selections", len(b.mgr.Selections())))
	b.mgr.ResetCursor()
}

func (b *Bindings) OnlineEntered() { b.mgr.SetOnline(true) }

func (b *Bindings) OnlineLeft() { b.mgr.SetOnline(false) }

// MainMenuEntered ends the session.
func (b *Bindings) MainMenuEntered() { b.mgr.ResetSession() }
