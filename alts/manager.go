package alts

import (
	"maps"
	"math/rand/v2"
	"sync"

	"github.com/dendrascience/arcalts/arc"
	"github.com/dendrascience/arcalts/internal/logging"
	"github.com/dendrascience/arcalts/internal/metrics"
	"github.com/dendrascience/arcalts/pathhash"
	"github.com/dendrascience/arcalts/search"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ResultsStage is the pseudo-stage loaded for the results screen. It always
// gets a random alt.
var ResultsStage = pathhash.New("resultstage")

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the manager's logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// WithRand sets the source of random alt draws.
func WithRand(r *rand.Rand) Option {
	return func(m *Manager) {
		m.rng = r
	}
}

// Manager owns the catalog, the session's selection list and the alt that is
// currently patched into the index. All methods are safe for concurrent use;
// queries share a read lock and state changes take the write lock.
type Manager struct {
	mu sync.RWMutex

	idx      *arc.Index
	catalog  Catalog
	snapshot *Snapshot
	mutator  *Mutator

	selection []Selection
	cursor    int
	current   *StageAlt
	revert    PatchSet
	online    bool
	session   uuid.UUID

	rngMu sync.Mutex
	rng   *rand.Rand

	log *zap.Logger
}

// NewManager snapshots idx and returns a manager with no alt active. The
// catalog must already have been built against idx.
func NewManager(idx *arc.Index, catalog Catalog, opts ...Option) *Manager {
	m := &Manager{
		idx:      idx,
		catalog:  catalog,
		snapshot: TakeSnapshot(idx),
		mutator:  NewMutator(idx),
		cursor:   -1,
		session:  uuid.New(),
		log:      logging.L(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.With(zap.String("session", m.session.String()))
	return m
}

func (m *Manager) name(key string, h pathhash.Hash) zap.Field {
	return zap.String(key, m.idx.Labels().Format(h))
}

func (m *Manager) intN(n int) int {
	if m.rng == nil {
		return rand.IntN(n)
	}
	m.rngMu.Lock()
	defer m.rngMu.Unlock()
	return m.rng.IntN(n)
}

// Catalog returns the catalog. It is never modified.
func (m *Manager) Catalog() Catalog {
	return m.catalog
}

// Session returns the id of the current session.
func (m *Manager) Session() uuid.UUID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session
}

// SetSelectionCount starts a selection list of n invalid slots.
func (m *Manager) SetSelectionCount(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n < 0 {
		n = 0
	}
	m.log.Info("setting selection count", zap.Int("count", n))
	m.selection = make([]Selection, n)
	m.cursor = -1
}

// SetSelection overwrites slot i. An out of range slot is logged and ignored.
func (m *Manager) SetSelection(i int, sel Selection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log.Info("setting stage selection", zap.Int("slot", i), zap.Stringer("selection", sel))
	if i < 0 || i >= len(m.selection) {
		m.log.Error("selection slot is out of range", zap.Int("slot", i), zap.Int("count", len(m.selection)))
		return
	}
	m.selection[i] = sel
}

// Selections returns a copy of the session's selection list.
func (m *Manager) Selections() []Selection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Selection(nil), m.selection...)
}

// ResetCursor makes the next Advance consume the first slot again.
func (m *Manager) ResetCursor() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cursor = -1
}

// ResetSession clears the selection list and the online flag and starts a new
// session id. The active alt stays patched in until the next Advance.
func (m *Manager) ResetSession() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selection = nil
	m.cursor = -1
	m.online = false
	m.session = uuid.New()
	m.log.Info("session reset", zap.String("new_session", m.session.String()))
}

// SetOnline sets whether alts must be wifi-safe.
func (m *Manager) SetOnline(online bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.online = online
	m.log.Info("online mode changed", zap.Bool("online", online))
}

// Online reports whether the session is online.
func (m *Manager) Online() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

// CurrentAlt returns the alt patched into the index, or nil.
func (m *Manager) CurrentAlt() *StageAlt {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Advance consumes the next selection for the incoming stage and makes the
// alt it resolves to active. It returns the active ordinal, 0 when no alt is
// active.
func (m *Manager) Advance(incoming pathhash.Hash, isBattle bool) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	log := m.log.With(m.name("incoming", incoming), zap.Bool("battle", isBattle))

	var sel Selection
	switch {
	case len(m.selection) == 0:
		log.Info("selection list is empty, using a random alt")
		sel = Random
	case incoming == ResultsStage:
		log.Info("results stage is incoming, using a random alt")
		sel = Random
	default:
		if m.cursor < 0 || m.cursor >= len(m.selection) {
			m.cursor = 0
		} else {
			m.cursor = (m.cursor + 1) % len(m.selection)
		}
		sel = m.selection[m.cursor]
	}
	metrics.RecordSelection(sel.Kind.String())

	var alt *StageAlt
	switch sel.Kind {
	case SelectionInvalid:
		log.Error("invalid selection encountered while advancing", zap.Int("slot", m.cursor))
	case SelectionRandom:
		n := m.randomAlt(incoming, isBattle)
		if n != 0 {
			alt, _ = m.catalog[incoming].Alt(n)
		}
		log.Info("randomly selected alt", zap.Int("alt", n))
	case SelectionRegular:
		if sel.Stage != incoming {
			log.Error("incoming stage does not match the selected stage", m.name("selected", sel.Stage))
		}
		if sel.Alt == 0 {
			log.Info("alt 0 selected, no alt will be used")
			break
		}
		var ok bool
		alt, ok = m.catalog[sel.Stage].Alt(sel.Alt)
		if !ok {
			log.Error("selected alt does not exist", m.name("stage", sel.Stage), zap.Int("alt", sel.Alt))
		}
	}

	m.change(alt)
	if m.current == nil {
		return 0
	}
	return m.current.Ordinal
}

// change reverts the active alt and applies alt. The two always alternate, so
// applying the same alt twice leaves the tables as applying it once.
func (m *Manager) change(alt *StageAlt) {
	if m.current != nil {
		if err := m.mutator.Apply(m.revert, "revert"); err != nil {
			m.log.Error("failed to revert alt", zap.Int("alt", m.current.Ordinal), zap.Error(err))
		}
		m.current = nil
		m.revert = nil
	}

	if alt != nil {
		apply, revert := BuildPatches(m.idx, m.snapshot, alt)
		if err := m.mutator.Apply(apply, "apply"); err != nil {
			m.log.Error("failed to apply alt, restoring vanilla", zap.Int("alt", alt.Ordinal), zap.Error(err))
			if rerr := m.mutator.Apply(revert, "revert"); rerr != nil {
				m.log.Error("failed to restore vanilla", zap.Error(rerr))
			}
			alt = nil
		} else {
			m.current = alt
			m.revert = revert
			m.log.Info("alt applied",
				m.name("stage", alt.Stage),
				zap.Int("alt", alt.Ordinal),
				zap.Int("archive_slots", apply.Count(ArchiveTable)),
				zap.Int("search_slots", apply.Count(SearchTable)))
		}
	}

	ordinal := 0
	if alt != nil {
		ordinal = alt.Ordinal
	}
	metrics.RecordAltChange(ordinal)
}

// RandomAlt draws uniformly among the stage's alts other than vanilla that
// are not ignored for the form and, when online, are wifi-safe. It returns 0
// when no alt qualifies.
func (m *Manager) RandomAlt(stage pathhash.Hash, isBattle bool) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.randomAlt(stage, isBattle)
}

func (m *Manager) randomAlt(stage pathhash.Hash, isBattle bool) int {
	info, ok := m.catalog[stage]
	if !ok {
		m.log.Info("stage has no alts, no random alt will be picked", m.name("stage", stage))
		return 0
	}

	var eligible []int
	for n := 1; n < len(info.Alts); n++ {
		a := info.Alts[n]
		if m.online && !a.WifiSafe(isBattle) {
			continue
		}
		if a.Ignored(isBattle) {
			continue
		}
		eligible = append(eligible, n)
	}
	if len(eligible) == 0 {
		if len(info.Alts) > 1 {
			m.log.Warn("every alt is disqualified, using vanilla", m.name("stage", stage), zap.Bool("online", m.online))
		}
		return 0
	}
	return eligible[m.intN(len(eligible))]
}

func (m *Manager) usable(a *StageAlt, isBattle bool) bool {
	return !m.online || a.WifiSafe(isBattle)
}

// NextAlt returns the ordinal after current, skipping alts that are not
// usable online. Stepping past the last alt returns 0.
func (m *Manager) NextAlt(stage pathhash.Hash, current int, isBattle bool) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info, ok := m.catalog[stage]
	if !ok {
		m.log.Info("stage has no alts, resorting to default", m.name("stage", stage))
		return 0
	}
	cur := current
	for range len(info.Alts) + 1 {
		n := cur + 1
		if n < 0 || n >= len(info.Alts) {
			return 0
		}
		if !m.usable(info.Alts[n], isBattle) {
			cur = n
			continue
		}
		return n
	}
	return 0
}

// PrevAlt returns the ordinal before current, skipping alts that are not
// usable online. Stepping back from 0 wraps to the last alt.
func (m *Manager) PrevAlt(stage pathhash.Hash, current int, isBattle bool) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info, ok := m.catalog[stage]
	if !ok {
		m.log.Info("stage has no alts, resorting to default", m.name("stage", stage))
		return 0
	}
	cur := current
	for range len(info.Alts) + 2 {
		n := cur - 1
		if n < 0 || n >= len(info.Alts) {
			cur = len(info.Alts)
			continue
		}
		if !m.usable(info.Alts[n], isBattle) {
			cur = n
			continue
		}
		return n
	}
	return 0
}

func (m *Manager) uiPath(stage pathhash.Hash, ordinal, slot int, vanilla func(pathhash.Hash) pathhash.Hash) pathhash.Hash {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if ordinal == 0 {
		return vanilla(stage)
	}
	info, ok := m.catalog[stage]
	if !ok {
		m.log.Error("no alt information for stage, using vanilla ui path", m.name("stage", stage), zap.Int("slot", slot))
		return vanilla(stage)
	}
	alt, ok := info.Alt(ordinal)
	if !ok {
		m.log.Error("stage has no such alt, using vanilla ui path", m.name("stage", stage), zap.Int("alt", ordinal), zap.Int("slot", slot))
		return vanilla(stage)
	}
	return alt.UIPaths[slot]
}

// NormalUIPath returns the normal form texture of stage at ordinal.
func (m *Manager) NormalUIPath(stage pathhash.Hash, ordinal int) pathhash.Hash {
	return m.uiPath(stage, ordinal, UINormal, VanillaNormalUIPath)
}

// BattleUIPath returns the battle form texture of stage at ordinal.
func (m *Manager) BattleUIPath(stage pathhash.Hash, ordinal int) pathhash.Hash {
	return m.uiPath(stage, ordinal, UIBattle, VanillaBattleUIPath)
}

// EndUIPath returns the end form texture of stage at ordinal.
func (m *Manager) EndUIPath(stage pathhash.Hash, ordinal int) pathhash.Hash {
	return m.uiPath(stage, ordinal, UIEnd, VanillaEndUIPath)
}

// HasFolder reports whether the active alt remaps folder.
func (m *Manager) HasFolder(folder pathhash.Hash) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return false
	}
	_, ok := m.current.AltFolders[folder]
	return ok
}

// AltFolder describes the variant folder the active alt maps folder to. Flag
// files are left out of Files.
func (m *Manager) AltFolder(folder pathhash.Hash) (AltFolder, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.altFolder(folder)
}

func (m *Manager) altFolder(folder pathhash.Hash) (AltFolder, bool) {
	if m.current == nil {
		return AltFolder{}, false
	}
	variant, ok := m.current.AltFolders[folder]
	if !ok {
		return AltFolder{}, false
	}
	if _, err := m.idx.FirstChild(variant); err != nil {
		m.log.Error("variant folder is missing from the index", m.name("folder", variant))
		return AltFolder{}, false
	}
	af := AltFolder{AltNo: m.current.Ordinal, BasePath: folder, NewPath: variant}
	for _, f := range search.Files(m.idx, variant) {
		if f.Ext == flagExt {
			continue
		}
		af.Files = append(af.Files, f.FileName)
	}
	return af, true
}

// FilesForAltFolder returns the file path indices of the files the active
// alt puts in folder, in sibling order. Files missing from the archive are
// logged and left out.
func (m *Manager) FilesForAltFolder(folder pathhash.Hash) ([]uint32, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.current == nil {
		return nil, false
	}
	if _, ok := m.current.AltFolders[folder]; !ok {
		m.log.Error("active alt does not map folder", m.name("folder", folder))
		return nil, false
	}
	af, ok := m.altFolder(folder)
	if !ok {
		return nil, false
	}
	return m.fileIndices(af), true
}

func (m *Manager) fileIndices(af AltFolder) []uint32 {
	out := make([]uint32, 0, len(af.Files))
	for _, name := range af.Files {
		path := af.NewFile(name)
		i, err := m.idx.FilePathIndex(path)
		if err != nil {
			m.log.Error("file path index not found", m.name("path", path), zap.Error(err))
			continue
		}
		out = append(out, i)
	}
	return out
}

// Substitution is everything a directory load needs from one alt.
type Substitution struct {
	Folder  AltFolder
	Indices []uint32
	// Shared counts files whose data is shared with the base folder.
	Shared int
}

// Substitute returns the active alt's substitution for folder, read under a
// single lock so every field describes the same alt. It reports false when
// no alt is active or the alt leaves folder alone.
func (m *Manager) Substitute(folder pathhash.Hash) (Substitution, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.substitute(folder)
}

// Resolve lists the children of folder with children and looks up the
// substitution for folder under the same read lock.
func (m *Manager) Resolve(folder pathhash.Hash, children func(idx *arc.Index) []uint32) ([]uint32, Substitution, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sub, ok := m.substitute(folder)
	return children(m.idx), sub, ok
}

func (m *Manager) substitute(folder pathhash.Hash) (Substitution, bool) {
	if m.current == nil {
		return Substitution{}, false
	}
	if _, ok := m.current.AltFolders[folder]; !ok {
		return Substitution{}, false
	}
	af, ok := m.altFolder(folder)
	if !ok {
		return Substitution{}, false
	}
	sub := Substitution{Folder: af, Indices: m.fileIndices(af)}
	for _, name := range af.Files {
		if _, ok := m.current.SharingBase[af.BaseFile(name)]; ok {
			sub.Shared++
		}
	}
	return sub, true
}

// SharingBase returns a copy of the active alt's sharing base, or nil.
func (m *Manager) SharingBase() map[pathhash.Hash]SharedLink {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return nil
	}
	return maps.Clone(m.current.SharingBase)
}

// View runs fn with the index while holding the read lock, so fn never sees
// a half-applied alt.
func (m *Manager) View(fn func(idx *arc.Index)) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fn(m.idx)
}
