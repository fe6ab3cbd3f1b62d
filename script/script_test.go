package script

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dendrascience/arcalts/alts"
	"github.com/dendrascience/arcalts/arc"
	"github.com/dendrascience/arcalts/pathhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const stageDB = `
stages:
  - ui_stage_id: ui_stage_fox
    stage_place_id: fox
  - ui_stage_id: ui_stage_random
    stage_place_id: random
  - ui_stage_id: ""
    stage_place_id: nothing
`

var fox = pathhash.New("fox")

func testBindings(t *testing.T, withDefault bool) (*arc.Index, *alts.Manager, *Bindings) {
	t.Helper()
	b := arc.NewBuilder()
	b.AddFile("stage/fox/normal/model/a.bin", []byte("a"))
	b.AddFile("stage/fox/normal_s01/model/a.bin", []byte("a1"))
	b.AddFile("ui/replace/stage/stage_2/stage_2_fox.bntx", []byte("n0"))
	b.AddFile("ui/replace/stage/stage_2/stage_2_fox_s01.bntx", []byte("n1"))
	b.AddFile("ui/replace/stage/stage_4/stage_4_fox_s01.bntx", []byte("b1"))
	if withDefault {
		b.AddFile(DefaultTexture, []byte("default"))
	}
	idx := b.Build()

	log := zaptest.NewLogger(t)
	mgr := alts.NewManager(idx, alts.BuildCatalog(idx, alts.CatalogOptions{Logger: log}), alts.WithLogger(log))

	db, err := ParseStageDB([]byte(stageDB))
	require.NoError(t, err)

	bind := NewBindings(mgr, db, log)
	bind.SetPanels([]pathhash.Hash{
		pathhash.New("ui_stage_fox"),
		pathhash.New("ui_stage_random"),
		pathhash.New("ui_stage_unknown"),
	})
	return idx, mgr, bind
}

func fileIndex(t *testing.T, idx *arc.Index, p string) uint32 {
	t.Helper()
	i, err := idx.FilePathIndex(pathhash.New(p))
	require.NoError(t, err)
	return i
}

func TestParseStageDB(t *testing.T) {
	db, err := ParseStageDB([]byte(stageDB))
	require.NoError(t, err)
	assert.Equal(t, 2, db.Len())

	stage, ok := db.Stage(pathhash.New("ui_stage_fox"))
	require.True(t, ok)
	assert.Equal(t, fox, stage)
	assert.Equal(t, "fox", db.Labels().Format(stage))

	_, ok = db.Stage(pathhash.New("ui_stage_unknown"))
	assert.False(t, ok)

	_, err = ParseStageDB([]byte("stages: []\n"))
	assert.ErrorIs(t, err, ErrEmptyStageDB)

	_, err = ParseStageDB([]byte("stages: [\n"))
	assert.Error(t, err)
}

func TestLoadStageDB(t *testing.T) {
	p := filepath.Join(t.TempDir(), "stages.yaml")
	require.NoError(t, os.WriteFile(p, []byte(stageDB), 0o644))

	db, err := LoadStageDB(p)
	require.NoError(t, err)
	assert.Equal(t, 2, db.Len())

	_, err = LoadStageDB(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestRegisterAlt(t *testing.T) {
	_, mgr, bind := testBindings(t, true)
	bind.SetStageUseNum(3)

	bind.RegisterAlt(0, 0, 1)
	bind.RegisterAlt(1, 1, 4)
	bind.RegisterAlt(2, 2, 1)
	bind.RegisterAlt(2, 9, 1)

	assert.Equal(t, []alts.Selection{alts.Regular(fox, 1), alts.Random, alts.Invalid}, mgr.Selections())
}

func TestNextPrev(t *testing.T) {
	_, _, bind := testBindings(t, true)

	assert.Equal(t, 1, bind.GetNextAlt(0, 0, FormNormal))
	assert.Equal(t, 0, bind.GetNextAlt(0, 1, FormBattle))
	assert.Equal(t, 1, bind.GetPrevAlt(0, 0, FormNormal))
	assert.Equal(t, 0, bind.GetPrevAlt(0, 1, FormNormal))

	assert.Equal(t, 0, bind.GetNextAlt(2, 0, FormNormal))
	assert.Equal(t, 0, bind.GetPrevAlt(9, 0, FormNormal))
}

func TestGetIndexForTexture(t *testing.T) {
	idx, _, bind := testBindings(t, true)
	def := fileIndex(t, idx, DefaultTexture)

	tests := []struct {
		name  string
		panel int
		form  Form
		alt   int
		want  uint32
	}{
		{"vanilla normal", 0, FormNormal, 0, fileIndex(t, idx, "ui/replace/stage/stage_2/stage_2_fox.bntx")},
		{"alt normal", 0, FormNormal, 1, fileIndex(t, idx, "ui/replace/stage/stage_2/stage_2_fox_s01.bntx")},
		{"alt battle", 0, FormBattle, 1, fileIndex(t, idx, "ui/replace/stage/stage_4/stage_4_fox_s01.bntx")},
		{"missing texture", 0, FormEnd, 1, def},
		{"invalid form", 0, Form(7), 1, def},
		{"unknown ui id", 2, FormNormal, 1, def},
		{"unknown panel", 9, FormNormal, 1, def},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, bind.GetIndexForTexture(tt.panel, tt.form, tt.alt))
		})
	}
}

func TestGetIndexForTexture_NoDefault(t *testing.T) {
	_, _, bind := testBindings(t, false)
	assert.Equal(t, arc.NoIndex, bind.GetIndexForTexture(9, FormNormal, 0))
}

func TestLifecycle(t *testing.T) {
	_, mgr, bind := testBindings(t, true)
	bind.SetStageUseNum(2)
	bind.RegisterAlt(0, 0, 1)

	assert.Equal(t, 1, mgr.Advance(fox, false))
	bind.OnLoad()
	assert.Equal(t, 1, mgr.Advance(fox, false))
	assert.Equal(t, 0, mgr.Advance(fox, false))
	bind.OffLoad()
	assert.Equal(t, 1, mgr.Advance(fox, false))

	session := mgr.Session()
	bind.OnlineEntered()
	assert.True(t, mgr.Online())
	bind.OnlineLeft()
	assert.False(t, mgr.Online())

	bind.OnlineEntered()
	bind.MainMenuEntered()
	assert.False(t, mgr.Online())
	assert.NotEqual(t, session, mgr.Session())
	assert.Empty(t, mgr.Selections())
}

func TestFormString(t *testing.T) {
	assert.Equal(t, "battle", FormBattle.String())
	assert.Equal(t, "form(7)", Form(7).String())
}
