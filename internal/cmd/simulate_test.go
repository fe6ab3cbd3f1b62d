package cmd

import (
	"bytes"
	"testing"

	"github.com/dendrascience/arcalts/alts"
	"github.com/dendrascience/arcalts/arc"
	"github.com/dendrascience/arcalts/pathhash"
	"github.com/dendrascience/arcalts/script"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var fox = pathhash.New("fox")

func testSession(t *testing.T) *session {
	t.Helper()
	b := arc.NewBuilder()
	b.AddFile("stage/fox/normal/model/a.bin", []byte("a"))
	b.AddFile("stage/fox/normal_s01/model/a.bin", []byte("a1"))
	b.AddFile("stage/fox/normal_s01/model/z.bin", []byte("z1"))
	b.AddFile("ui/replace/stage/stage_2/stage_2_fox_s01.bntx", []byte("ui"))
	idx := b.Build()

	log := zaptest.NewLogger(t)
	catalog := alts.BuildCatalog(idx, alts.CatalogOptions{Logger: log})
	return &session{idx: idx, catalog: catalog, mgr: alts.NewManager(idx, catalog, alts.WithLogger(log))}
}

func TestSimulate_Selections(t *testing.T) {
	steps, err := parseScript([]byte(`
- stage_use_num: 2
- select: {slot: 0, stage: fox, alt: 1}
- select: {slot: 1, random: true}
- advance: {stage: fox, expect: 1}
- read: stage/fox/normal/model/a.bin
- list: stage/fox/normal/model
- advance: {stage: fox, expect: 1}
- on_load: true
- advance: {stage: fox, expect: 1}
- main_menu: true
- advance: {stage: fox, expect: 1}
`))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, newSimulator(&out, testSession(t), nil).run(steps))

	assert.Contains(t, out.String(), `read stage/fox/normal/model/a.bin: "a1"`)
	assert.Contains(t, out.String(), "list stage/fox/normal/model: stage/fox/normal_s01/model/a.bin stage/fox/normal_s01/model/z.bin")
	assert.Contains(t, out.String(), "main menu, session reset")
}

func TestSimulate_Panels(t *testing.T) {
	db, err := script.ParseStageDB([]byte("stages:\n  - {ui_stage_id: ui_stage_fox, stage_place_id: fox}\n"))
	require.NoError(t, err)

	steps, err := parseScript([]byte(`
- panels: [ui_stage_fox, ui_stage_random]
- stage_use_num: 2
- register: {preview: 0, panel: 0, alt: 1}
- register: {preview: 1, panel: 1}
- next: {panel: 0, alt: 0, form: 0, expect: 1}
- prev: {panel: 0, alt: 0, form: 1, expect: 1}
- texture: {panel: 0, form: 0, alt: 1}
- advance: {stage: fox, expect: 1}
`))
	require.NoError(t, err)

	s := testSession(t)
	var out bytes.Buffer
	require.NoError(t, newSimulator(&out, s, db).run(steps))
	assert.Equal(t, []alts.Selection{alts.Regular(fox, 1), alts.Random}, s.mgr.Selections())
	assert.Contains(t, out.String(), "next panel 0 after 0 (normal): 1")
}

func TestSimulate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		script string
		is     error
	}{
		{"expectation", "- advance: {stage: fox, expect: 7}\n", ErrExpectation},
		{"empty step", "- {}\n", nil},
		{"needs stage db", "- panels: [ui_stage_fox]\n", nil},
		{"unreadable path", "- read: nope/none.bin\n", arc.ErrMissing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			steps, err := parseScript([]byte(tt.script))
			require.NoError(t, err)

			var out bytes.Buffer
			err = newSimulator(&out, testSession(t), nil).run(steps)
			require.Error(t, err)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}

func TestParseScript_Invalid(t *testing.T) {
	_, err := parseScript([]byte("- advance: [\n"))
	assert.Error(t, err)
}
