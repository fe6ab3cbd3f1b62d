package alts

import (
	"testing"

	"github.com/dendrascience/arcalts/pathhash"
	"github.com/stretchr/testify/assert"
)

func TestUIPaths(t *testing.T) {
	tests := []struct {
		name    string
		stage   string
		ordinal int
		slot    int
		want    string
	}{
		{"vanilla", "fox", 0, UINormal, "ui/replace/stage/stage_2/stage_2_fox.bntx"},
		{"alt", "fox", 1, UIBattle, "ui/replace/stage/stage_4/stage_4_fox_s01.bntx"},
		{"loading", "fox", 12, UILoading, "ui/replace/stage/stage_0/stage_0_fox_s12.bntx"},
		{"dlc", "brave_altar", 3, UIEnd, "ui/replace_patch/stage/stage_3/stage_3_brave_altar_s03.bntx"},
		{"small battlefield", "battlefield_s", 1, UIPreview, "ui/replace_patch/stage/stage_1/stage_1_battlefields_s01.bntx"},
		{"large battlefield", "battlefield_l", 2, UINormal, "ui/replace/stage/stage_2/stage_2_battlefieldl_s02.bntx"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UIPaths(pathhash.New(tt.stage), tt.ordinal)[tt.slot]
			assert.Equal(t, pathhash.New(tt.want), got)
		})
	}
}

func TestVanillaUIPaths(t *testing.T) {
	small := pathhash.New("battlefield_s")
	large := pathhash.New("battlefield_l")
	altar := pathhash.New("brave_altar")

	assert.Equal(t, pathhash.New("ui/replace_patch/stage/stage_2/stage_2_battlefields.bntx"), VanillaNormalUIPath(small))
	assert.Equal(t, pathhash.New("ui/replace/stage/stage_4/stage_4_battlefield.bntx"), VanillaBattleUIPath(small))
	assert.Equal(t, pathhash.New("ui/replace/stage/stage_3/stage_3_battlefield.bntx"), VanillaEndUIPath(small))

	assert.Equal(t, pathhash.New("ui/replace/stage/stage_2/stage_2_battlefieldl.bntx"), VanillaNormalUIPath(large))
	assert.Equal(t, pathhash.New("ui/replace/stage/stage_4/stage_4_battlefield.bntx"), VanillaBattleUIPath(large))

	assert.Equal(t, pathhash.New("ui/replace_patch/stage/stage_4/stage_4_brave_altar.bntx"), VanillaBattleUIPath(altar))
	assert.Equal(t, pathhash.New("ui/replace/stage/stage_3/stage_3_fox.bntx"), VanillaEndUIPath(fox))
}

func TestIsDLCStage(t *testing.T) {
	assert.True(t, IsDLCStage(pathhash.New("xeno_alst")))
	assert.True(t, IsDLCStage(pathhash.New("battlefield_s")))
	assert.False(t, IsDLCStage(pathhash.New("battlefield_l")))
	assert.False(t, IsDLCStage(fox))
}
