package script

import (
	"errors"
	"fmt"
	"os"

	"github.com/dendrascience/arcalts/pathhash"
	"gopkg.in/yaml.v3"
)

// ErrEmptyStageDB is returned when a stage database lists no stages.
var ErrEmptyStageDB = errors.New("stage database has no entries")

// StageDBEntry ties a UI stage id to the stage folder it loads.
type StageDBEntry struct {
	UIStageID    string `yaml:"ui_stage_id"`
	StagePlaceID string `yaml:"stage_place_id"`
}

type stageDBFile struct {
	Stages []StageDBEntry `yaml:"stages"`
}

// StageDB maps UI stage ids to stage names.
type StageDB struct {
	byUI   map[pathhash.Hash]pathhash.Hash
	labels *pathhash.Labels
}

// ParseStageDB decodes a YAML stage database. Entries missing either id are
// skipped; a later entry for the same UI id replaces an earlier one.
func ParseStageDB(data []byte) (*StageDB, error) {
	var f stageDBFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse stage database: %w", err)
	}

	db := &StageDB{
		byUI:   make(map[pathhash.Hash]pathhash.Hash, len(f.Stages)),
		labels: pathhash.NewLabels(),
	}
	for _, e := range f.Stages {
		if e.UIStageID == "" || e.StagePlaceID == "" {
			continue
		}
		ui := db.labels.Add(e.UIStageID)
		db.byUI[ui] = db.labels.Add(e.StagePlaceID)
	}
	if len(db.byUI) == 0 {
		return nil, ErrEmptyStageDB
	}
	return db, nil
}

// LoadStageDB reads a YAML stage database from path.
func LoadStageDB(path string) (*StageDB, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stage database: %w", err)
	}
	return ParseStageDB(data)
}

// Stage returns the stage a UI stage id loads.
func (db *StageDB) Stage(ui pathhash.Hash) (pathhash.Hash, bool) {
	if db == nil {
		return 0, false
	}
	s, ok := db.byUI[ui]
	return s, ok
}

// Len returns the number of UI stage ids.
func (db *StageDB) Len() int {
	if db == nil {
		return 0
	}
	return len(db.byUI)
}

// Labels returns the names seen while parsing.
func (db *StageDB) Labels() *pathhash.Labels {
	if db == nil {
		return nil
	}
	return db.labels
}
