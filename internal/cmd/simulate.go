package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dendrascience/arcalts/alts"
	"github.com/dendrascience/arcalts/arc"
	"github.com/dendrascience/arcalts/internal/logging"
	"github.com/dendrascience/arcalts/loader"
	"github.com/dendrascience/arcalts/pathhash"
	"github.com/dendrascience/arcalts/script"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// ErrExpectation is returned when a simulation step does not produce the
// expected result.
var ErrExpectation = errors.New("expectation failed")

// NewSimulateCmd creates and returns the simulate subcommand for the arcalts CLI.
func NewSimulateCmd() *cobra.Command {
	var stageDB string

	cmd := &cobra.Command{
		Use:   "simulate SCRIPT [ARCHIVE]",
		Short: "Run a stage selection script against an archive",
		Long: `Run a YAML script of stage select events against an archive and print
what each step resolves to.

A script is a list of steps; each step sets one of:
  stage_use_num: N            size the selection list
  panels: [ui ids]            panel layout of the select screen
  register: {preview, panel, alt}
  select: {slot, stage, alt}  or {slot, random: true}
  advance: {stage, battle}    load a stage, optionally with expect: N
  next / prev: {panel, alt, form}
  texture: {panel, form, alt}
  read: path                  print a file as the archive now resolves it
  list: folder                print the files the loader would load
  online / offline / on_load / off_load / main_menu: true

Steps using panels need a stage database (--stage-db).`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			archiveArg(&cfg, args[1:])
			if stageDB != "" {
				cfg.StageDB = stageDB
			}

			steps, err := loadScript(args[0])
			if err != nil {
				return err
			}
			s, err := openSession(cfg)
			if err != nil {
				return err
			}
			var db *script.StageDB
			if cfg.StageDB != "" {
				if db, err = script.LoadStageDB(cfg.StageDB); err != nil {
					return err
				}
			}
			return newSimulator(cmd.OutOrStdout(), s, db).run(steps)
		},
	}

	cmd.Flags().StringVar(&stageDB, "stage-db", "", "YAML stage database mapping ui stage ids to stages")

	return cmd
}

type (
	registerStep struct {
		Preview int `yaml:"preview"`
		Panel   int `yaml:"panel"`
		Alt     int `yaml:"alt"`
	}

	selectStep struct {
		Slot   int    `yaml:"slot"`
		Stage  string `yaml:"stage"`
		Alt    int    `yaml:"alt"`
		Random bool   `yaml:"random"`
	}

	advanceStep struct {
		Stage  string `yaml:"stage"`
		Battle bool   `yaml:"battle"`
		Expect *int   `yaml:"expect"`
	}

	panelStep struct {
		Panel  int         `yaml:"panel"`
		Alt    int         `yaml:"alt"`
		Form   script.Form `yaml:"form"`
		Expect *int        `yaml:"expect"`
	}

	simStep struct {
		StageUseNum *int          `yaml:"stage_use_num"`
		Panels      []string      `yaml:"panels"`
		Register    *registerStep `yaml:"register"`
		Select      *selectStep   `yaml:"select"`
		Advance     *advanceStep  `yaml:"advance"`
		Next        *panelStep    `yaml:"next"`
		Prev        *panelStep    `yaml:"prev"`
		Texture     *panelStep    `yaml:"texture"`
		Read        string        `yaml:"read"`
		List        string        `yaml:"list"`
		Online      bool          `yaml:"online"`
		Offline     bool          `yaml:"offline"`
		OnLoad      bool          `yaml:"on_load"`
		OffLoad     bool          `yaml:"off_load"`
		MainMenu    bool          `yaml:"main_menu"`
	}
)

func loadScript(path string) ([]simStep, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return parseScript(data)
}

func parseScript(data []byte) ([]simStep, error) {
	var steps []simStep
	if err := yaml.Unmarshal(data, &steps); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	return steps, nil
}

type simulator struct {
	w     io.Writer
	s     *session
	ld    *loader.Loader
	bind  *script.Bindings
	hasDB bool
}

func newSimulator(w io.Writer, s *session, db *script.StageDB) *simulator {
	log := logging.L()
	return &simulator{
		w:     w,
		s:     s,
		ld:    loader.New(s.mgr, log),
		bind:  script.NewBindings(s.mgr, db, log),
		hasDB: db != nil,
	}
}

func (sim *simulator) run(steps []simStep) error {
	for i, st := range steps {
		if err := sim.step(st); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return nil
}

func (sim *simulator) needDB() error {
	if !sim.hasDB {
		return errors.New("this step needs a stage database")
	}
	return nil
}

func expect(what string, want *int, got int) error {
	if want != nil && *want != got {
		return fmt.Errorf("%w: %s returned %d, expected %d", ErrExpectation, what, got, *want)
	}
	return nil
}

func (sim *simulator) step(st simStep) error {
	mgr := sim.s.mgr
	labels := sim.s.idx.Labels()

	switch {
	case st.StageUseNum != nil:
		sim.bind.SetStageUseNum(*st.StageUseNum)
		fmt.Fprintf(sim.w, "stage use num: %d\n", *st.StageUseNum)

	case st.Panels != nil:
		if err := sim.needDB(); err != nil {
			return err
		}
		ids := make([]pathhash.Hash, len(st.Panels))
		for i, p := range st.Panels {
			ids[i] = pathhash.New(p)
		}
		sim.bind.SetPanels(ids)
		fmt.Fprintf(sim.w, "panels: %d\n", len(ids))

	case st.Register != nil:
		if err := sim.needDB(); err != nil {
			return err
		}
		r := st.Register
		sim.bind.RegisterAlt(r.Preview, r.Panel, r.Alt)
		fmt.Fprintf(sim.w, "register preview %d: panel %d alt %d\n", r.Preview, r.Panel, r.Alt)

	case st.Select != nil:
		sel := alts.Random
		if !st.Select.Random {
			sel = alts.Regular(labels.Add(st.Select.Stage), st.Select.Alt)
		}
		mgr.SetSelection(st.Select.Slot, sel)
		fmt.Fprintf(sim.w, "select slot %d: %s\n", st.Select.Slot, sel.Kind)

	case st.Advance != nil:
		a := st.Advance
		got := mgr.Advance(labels.Add(a.Stage), a.Battle)
		fmt.Fprintf(sim.w, "advance %s (battle=%t): alt %d\n", a.Stage, a.Battle, got)
		return expect("advance "+a.Stage, a.Expect, got)

	case st.Next != nil:
		if err := sim.needDB(); err != nil {
			return err
		}
		got := sim.bind.GetNextAlt(st.Next.Panel, st.Next.Alt, st.Next.Form)
		fmt.Fprintf(sim.w, "next panel %d after %d (%s): %d\n", st.Next.Panel, st.Next.Alt, st.Next.Form, got)
		return expect("next", st.Next.Expect, got)

	case st.Prev != nil:
		if err := sim.needDB(); err != nil {
			return err
		}
		got := sim.bind.GetPrevAlt(st.Prev.Panel, st.Prev.Alt, st.Prev.Form)
		fmt.Fprintf(sim.w, "prev panel %d before %d (%s): %d\n", st.Prev.Panel, st.Prev.Alt, st.Prev.Form, got)
		return expect("prev", st.Prev.Expect, got)

	case st.Texture != nil:
		if err := sim.needDB(); err != nil {
			return err
		}
		t := st.Texture
		got := sim.bind.GetIndexForTexture(t.Panel, t.Form, t.Alt)
		fmt.Fprintf(sim.w, "texture panel %d %s alt %d: %#x\n", t.Panel, t.Form, t.Alt, got)

	case st.Read != "":
		var data []byte
		var err error
		mgr.View(func(idx *arc.Index) {
			data, err = idx.ReadFile(pathhash.New(st.Read))
		})
		if err != nil {
			return fmt.Errorf("read %s: %w", st.Read, err)
		}
		fmt.Fprintf(sim.w, "read %s: %q\n", st.Read, data)

	case st.List != "":
		dir := labels.Add(st.List)
		files := sim.ld.LoadDir(dir)
		fmt.Fprintf(sim.w, "list %s:", st.List)
		mgr.View(func(idx *arc.Index) {
			for _, i := range files {
				if fp, err := idx.FilePath(i); err == nil {
					fmt.Fprintf(sim.w, " %s", labels.Format(fp.Path))
				}
			}
		})
		fmt.Fprintln(sim.w)

	case st.Online:
		sim.bind.OnlineEntered()
		fmt.Fprintln(sim.w, "online")

	case st.Offline:
		sim.bind.OnlineLeft()
		fmt.Fprintln(sim.w, "offline")

	case st.OnLoad:
		sim.bind.OnLoad()
		fmt.Fprintln(sim.w, "stage select loaded")

	case st.OffLoad:
		sim.bind.OffLoad()
		fmt.Fprintln(sim.w, "stage select closed")

	case st.MainMenu:
		sim.bind.MainMenuEntered()
		fmt.Fprintln(sim.w, "main menu, session reset")

	default:
		return errors.New("empty step")
	}
	return nil
}
