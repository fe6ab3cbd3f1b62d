package cmd

import (
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// NewSeedCmd creates and returns the seed subcommand for the arcalts CLI.
// It generates a sample stage tree with numbered alt folders.
func NewSeedCmd() *cobra.Command {
	var (
		outputPath string
		opts       seedOptions
		seed       uint64
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate a sample stage tree with alt folders",
		Long: `Generate a sample stage tree for trying out arcalts.

Each stage gets a normal form, every other stage a battle form, and a number
of numbered alt folders. Alt files either repeat the base content, so the
archive shares their data block, or hold a fresh UUID line. Effect folders
and UI textures are generated for every alt. Pack the result with
'arcalts pack'.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if seed == 0 {
				seed = rand.Uint64()
			}
			r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
			files, err := seedTree(outputPath, opts, r)
			if err != nil {
				return err
			}
			if verbose {
				printSeedSummary(cmd.OutOrStdout(), outputPath, opts, files, seed)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Path to output directory (required)")
	cmd.Flags().IntVar(&opts.stages, "stages", 4, "Number of stages to generate")
	cmd.Flags().IntVar(&opts.alts, "alts", 3, "Number of alts per stage")
	cmd.Flags().IntVar(&opts.files, "files", 6, "Number of model files per stage")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Random seed (0 picks one)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	cmd.MarkFlagRequired("output")

	return cmd
}

type seedOptions struct {
	stages int
	alts   int
	files  int
}

type seeder struct {
	root  string
	r     *rand.Rand
	count int
}

func (s *seeder) write(rel string, data []byte) error {
	p := filepath.Join(s.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return err
	}
	s.count++
	return nil
}

func uuidLine() []byte {
	return []byte(uuid.New().String() + "\n")
}

// seedTree writes the sample tree below root and returns the number of files.
func seedTree(root string, opts seedOptions, r *rand.Rand) (int, error) {
	if opts.stages < 1 || opts.alts < 0 || opts.alts > 99 || opts.files < 1 {
		return 0, fmt.Errorf("invalid seed options: %d stages, %d alts, %d files", opts.stages, opts.alts, opts.files)
	}
	s := &seeder{root: root, r: r}

	if err := s.write("stage/common/shared.bin", uuidLine()); err != nil {
		return s.count, err
	}
	for i := range opts.stages {
		if err := s.stage(fmt.Sprintf("stage%02d", i), i%2 == 0, opts); err != nil {
			return s.count, err
		}
	}
	return s.count, nil
}

func (s *seeder) stage(name string, battle bool, opts seedOptions) error {
	forms := []string{"normal"}
	if battle {
		forms = append(forms, "battle")
	}

	base := make(map[string][]byte)
	for _, form := range forms {
		for f := range opts.files {
			rel := fmt.Sprintf("model/f%02d.nutexb", f)
			base[form+"/"+rel] = uuidLine()
		}
		base[form+"/param/light.prc"] = uuidLine()
	}
	base["effect"] = uuidLine()

	for rel, data := range base {
		if rel == "effect" {
			continue
		}
		if err := s.write(fmt.Sprintf("stage/%s/%s", name, rel), data); err != nil {
			return err
		}
	}
	if err := s.write(fmt.Sprintf("effect/stage/%s/%s.eff", name, name), base["effect"]); err != nil {
		return err
	}
	if err := s.ui(name, ".bntx"); err != nil {
		return err
	}

	for n := 1; n <= opts.alts; n++ {
		suffix := fmt.Sprintf("_s%02d", n)
		for _, form := range forms {
			dir := fmt.Sprintf("stage/%s/%s%s", name, form, suffix)
			for f := range opts.files {
				rel := fmt.Sprintf("model/f%02d.nutexb", f)
				choice := s.r.IntN(3)
				if f == 0 && choice == 0 {
					// keep the alt folder non-empty
					choice = 2
				}
				switch choice {
				case 0:
					continue
				case 1:
					if err := s.write(dir+"/"+rel, base[form+"/"+rel]); err != nil {
						return err
					}
				default:
					if err := s.write(dir+"/"+rel, uuidLine()); err != nil {
						return err
					}
				}
			}
			if s.r.IntN(2) == 0 {
				if err := s.write(dir+"/model/extra.bin", uuidLine()); err != nil {
					return err
				}
			}
			if s.r.IntN(2) == 0 {
				if err := s.write(dir+"/wifi-safe.flag", nil); err != nil {
					return err
				}
			}
			if s.r.IntN(8) == 0 {
				if err := s.write(dir+"/wifi-ignore.flag", nil); err != nil {
					return err
				}
			}
		}
		if err := s.write(fmt.Sprintf("effect/stage/%s%s/%s.eff", name, suffix, name), uuidLine()); err != nil {
			return err
		}
		if err := s.ui(name, suffix+".bntx"); err != nil {
			return err
		}
	}
	return nil
}

func (s *seeder) ui(name, suffix string) error {
	for slot := range 5 {
		rel := fmt.Sprintf("ui/replace/stage/stage_%d/stage_%d_%s%s", slot, slot, name, suffix)
		if err := s.write(rel, uuidLine()); err != nil {
			return err
		}
	}
	return nil
}

func printSeedSummary(w io.Writer, root string, opts seedOptions, files int, seed uint64) {
	fmt.Fprintf(w, "Successfully created %d files in %s\n", files, root)
	fmt.Fprintf(w, "Stages: %d, alts per stage: %d, seed: %d\n", opts.stages, opts.alts, seed)
}
