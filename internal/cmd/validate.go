package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dendrascience/arcalts/alts"
	"github.com/dendrascience/arcalts/arc"
	"github.com/dendrascience/arcalts/internal/logging"
	"github.com/spf13/cobra"
)

// NewValidateCmd creates and returns the validate subcommand for the arcalts CLI.
// It checks archives for table and sibling chain consistency.
func NewValidateCmd() *cobra.Command {
	var (
		storagePath string
		verbose     bool
	)

	cmd := &cobra.Command{
		Use:   "validate [ARCHIVE]",
		Short: "Validate .arcz archives for corruption and consistency",
		Long: `Validate .arcz archives for corruption and consistency issues.

This command loads each archive, verifies every data block against its
content hash, checks that the lookup tables are sorted and in range and that
every folder's sibling chain is acyclic, then builds the alt catalog and
checks the reordered chains again. With --path every .arcz below a directory
is validated.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			archiveArg(&cfg, args)

			var archives []string
			switch {
			case storagePath != "":
				archives, err = findArchives(storagePath)
				if err != nil {
					return err
				}
			case cfg.Archive != "":
				archives = []string{cfg.Archive}
			default:
				return fmt.Errorf("an archive or --path is required")
			}
			return runValidate(cmd.OutOrStdout(), archives, cfg.MaxAlts, verbose)
		},
	}

	cmd.Flags().StringVarP(&storagePath, "path", "p", "", "Validate every archive below this directory")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	return cmd
}

func findArchives(root string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(p, ".arcz") {
			out = append(out, p)
		}
		return nil
	})
	return out, err
}

func runValidate(w io.Writer, archives []string, maxAlts int, verbose bool) error {
	var totalErrors int
	for _, p := range archives {
		if verbose {
			fmt.Fprintf(w, "Validating archive: %s\n", p)
		}
		problems := validateArchive(p, maxAlts)
		if len(problems) > 0 {
			fmt.Fprintf(w, "Archive %s has %d errors:\n", p, len(problems))
			for _, problem := range problems {
				fmt.Fprintf(w, "  - %s\n", problem)
			}
			totalErrors += len(problems)
		} else if verbose {
			fmt.Fprintf(w, "  ✓ Archive is valid\n")
		}
	}

	fmt.Fprintf(w, "\nValidation complete: %d archives checked, %d errors found\n", len(archives), totalErrors)
	if totalErrors > 0 {
		return fmt.Errorf("%d errors in %d archives", totalErrors, len(archives))
	}
	return nil
}

func validateArchive(p string, maxAlts int) []string {
	idx, meta, err := arc.Load(p)
	if err != nil {
		return []string{err.Error()}
	}
	problems := idx.Validate()
	if blocks, err := arc.CountBlocks(p); err != nil {
		problems = append(problems, err.Error())
	} else if blocks != meta.BlockCount {
		problems = append(problems, fmt.Sprintf("metadata lists %d blocks, archive holds %d", meta.BlockCount, blocks))
	}
	if len(problems) > 0 {
		return problems
	}

	alts.BuildCatalog(idx, alts.CatalogOptions{MaxAlts: maxAlts, Logger: logging.L()})
	for _, problem := range idx.Validate() {
		problems = append(problems, "after alt discovery: "+problem)
	}
	return problems
}
