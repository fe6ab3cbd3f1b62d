package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dendrascience/arcalts/alts"
	"github.com/dendrascience/arcalts/pathhash"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewCatalogCmd creates and returns the catalog subcommand for the arcalts CLI.
func NewCatalogCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "catalog [ARCHIVE]",
		Short: "List the stage alts discovered in an archive",
		Long: `List every stage with alts and, per alt, its wifi flags and how many
folders it remaps. Use --format yaml for machine readable output.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			archiveArg(&cfg, args)
			s, err := openSession(cfg)
			if err != nil {
				return err
			}
			return writeCatalog(cmd.OutOrStdout(), s.catalog, s.idx.Labels(), format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format (text, yaml)")

	return cmd
}

type catalogAlt struct {
	Ordinal        int  `yaml:"ordinal"`
	Folders        int  `yaml:"folders"`
	SharedFiles    int  `yaml:"shared_files"`
	NormalWifiSafe bool `yaml:"normal_wifi_safe"`
	NormalIgnore   bool `yaml:"normal_ignore"`
	BattleWifiSafe bool `yaml:"battle_wifi_safe"`
	BattleIgnore   bool `yaml:"battle_ignore"`
}

type catalogStage struct {
	Stage     string       `yaml:"stage"`
	HasBattle bool         `yaml:"has_battle"`
	Alts      []catalogAlt `yaml:"alts"`
}

func catalogReport(catalog alts.Catalog, labels *pathhash.Labels) []catalogStage {
	var out []catalogStage
	for _, info := range catalog.Stages() {
		st := catalogStage{Stage: labels.Format(info.Name), HasBattle: info.HasBattle}
		for _, a := range info.Alts {
			st.Alts = append(st.Alts, catalogAlt{
				Ordinal:        a.Ordinal,
				Folders:        len(a.AltFolders),
				SharedFiles:    len(a.SharingBase),
				NormalWifiSafe: a.NormalWifiSafe,
				NormalIgnore:   a.NormalIgnore,
				BattleWifiSafe: a.BattleWifiSafe,
				BattleIgnore:   a.BattleIgnore,
			})
		}
		out = append(out, st)
	}
	return out
}

func writeCatalog(w io.Writer, catalog alts.Catalog, labels *pathhash.Labels, format string) error {
	report := catalogReport(catalog, labels)

	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("encode catalog: %w", err)
		}
		return enc.Close()
	case "text", "":
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STAGE\tALT\tFOLDERS\tSHARED\tNORMAL\tBATTLE")
	for _, st := range report {
		for _, a := range st.Alts {
			battle := "-"
			if st.HasBattle {
				battle = flags(a.BattleWifiSafe, a.BattleIgnore)
			}
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\t%s\n",
				st.Stage, a.Ordinal, a.Folders, a.SharedFiles,
				flags(a.NormalWifiSafe, a.NormalIgnore), battle)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%d stages, %d alts\n", len(catalog), catalog.AltCount())
	return nil
}

func flags(safe, ignore bool) string {
	switch {
	case safe && ignore:
		return "safe,ignored"
	case safe:
		return "safe"
	case ignore:
		return "ignored"
	}
	return "offline"
}
