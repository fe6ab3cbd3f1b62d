package cmd

import (
	"fmt"
	"math/rand/v2"

	"github.com/dendrascience/arcalts/alts"
	"github.com/dendrascience/arcalts/arc"
	"github.com/dendrascience/arcalts/internal/config"
	"github.com/dendrascience/arcalts/internal/logging"
	"github.com/dendrascience/arcalts/version"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewRootCmd creates and returns the root cobra command for the arcalts CLI.
// It sets up all subcommands, command groups, and the shared flags.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "arcalts",
		Short: "arcalts - stage alt catalogs and a live remap of stage archives",
		Long: `arcalts discovers numbered variants of stage folders in an archive and
remaps the archive's lookup tables so that loading a stage loads the chosen
variant instead.

Use subcommands to perform different operations:
  - seed: Generate a sample stage tree on disk
  - pack: Pack a directory tree into an .arcz archive
  - validate: Check an archive's tables and sibling chains
  - catalog: List the alts discovered in an archive
  - simulate: Run a selection script against an archive
  - mount: Serve the remapped archive as a read-only filesystem`,
		Version:       version.GetFullVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format (console, json)")

	groupArchive := "archive"
	groupAlts := "alts"

	rootCmd.AddGroup(&cobra.Group{
		ID:    groupAlts,
		Title: "Alt Operations",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    groupArchive,
		Title: "Archive Commands",
	})

	mountCmd := NewMountCmd()
	catalogCmd := NewCatalogCmd()
	simulateCmd := NewSimulateCmd()
	packCmd := NewPackCmd()
	validateCmd := NewValidateCmd()
	seedCmd := NewSeedCmd()

	mountCmd.GroupID = groupAlts
	catalogCmd.GroupID = groupAlts
	simulateCmd.GroupID = groupAlts
	packCmd.GroupID = groupArchive
	validateCmd.GroupID = groupArchive
	seedCmd.GroupID = groupArchive

	rootCmd.AddCommand(mountCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(packCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// NewVersionCmd prints the build information.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			version.PrintVersion(cmd.OutOrStdout(), "arcalts")
		},
	}
}

// loadConfig reads --config, applies the logging flags and initializes the
// global logger.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if v, _ := cmd.Flags().GetString("log-format"); v != "" {
		cfg.Log.Format = v
	}
	if err := logging.Init(cfg.Log); err != nil {
		return cfg, fmt.Errorf("init logging: %w", err)
	}
	return cfg, nil
}

// session is an opened archive with its catalog and manager.
type session struct {
	idx     *arc.Index
	meta    arc.Metadata
	catalog alts.Catalog
	mgr     *alts.Manager
}

// openSession loads the archive, builds the catalog and a manager over it.
// Catalog building reorders variant folders, so it runs before anything else
// sees the index.
func openSession(cfg config.Config) (*session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	idx, meta, err := arc.Load(cfg.Archive)
	if err != nil {
		return nil, fmt.Errorf("load archive: %w", err)
	}

	log := logging.L()
	catalog := alts.BuildCatalog(idx, alts.CatalogOptions{MaxAlts: cfg.MaxAlts, Logger: log})

	opts := []alts.Option{alts.WithLogger(log)}
	if cfg.Seed != 0 {
		opts = append(opts, alts.WithRand(rand.New(rand.NewPCG(cfg.Seed, cfg.Seed))))
	}
	mgr := alts.NewManager(idx, catalog, opts...)
	mgr.SetOnline(cfg.Online)

	log.Info("archive opened",
		zap.String("archive", cfg.Archive),
		zap.String("packed_by", meta.ArcaltsVersion),
		zap.Int("files", idx.FilePathCount()),
		zap.Int("stages", len(catalog)))
	return &session{idx: idx, meta: meta, catalog: catalog, mgr: mgr}, nil
}

// archiveArg lets a positional archive path override the config.
func archiveArg(cfg *config.Config, args []string) {
	if len(args) > 0 && args[0] != "" {
		cfg.Archive = args[0]
	}
}
