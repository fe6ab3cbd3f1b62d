package cmd

import (
	"fmt"
	"io"

	"github.com/dendrascience/arcalts/arc"
	"github.com/dendrascience/arcalts/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewPackCmd creates and returns the pack subcommand for the arcalts CLI.
// It packs a directory tree into an .arcz archive.
func NewPackCmd() *cobra.Command {
	var (
		metadataPath string
		verbose      bool
	)

	cmd := &cobra.Command{
		Use:   "pack SOURCE_DIR ARCHIVE",
		Short: "Pack a directory tree into an .arcz archive",
		Long: `Pack a directory tree into an .arcz archive.

Folders and files are added in lexical order. Files with identical content
share one data block, which is how alt folders reuse their base files.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(cmd); err != nil {
				return err
			}
			return runPack(cmd.OutOrStdout(), args[0], args[1], metadataPath, verbose)
		},
	}

	cmd.Flags().StringVarP(&metadataPath, "metadata", "m", "", "Also write the archive metadata to this path")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	return cmd
}

func runPack(w io.Writer, src, dest, metadataPath string, verbose bool) error {
	log := logging.L()

	b := arc.NewBuilder()
	if err := b.AddTree(src); err != nil {
		return fmt.Errorf("read %s: %w", src, err)
	}

	meta, err := b.Pack(dest)
	if err != nil {
		return fmt.Errorf("pack %s: %w", dest, err)
	}
	log.Info("archive packed",
		zap.String("archive", dest),
		zap.Int("files", meta.FileCount),
		zap.Int("blocks", meta.BlockCount))

	if metadataPath != "" {
		if err := meta.Save(metadataPath); err != nil {
			return fmt.Errorf("save metadata: %w", err)
		}
	}

	fmt.Fprintf(w, "Packed %d files in %d folders into %s\n", meta.FileCount, meta.FolderCount, dest)
	if verbose {
		fmt.Fprintf(w, "  blocks: %d\n", meta.BlockCount)
		fmt.Fprintf(w, "  uncompressed: %d bytes\n", meta.UncompressedSize)
		fmt.Fprintf(w, "  compressed: %d bytes\n", meta.CompressedSize)
	}
	return nil
}
