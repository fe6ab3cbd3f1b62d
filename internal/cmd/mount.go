package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"
	"github.com/dendrascience/arcalts/altfs"
	"github.com/dendrascience/arcalts/alts"
	"github.com/dendrascience/arcalts/internal/logging"
	"github.com/dendrascience/arcalts/internal/metrics"
	"github.com/dendrascience/arcalts/loader"
	"github.com/dendrascience/arcalts/pathhash"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// NewMountCmd creates and returns the mount subcommand for the arcalts CLI.
// It serves the remapped archive at a mountpoint.
func NewMountCmd() *cobra.Command {
	var (
		stage string
		alt   int
	)

	cmd := &cobra.Command{
		Use:   "mount ARCHIVE MOUNTPOINT",
		Short: "Mount an archive as a read-only filesystem",
		Long: `Mount an .arcz archive at the specified mountpoint.

With --stage and --alt the alt is patched in before serving, and the mount
shows the stage's files as that alt would load them. Metrics are served on
the configured address while mounted.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			archiveArg(&cfg, args)
			cfg.Mountpoint = args[1]
			if pathsOverlap(cfg.Archive, cfg.Mountpoint) {
				return fmt.Errorf("mountpoint %s overlaps archive %s", cfg.Mountpoint, cfg.Archive)
			}
			s, err := openSession(cfg)
			if err != nil {
				return err
			}
			return runMount(cmd.Context(), s, mountOptions{
				archive:     cfg.Archive,
				mountpoint:  cfg.Mountpoint,
				stage:       stage,
				alt:         alt,
				metricsAddr: metricsAddr(cfg.Metrics.Enabled, cfg.Metrics.Addr),
			})
		},
	}

	cmd.Flags().StringVar(&stage, "stage", "", "Stage whose alt is applied before mounting")
	cmd.Flags().IntVar(&alt, "alt", 0, "Alt ordinal to apply with --stage")

	return cmd
}

// pathsOverlap reports whether one path contains the other.
func pathsOverlap(a, b string) bool {
	a, errA := filepath.Abs(a)
	b, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return false
	}
	if a == b {
		return true
	}
	sep := string(filepath.Separator)
	return strings.HasPrefix(a, b+sep) || strings.HasPrefix(b, a+sep)
}

type mountOptions struct {
	archive     string
	mountpoint  string
	stage       string
	alt         int
	metricsAddr string // empty disables the metrics server
}

func metricsAddr(enabled bool, addr string) string {
	if !enabled {
		return ""
	}
	return addr
}

// applyStartupAlt patches stage's alt in through a one-slot selection list.
func applyStartupAlt(mgr *alts.Manager, stage string, alt int) int {
	h := pathhash.New(stage)
	mgr.SetSelectionCount(1)
	mgr.SetSelection(0, alts.Regular(h, alt))
	return mgr.Advance(h, false)
}

func runMount(ctx context.Context, s *session, opts mountOptions) error {
	log := logging.L()
	mountpoint := opts.mountpoint

	if opts.stage != "" {
		got := applyStartupAlt(s.mgr, opts.stage, opts.alt)
		log.Info("applied startup alt", zap.String("stage", opts.stage), zap.Int("requested", opts.alt), zap.Int("active", got))
	}

	filesystem := altfs.NewFS(s.mgr, loader.New(s.mgr, log), log)

	c, err := fuse.Mount(
		mountpoint,
		fuse.FSName("arcalts"),
		fuse.Subtype("arcalts"),
		fuse.ReadOnly(),
	)
	if err != nil {
		return fmt.Errorf("mount %s: %w", mountpoint, err)
	}
	defer c.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	var srv *http.Server
	if opts.metricsAddr != "" {
		srv = &http.Server{
			Addr:              opts.metricsAddr,
			Handler:           metrics.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			log.Info("serving metrics", zap.String("addr", opts.metricsAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		defer stop()
		log.Info("archive mounted", zap.String("mountpoint", mountpoint), zap.String("archive", opts.archive))
		return fs.Serve(c, filesystem)
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		if srv != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}
		if err := fuse.Unmount(mountpoint); err != nil {
			log.Warn("unmount failed", zap.Error(err))
		}
		return nil
	})

	err = g.Wait()
	_ = log.Sync()
	return err
}
