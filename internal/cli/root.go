// Package cli implements the spotify-track-export command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/justestif/spotify-track-export/internal/auth"
	"github.com/justestif/spotify-track-export/internal/clustering"
	"github.com/justestif/spotify-track-export/internal/config"
	"github.com/justestif/spotify-track-export/internal/export"
	"github.com/justestif/spotify-track-export/internal/spotify"
	"github.com/justestif/spotify-track-export/internal/sync"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

// app carries flag values and the state built from them for one invocation.
type app struct {
	configPath string
	logLevel   string
	outputDir  string
	writeMode  string
	timeout    time.Duration

	cfg    *config.Config
	logger zerolog.Logger
}

// Execute runs the root command and exits with status 1 on failure.
// This is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	root, a := newRootCommand(os.Stderr)
	err := root.ExecuteContext(ctx)
	stop()

	if err != nil {
		a.logger.Error().Err(err).Msg("Unable to continue execution")
		os.Exit(1)
	}
}

// newRootCommand builds the command tree. Logs go to stderr.
func newRootCommand(stderr io.Writer) (*cobra.Command, *app) {
	a := &app{logger: newLogger(stderr, zerolog.InfoLevel)}

	root := &cobra.Command{
		Use:   "spotify-track-export",
		Short: "Export Spotify tracks to CSV",
		Long: `spotify-track-export authenticates against the Spotify Web API and exports
tracks to CSV files.

Run without a subcommand it exports the tracks of the configured playlist,
enriched with their audio features, to playlist_tracks_info.csv.

Credentials are read from config.yml. The first run exchanges the configured
authorization code and stores the refresh token it receives; later runs fall
back to that refresh token once the code has expired.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd, stderr)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runPlaylist(cmd, a.cfg.PlaylistName, 0)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", config.DefaultPath, "Configuration file")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides logLevel")
	flags.StringVar(&a.outputDir, "output-dir", "", "Directory for CSV files; overrides outputDir")
	flags.StringVar(&a.writeMode, "write-mode", "", "What to do with existing files (overwrite, append, fail-if-exists); overrides writeMode")
	flags.DurationVar(&a.timeout, "timeout", 0, "Timeout of each HTTP request; overrides requestTimeout")

	root.AddCommand(
		newPlaylistCommand(a),
		newLikedCommand(a),
		newAuthorizeCommand(a),
		newLogoutCommand(a),
	)

	return root, a
}

// load reads the configuration, applies flag overrides and sets up logging.
func (a *app) load(cmd *cobra.Command, stderr io.Writer) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if flags.Changed("output-dir") {
		cfg.OutputDir = a.outputDir
	}
	if flags.Changed("write-mode") {
		cfg.WriteMode = a.writeMode
	}
	if flags.Changed("timeout") {
		cfg.RequestTimeout = a.timeout
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = newLogger(stderr, level)
	a.logger.Debug().
		Str("config", a.configPath).
		Str("output_dir", cfg.OutputDir).
		Str("write_mode", cfg.WriteMode).
		Dur("timeout", cfg.RequestTimeout).
		Msg("Configuration loaded")
	return nil
}

// httpClient returns the client used for every outbound request.
func (a *app) httpClient() *http.Client {
	return &http.Client{Timeout: a.cfg.RequestTimeout}
}

// service wires the token authority, the API fetcher and the writer.
func (a *app) service(opts ...sync.Option) (*sync.Service, error) {
	mode, err := export.ParseMode(a.cfg.WriteMode)
	if err != nil {
		return nil, err
	}

	client := a.httpClient()
	store := auth.NewTokenStore(a.cfg.RefreshTokenPath)
	authority := auth.NewAuthority(a.cfg.Credentials, store, client, a.logger)
	fetcher := spotify.NewFetcher(client, a.logger)
	writer := export.NewWriter(mode, a.logger)

	opts = append([]sync.Option{
		sync.WithOutputDir(a.cfg.OutputDir),
		sync.WithBaseURL(a.cfg.APIBaseURL),
		sync.WithLogger(a.logger),
	}, opts...)
	return sync.New(authority, fetcher, writer, opts...), nil
}

// runPlaylist exports the playlist called name. moods > 0 also clusters the
// tracks into that many moods and prints a summary.
func (a *app) runPlaylist(cmd *cobra.Command, name string, moods int) error {
	var opts []sync.Option
	if moods > 0 {
		cfg := clustering.DefaultMoodConfig()
		cfg.NumClusters = moods
		opts = append(opts, sync.WithMoods(cfg))
	}

	svc, err := a.service(opts...)
	if err != nil {
		return err
	}

	result, err := svc.ExportPlaylist(cmd.Context(), name)
	if err != nil {
		return err
	}

	a.logger.Info().
		Str("playlist", result.Playlist.Name).
		Str("path", result.Path).
		Int("tracks", result.Rows).
		Msg("Playlist exported")

	if result.MoodsPath != "" {
		fmt.Fprint(cmd.OutOrStdout(), clustering.FormatSummary(result.Moods, result.Outliers))
	}
	return nil
}
