package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPlaylistCommand(a *app) *cobra.Command {
	var moods int

	cmd := &cobra.Command{
		Use:   "playlist [name]",
		Short: "Export the tracks of a playlist with their audio features",
		Long: `Export the tracks of one of your playlists to playlist_tracks_info.csv.

Each track is enriched with its audio features (danceability, energy, tempo
and so on), one request per track. The playlist is picked by exact name; if
none of your playlists has that name, the first one is exported instead.
Without a name, playlistName from the configuration is used.

Only the first page of playlists and of playlist tracks is read.

With --moods N the tracks are also grouped into N moods by k-means over
energy, valence, danceability and acousticness. The grouping is written to
playlist_moods.csv and summarized on stdout.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if moods < 0 {
				return fmt.Errorf("--moods must not be negative")
			}
			name := a.cfg.PlaylistName
			if len(args) == 1 {
				name = args[0]
			}
			return a.runPlaylist(cmd, name, moods)
		},
	}

	cmd.Flags().IntVar(&moods, "moods", 0, "Group tracks into this many moods (0 disables)")
	return cmd
}

func newLikedCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "liked",
		Short: "Export your liked tracks",
		Long: `Export your liked tracks to my_tracks_basic_info.csv with their name,
artists, duration and the time they were saved.

Only the first 50 liked tracks are read.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}

			result, err := svc.ExportLikedTracks(cmd.Context())
			if err != nil {
				return err
			}

			a.logger.Info().
				Str("path", result.Path).
				Int("tracks", result.Rows).
				Msg("Liked tracks exported")
			return nil
		},
	}
}
