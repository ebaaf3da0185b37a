// Command spotify-track-export exports Spotify liked tracks and playlist
// tracks to CSV files.
package main

import "github.com/justestif/spotify-track-export/internal/cli"

func main() {
	cli.Execute()
}
