package clustering

import (
	"fmt"
	"strings"

	"github.com/justestif/spotify-track-export/internal/spotify"
)

const sampleTrackCount = 3

// FormatSummary returns a human-readable summary of detected moods.
// Shows track count, centroid and the first 3 tracks of each mood.
// Outliers are summarized by count only.
func FormatSummary(moods []Mood, outliers []spotify.EnrichedTrack) string {
	var sb strings.Builder

	totalTracks := len(outliers)
	for _, m := range moods {
		totalTracks += len(m.Tracks)
	}

	if len(moods) == 0 {
		sb.WriteString(fmt.Sprintf("No moods found from %d tracks", totalTracks))
		if len(outliers) > 0 {
			sb.WriteString(fmt.Sprintf(" (%d outliers skipped)", len(outliers)))
		}
		sb.WriteString("\n")
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("Found %d %s from %d tracks", len(moods), plural(len(moods), "mood"), totalTracks))
	if len(outliers) > 0 {
		sb.WriteString(fmt.Sprintf(" (%d outliers skipped)", len(outliers)))
	}
	sb.WriteString("\n")

	for i, m := range moods {
		sb.WriteString("\n")
		sb.WriteString(formatMood(i+1, m))
	}

	return sb.String()
}

// formatMood formats a single mood with its sample tracks.
func formatMood(num int, m Mood) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Mood %d: %s (%d %s)\n",
		num, m.Name, len(m.Tracks), plural(len(m.Tracks), "track")))
	if m.Description != "" {
		sb.WriteString(fmt.Sprintf("  %s\n", m.Description))
	}
	sb.WriteString(fmt.Sprintf("  energy %.2f, valence %.2f, danceability %.2f, acousticness %.2f\n",
		m.Centroid["energy"], m.Centroid["valence"], m.Centroid["danceability"], m.Centroid["acousticness"]))

	sampleCount := min(sampleTrackCount, len(m.Tracks))
	for _, track := range m.Tracks[:sampleCount] {
		sb.WriteString(fmt.Sprintf("  • \"%s\" - %s\n", track.Name, spotify.JoinArtists(track.Artists)))
	}

	if remaining := len(m.Tracks) - sampleTrackCount; remaining > 0 {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", remaining))
	}

	return sb.String()
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
