// Package clustering groups playlist tracks into moods using their audio features.
package clustering

import (
	"strconv"

	"github.com/justestif/spotify-track-export/internal/spotify"
)

// OutlierMood labels tracks that fell into a cluster below the minimum size.
const OutlierMood = "Outlier"

// MoodHeader is the column order of the moods export.
var MoodHeader = []string{
	"mood", "id", "name", "artist", "energy", "valence", "danceability", "acousticness",
}

// Mood is a cluster of tracks with a similar vibe.
type Mood struct {
	Name        string                  // "Upbeat Party", "Chill & Happy (Acoustic)", ...
	Description string                  // One sentence about the mood
	Tracks      []spotify.EnrichedTrack // In playlist order
	Centroid    map[string]float32      // Average value per feature in featureNames
}

// Rows renders moods and outliers in MoodHeader order, one row per track.
func Rows(moods []Mood, outliers []spotify.EnrichedTrack) [][]string {
	var rows [][]string
	for _, m := range moods {
		for _, t := range m.Tracks {
			rows = append(rows, row(m.Name, t))
		}
	}
	for _, t := range outliers {
		rows = append(rows, row(OutlierMood, t))
	}
	return rows
}

func row(mood string, t spotify.EnrichedTrack) []string {
	return []string{
		mood,
		t.ID,
		t.Name,
		spotify.JoinArtists(t.Artists),
		formatFloat(t.Energy),
		formatFloat(t.Valence),
		formatFloat(t.Danceability),
		formatFloat(t.Acousticness),
	}
}

func formatFloat(f float32) string {
	return strconv.FormatFloat(float64(f), 'f', -1, 32)
}
