package spotify

import (
	"strconv"
	"strings"

	"github.com/zmb3/spotify/v2"
)

// ArtistSeparator joins artist names in a single CSV column.
const ArtistSeparator = ", "

// TrackHeader is the column order of the liked-tracks export.
var TrackHeader = []string{"name", "artist", "duration_ms", "added_at"}

// EnrichedTrackHeader is the column order of the playlist export.
var EnrichedTrackHeader = []string{
	"id", "name", "artist", "popularity", "explicit", "danceability",
	"energy", "key", "loudness", "mode", "speechiness", "acousticness",
	"instrumentalness", "liveness", "valence", "tempo", "type",
	"time_signature", "duration_ms",
}

// Track is a liked track.
type Track struct {
	Name       string
	Artists    []string // In the order the API lists them
	DurationMs int
	AddedAt    string // As returned by the API (RFC 3339)
}

// Row renders the track in TrackHeader order.
func (t Track) Row() []string {
	return []string{
		t.Name,
		JoinArtists(t.Artists),
		strconv.Itoa(t.DurationMs),
		t.AddedAt,
	}
}

// Playlist identifies one of the user's playlists.
type Playlist struct {
	ID   string
	Name string
}

// EnrichedTrack merges playlist track metadata with its audio features.
type EnrichedTrack struct {
	ID         string
	Name       string
	Artists    []string
	Popularity int
	Explicit   bool

	Danceability     float32
	Energy           float32
	Key              int
	Loudness         float32
	Mode             int
	Speechiness      float32
	Acousticness     float32
	Instrumentalness float32
	Liveness         float32
	Valence          float32
	Tempo            float32
	Type             string
	TimeSignature    int
	DurationMs       int // From the audio-feature vector
}

// Row renders the track in EnrichedTrackHeader order.
func (t EnrichedTrack) Row() []string {
	return []string{
		t.ID,
		t.Name,
		JoinArtists(t.Artists),
		strconv.Itoa(t.Popularity),
		strconv.FormatBool(t.Explicit),
		formatFloat(t.Danceability),
		formatFloat(t.Energy),
		strconv.Itoa(t.Key),
		formatFloat(t.Loudness),
		strconv.Itoa(t.Mode),
		formatFloat(t.Speechiness),
		formatFloat(t.Acousticness),
		formatFloat(t.Instrumentalness),
		formatFloat(t.Liveness),
		formatFloat(t.Valence),
		formatFloat(t.Tempo),
		t.Type,
		strconv.Itoa(t.TimeSignature),
		strconv.Itoa(t.DurationMs),
	}
}

// JoinArtists renders artist names for a CSV column.
func JoinArtists(artists []string) string {
	return strings.Join(artists, ArtistSeparator)
}

// SplitArtists parses a column written by JoinArtists.
func SplitArtists(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ArtistSeparator)
}

// artistNames collects artist names, keeping the API order.
func artistNames(artists []spotify.SimpleArtist) []string {
	names := make([]string, len(artists))
	for i, a := range artists {
		names[i] = a.Name
	}
	return names
}

func formatFloat(f float32) string {
	return strconv.FormatFloat(float64(f), 'f', -1, 32)
}
