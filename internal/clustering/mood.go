package clustering

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"

	"github.com/justestif/spotify-track-export/internal/spotify"
)

// MoodConfig holds mood-based clustering parameters.
type MoodConfig struct {
	NumClusters    int // Number of clusters to create (default: 3)
	MinClusterSize int // Minimum tracks per mood (smaller clusters become outliers)
}

// DefaultMoodConfig returns the recommended default configuration.
func DefaultMoodConfig() MoodConfig {
	return MoodConfig{
		NumClusters:    3,
		MinClusterSize: 3,
	}
}

// trackObservation wraps a track to implement clusters.Observation.
type trackObservation struct {
	index  int // Position in the input slice
	coords clusters.Coordinates
}

func (o trackObservation) Coordinates() clusters.Coordinates {
	return o.coords
}

func (o trackObservation) Distance(point clusters.Coordinates) float64 {
	return o.coords.Distance(point)
}

// featureNames defines the audio features used for clustering.
var featureNames = []string{"energy", "valence", "danceability", "acousticness"}

// DetectMoods groups tracks by audio feature similarity using k-means
// clustering. It returns the moods, largest first, and the tracks that ended
// up in clusters smaller than cfg.MinClusterSize. Every input track appears
// exactly once in the result. The input slice is not modified.
func DetectMoods(tracks []spotify.EnrichedTrack, cfg MoodConfig) ([]Mood, []spotify.EnrichedTrack, error) {
	if len(tracks) == 0 {
		return nil, nil, nil
	}

	if cfg.NumClusters <= 0 {
		cfg.NumClusters = DefaultMoodConfig().NumClusters
	}

	// Fewer tracks than clusters cannot be partitioned
	if len(tracks) < cfg.NumClusters {
		return nil, slices.Clone(tracks), nil
	}

	obs := make(clusters.Observations, len(tracks))
	for i := range tracks {
		obs[i] = trackObservation{index: i, coords: extractFeatures(tracks[i])}
	}

	result, err := kmeans.New().Partition(obs, cfg.NumClusters)
	if err != nil {
		return nil, nil, fmt.Errorf("k-means clustering: %w", err)
	}

	var moods []Mood
	var outlierIdx []int
	assigned := make([]bool, len(tracks))

	for _, cluster := range result {
		var idx []int
		for _, o := range cluster.Observations {
			// kmeans may hand a reseeded observation to two clusters
			if to, ok := o.(trackObservation); ok && !assigned[to.index] {
				assigned[to.index] = true
				idx = append(idx, to.index)
			}
		}

		if len(idx) == 0 {
			continue
		}
		if len(idx) < cfg.MinClusterSize {
			outlierIdx = append(outlierIdx, idx...)
			continue
		}

		members := pick(tracks, idx)
		centroid := centroidOf(members)
		category := describeMood(centroid)
		moods = append(moods, Mood{
			Name:        category.Name,
			Description: category.Description,
			Tracks:      members,
			Centroid:    centroid,
		})
	}

	for i, ok := range assigned {
		if !ok {
			outlierIdx = append(outlierIdx, i)
		}
	}

	slices.SortStableFunc(moods, func(a, b Mood) int {
		if c := cmp.Compare(len(b.Tracks), len(a.Tracks)); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})

	return moods, pick(tracks, outlierIdx), nil
}

// pick returns copies of tracks at the given positions, in playlist order.
func pick(tracks []spotify.EnrichedTrack, idx []int) []spotify.EnrichedTrack {
	if len(idx) == 0 {
		return nil
	}
	slices.Sort(idx)
	out := make([]spotify.EnrichedTrack, len(idx))
	for i, j := range idx {
		out[i] = tracks[j]
	}
	return out
}

// centroidOf averages the clustering features of tracks.
func centroidOf(tracks []spotify.EnrichedTrack) map[string]float32 {
	sum := make([]float64, len(featureNames))
	for _, t := range tracks {
		for i, v := range extractFeatures(t) {
			sum[i] += v
		}
	}

	centroid := make(map[string]float32, len(featureNames))
	for i, name := range featureNames {
		centroid[name] = float32(sum[i] / float64(len(tracks)))
	}
	return centroid
}

// extractFeatures extracts the audio features used for clustering as a coordinate vector.
func extractFeatures(t spotify.EnrichedTrack) clusters.Coordinates {
	return clusters.Coordinates{
		float64(t.Energy),
		float64(t.Valence),
		float64(t.Danceability),
		float64(t.Acousticness),
	}
}
