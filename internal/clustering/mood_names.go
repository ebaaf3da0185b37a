package clustering

// moodName creates a descriptive name based on audio feature centroid values.
// Uses a 2x2 energy/valence quadrant system with acousticness modifier.
//
// Quadrants:
//   - High Energy + High Valence = "Upbeat Party"
//   - High Energy + Low Valence  = "Intense & Dark"
//   - Low Energy  + High Valence = "Chill & Happy"
//   - Low Energy  + Low Valence  = "Reflective & Melancholy"
//
// Acousticness modifier: if > 0.6, appends "(Acoustic)" to the name.
func moodName(centroid map[string]float32) string {
	energy := centroid["energy"]
	valence := centroid["valence"]

	var baseName string
	switch {
	case energy > 0.6 && valence > 0.5:
		baseName = "Upbeat Party"
	case energy > 0.6:
		baseName = "Intense & Dark"
	case valence > 0.5:
		baseName = "Chill & Happy"
	default:
		baseName = "Reflective & Melancholy"
	}

	if centroid["acousticness"] > 0.6 {
		return baseName + " (Acoustic)"
	}
	return baseName
}

// MoodCategory is the display form of a centroid.
type MoodCategory struct {
	Name        string
	Energy      float32 // Average energy level
	Valence     float32 // Average positivity
	Description string
}

// describeMood names a centroid and adds a short description of its quadrant.
func describeMood(centroid map[string]float32) MoodCategory {
	energy := centroid["energy"]
	valence := centroid["valence"]

	var description string
	switch {
	case energy > 0.6 && valence > 0.5:
		description = "High-energy, positive vibes for dancing and celebrations"
	case energy > 0.6:
		description = "Intense, driving energy with darker emotional tones"
	case valence > 0.5:
		description = "Relaxed and uplifting, good for unwinding"
	default:
		description = "Contemplative and introspective, for quiet moments"
	}

	return MoodCategory{
		Name:        moodName(centroid),
		Energy:      energy,
		Valence:     valence,
		Description: description,
	}
}
