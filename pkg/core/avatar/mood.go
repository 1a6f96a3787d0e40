package avatar

// Mood is the avatar's visible emotional state. Exactly one mood is active at
// any instant.
type Mood int

const (
	MoodIdle Mood = iota
	MoodConnecting
	MoodListening
	MoodSpeaking
	MoodHappy
	MoodAngry
)

func (m Mood) String() string {
	switch m {
	case MoodIdle:
		return "idle"
	case MoodConnecting:
		return "connecting"
	case MoodListening:
		return "listening"
	case MoodSpeaking:
		return "speaking"
	case MoodHappy:
		return "happy"
	case MoodAngry:
		return "angry"
	default:
		return "unknown"
	}
}

// MarshalText lets moods serialize as their lowercase names.
func (m Mood) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}
