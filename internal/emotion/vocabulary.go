package emotion

// VoiceID selects which synthesis speaker profile renders a reply.
type VoiceID int

// DefaultVoice is used when no marker resolves and by the default voice mode.
const DefaultVoice VoiceID = 7

// BaseVoice is the single speaker used by the base voice mode.
const BaseVoice VoiceID = 1

// Mode selects how resolved emotion affects the synthesis voice.
type Mode string

const (
	// ModeEmoji maps the resolved marker to its speaker profile.
	ModeEmoji Mode = "emoji"
	// ModeDefault ignores resolved emotion and always speaks with DefaultVoice.
	ModeDefault Mode = "default"
	// ModeBase always speaks with BaseVoice.
	ModeBase Mode = "base"
)

// Vocabulary is a fixed, closed set of emotion markers mapped one-to-one to
// synthesis speaker profiles. Immutable for the process lifetime.
type Vocabulary struct {
	markers      map[rune]VoiceID
	defaultVoice VoiceID
}

// DefaultVocabulary returns the eleven-marker vocabulary matching the speaker
// numbering of the emotive synthesis checkpoint.
func DefaultVocabulary() *Vocabulary {
	return &Vocabulary{
		defaultVoice: DefaultVoice,
		markers: map[rune]VoiceID{
			'😍': 1,
			'😡': 2,
			'😎': 3,
			'😭': 4,
			'🙄': 5,
			'😁': 6,
			'🙂': 7,
			'🤣': 8,
			'😮': 9,
			'😅': 10,
			'🤔': 11,
		},
	}
}

// Lookup reports the speaker mapped to a marker character.
func (v *Vocabulary) Lookup(r rune) (VoiceID, bool) {
	id, ok := v.markers[r]
	return id, ok
}

// Contains reports whether r is part of the marker set.
func (v *Vocabulary) Contains(r rune) bool {
	_, ok := v.markers[r]
	return ok
}

// Default returns the voice used when no marker is found.
func (v *Vocabulary) Default() VoiceID {
	return v.defaultVoice
}

// Size reports how many markers the vocabulary holds.
func (v *Vocabulary) Size() int {
	return len(v.markers)
}

// ValidVoice reports whether id is the default voice or one of the mapped speakers.
func (v *Vocabulary) ValidVoice(id VoiceID) bool {
	if id == v.defaultVoice {
		return true
	}
	for _, mapped := range v.markers {
		if mapped == id {
			return true
		}
	}
	return false
}
