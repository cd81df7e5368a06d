package emotion

import (
	"strings"
	"unicode"
)

// fallbackUtterance replaces replies that sanitize to nothing (emoji-only
// replies happen; the synthesizer cannot speak an empty string).
const fallbackUtterance = "nice"

// Resolver derives the synthesis voice for a raw assistant reply and strips
// everything the synthesizer cannot render.
type Resolver struct {
	vocab *Vocabulary
	mode  Mode
}

func NewResolver(vocab *Vocabulary, mode Mode) *Resolver {
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	switch mode {
	case ModeEmoji, ModeDefault, ModeBase:
	default:
		mode = ModeEmoji
	}
	return &Resolver{vocab: vocab, mode: mode}
}

// Resolve picks exactly one voice for the reply and returns the sanitized text.
// Markers are scanned left to right and the first one that maps to a speaker
// wins; the model is told to append exactly one, but it does not always behave.
// The returned text is never empty and never contains markers or parentheses.
func (r *Resolver) Resolve(raw string) (string, VoiceID) {
	voice := r.vocab.Default()

	if r.mode == ModeBase {
		voice = BaseVoice
	}

	if r.mode == ModeEmoji {
		for _, ch := range raw {
			if id, ok := r.vocab.Lookup(ch); ok {
				voice = id
				break
			}
		}
	}

	text := r.Sanitize(raw)
	if text == "" {
		text = fallbackUtterance
	}
	return text, voice
}

// Sanitize strips emotion markers, residual emoji glyphs, and the fixed set of
// characters the synthesizer cannot render. Punctuation outside that set is
// kept untouched, so sanitizing already-clean text is a no-op.
func (r *Resolver) Sanitize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))

	for _, ch := range raw {
		switch {
		case r.vocab.Contains(ch):
			continue
		case ch == '(' || ch == ')':
			continue
		case ch == '‍' || ch == '️' || ch == '⃣':
			// Emoji joiners and variation selectors left behind by stripped glyphs.
			continue
		case unicode.In(ch, unicode.So, unicode.Sk):
			// Off-vocabulary emoji the model was told not to use.
			continue
		default:
			b.WriteRune(ch)
		}
	}

	return strings.TrimSpace(b.String())
}

// Mode reports the active voice mode.
func (r *Resolver) Mode() Mode {
	return r.mode
}

// Vocabulary returns the resolver's marker set.
func (r *Resolver) Vocabulary() *Vocabulary {
	return r.vocab
}
