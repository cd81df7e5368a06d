package emotion

import "testing"

func TestResolveVoiceSelection(t *testing.T) {
	cases := []struct {
		name      string
		mode      Mode
		in        string
		wantText  string
		wantVoice VoiceID
	}{
		{
			name:      "no markers uses default voice",
			mode:      ModeEmoji,
			in:        "Hello there, friend.",
			wantText:  "Hello there, friend.",
			wantVoice: DefaultVoice,
		},
		{
			name:      "single trailing marker",
			mode:      ModeEmoji,
			in:        "I am doing great 😎",
			wantText:  "I am doing great",
			wantVoice: 3,
		},
		{
			name:      "first marker in appearance order wins",
			mode:      ModeEmoji,
			in:        "So funny 🤣 but also sad 😭",
			wantText:  "So funny  but also sad",
			wantVoice: 8,
		},
		{
			name:      "default mode ignores markers",
			mode:      ModeDefault,
			in:        "Love it 😍",
			wantText:  "Love it",
			wantVoice: DefaultVoice,
		},
		{
			name:      "base mode always speaker one",
			mode:      ModeBase,
			in:        "Angry 😡",
			wantText:  "Angry",
			wantVoice: BaseVoice,
		},
		{
			name:      "emoji only reply falls back to fixed utterance",
			mode:      ModeEmoji,
			in:        "😁",
			wantText:  "nice",
			wantVoice: 6,
		},
		{
			name:      "whitespace only reply falls back",
			mode:      ModeEmoji,
			in:        "   ",
			wantText:  "nice",
			wantVoice: DefaultVoice,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewResolver(DefaultVocabulary(), tc.mode)
			gotText, gotVoice := r.Resolve(tc.in)
			if gotText != tc.wantText {
				t.Fatalf("Resolve(%q) text = %q, want %q", tc.in, gotText, tc.wantText)
			}
			if gotVoice != tc.wantVoice {
				t.Fatalf("Resolve(%q) voice = %d, want %d", tc.in, gotVoice, tc.wantVoice)
			}
		})
	}
}

func TestResolveVoiceAlwaysValid(t *testing.T) {
	vocab := DefaultVocabulary()
	r := NewResolver(vocab, ModeEmoji)
	inputs := []string{"", "plain", "😎", "🤔🤔🤔", "(aside) 🙄", "🚀 off vocabulary"}
	for _, in := range inputs {
		text, voice := r.Resolve(in)
		if text == "" {
			t.Fatalf("Resolve(%q) returned empty text", in)
		}
		if !vocab.ValidVoice(voice) {
			t.Fatalf("Resolve(%q) voice = %d, not in vocabulary", in, voice)
		}
	}
}

func TestSanitize(t *testing.T) {
	r := NewResolver(DefaultVocabulary(), ModeEmoji)

	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "strips parentheses but keeps other punctuation",
			in:   "Well (obviously), yes! Right?",
			want: "Well obviously, yes! Right?",
		},
		{
			name: "strips off-vocabulary emoji",
			in:   "Blast off 🚀 now",
			want: "Blast off  now",
		},
		{
			name: "strips vocabulary markers anywhere",
			in:   "😅 that was close 😅",
			want: "that was close",
		},
		{
			name: "keeps dashes and quotes",
			in:   `She said "wait" - then left.`,
			want: `She said "wait" - then left.`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := r.Sanitize(tc.in); got != tc.want {
				t.Fatalf("Sanitize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	r := NewResolver(DefaultVocabulary(), ModeEmoji)
	inputs := []string{
		"I am doing great 😎",
		"Well (obviously), yes!",
		"plain text, no markers.",
	}
	for _, in := range inputs {
		once := r.Sanitize(in)
		twice := r.Sanitize(once)
		if once != twice {
			t.Fatalf("Sanitize not idempotent: %q -> %q -> %q", in, once, twice)
		}
	}
}

func TestVocabularyMapping(t *testing.T) {
	vocab := DefaultVocabulary()
	if vocab.Size() != 11 {
		t.Fatalf("vocabulary size = %d, want 11", vocab.Size())
	}
	want := map[rune]VoiceID{
		'😍': 1, '😡': 2, '😎': 3, '😭': 4, '🙄': 5,
		'😁': 6, '🙂': 7, '🤣': 8, '😮': 9, '😅': 10, '🤔': 11,
	}
	for marker, id := range want {
		got, ok := vocab.Lookup(marker)
		if !ok {
			t.Fatalf("marker %q missing from vocabulary", marker)
		}
		if got != id {
			t.Fatalf("marker %q = voice %d, want %d", marker, got, id)
		}
	}
	if vocab.Default() != DefaultVoice {
		t.Fatalf("default voice = %d, want %d", vocab.Default(), DefaultVoice)
	}
}
