package audio

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestClipDuration(t *testing.T) {
	cases := []struct {
		name string
		clip *Clip
		want time.Duration
	}{
		{
			name: "one second mono",
			clip: &Clip{SampleRate: 44100, Channels: 1, Samples: make([]int16, 44100)},
			want: time.Second,
		},
		{
			name: "half second stereo",
			clip: &Clip{SampleRate: 44100, Channels: 2, Samples: make([]int16, 44100)},
			want: 500 * time.Millisecond,
		},
		{
			name: "nil clip",
			clip: nil,
			want: 0,
		},
		{
			name: "zero sample rate",
			clip: &Clip{SampleRate: 0, Channels: 1, Samples: make([]int16, 10)},
			want: 0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.clip.Duration(); got != tc.want {
				t.Fatalf("Duration() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestClipPCMBytesLittleEndian(t *testing.T) {
	c := &Clip{SampleRate: 44100, Channels: 1, Samples: []int16{0, 1, -1, 32767, -32768}}
	b := c.PCMBytes()
	if len(b) != len(c.Samples)*2 {
		t.Fatalf("PCMBytes() len = %d, want %d", len(b), len(c.Samples)*2)
	}
	for i, want := range c.Samples {
		got := int16(binary.LittleEndian.Uint16(b[i*2:]))
		if got != want {
			t.Fatalf("sample %d = %d, want %d", i, got, want)
		}
	}
}

func checkWAVHeader(t *testing.T, wav []byte, wantRate uint32, wantDataSize uint32) {
	t.Helper()
	if len(wav) != 44+int(wantDataSize) {
		t.Fatalf("wav len = %d, want %d", len(wav), 44+int(wantDataSize))
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		t.Fatalf("missing RIFF/WAVE markers: %q %q", wav[0:4], wav[8:12])
	}
	if rate := binary.LittleEndian.Uint32(wav[24:28]); rate != wantRate {
		t.Fatalf("sample rate = %d, want %d", rate, wantRate)
	}
	if size := binary.LittleEndian.Uint32(wav[40:44]); size != wantDataSize {
		t.Fatalf("data size = %d, want %d", size, wantDataSize)
	}
}

func TestClipWAV(t *testing.T) {
	c := &Clip{SampleRate: 44100, Channels: 1, Samples: []int16{1, 2}}
	wav, err := c.WAV()
	if err != nil {
		t.Fatalf("WAV() error = %v", err)
	}
	checkWAVHeader(t, wav, 44100, 4)
	if got := int16(binary.LittleEndian.Uint16(wav[44:])); got != 1 {
		t.Fatalf("first payload sample = %d, want 1", got)
	}
}

func TestWaveformWAV(t *testing.T) {
	w := Waveform{SampleRate: 22050, PCM: []byte{1, 0, 2, 0}}
	wav, err := w.WAV()
	if err != nil {
		t.Fatalf("WAV() error = %v", err)
	}
	checkWAVHeader(t, wav, 22050, 4)
}

func TestClipWriteWAVFile(t *testing.T) {
	c := &Clip{SampleRate: 44100, Channels: 1, Samples: []int16{5, 6, 7}}
	path := filepath.Join(t.TempDir(), "clip.wav")
	if err := c.WriteWAVFile(path); err != nil {
		t.Fatalf("WriteWAVFile() error = %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	checkWAVHeader(t, b, 44100, 6)
}
