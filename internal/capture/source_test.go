// ABOUTME: Tests for capture source selection, pacing and tone generation
// ABOUTME: Uses short chunk durations to keep paced runs fast
package capture

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Resonate-Protocol/udp-audio/pkg/audio"
)

func TestFramesPerChunk(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want int
	}{
		{"defaults", Options{}, 960},
		{"44.1k 10ms", Options{SampleRate: 44100, Chunk: 10 * time.Millisecond}, 441},
		{"tiny chunk", Options{SampleRate: 8000, Chunk: time.Microsecond}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.opts.FramesPerChunk(); got != tt.want {
				t.Errorf("expected %d frames, got %d", tt.want, got)
			}
		})
	}
}

func TestToneReader(t *testing.T) {
	tests := []struct {
		format audio.SampleFormat
		peak   int32
	}{
		{audio.Int16Stereo, 16383},
		{audio.Int32Stereo, 1073741823},
	}

	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			// 1 kHz at 8 kHz gives a quarter period every 2 frames
			r := NewToneReader(tt.format, 8000, 1000)
			buf := make([]byte, 8*tt.format.FrameSize())

			n, err := r.ReadFrames(buf)
			if err != nil {
				t.Fatalf("ReadFrames failed: %v", err)
			}
			if n != len(buf) {
				t.Fatalf("expected %d bytes, got %d", len(buf), n)
			}

			var maxV int32
			for i := 0; i < 8; i++ {
				off := i * tt.format.FrameSize()
				left := audio.ReadSample(tt.format, buf, off)
				right := audio.ReadSample(tt.format, buf, off+tt.format.BytesPerSample())
				if left != right {
					t.Fatalf("frame %d: channels differ (%d vs %d)", i, left, right)
				}
				if left > maxV {
					maxV = left
				}
			}

			if first := audio.ReadSample(tt.format, buf, 0); first != 0 {
				t.Errorf("expected tone to start at 0, got %d", first)
			}
			if d := maxV - tt.peak; d < -1 || d > 1 {
				t.Errorf("expected peak near %d, got %d", tt.peak, maxV)
			}
		})
	}
}

func TestToneReaderContinuesPhase(t *testing.T) {
	whole := NewToneReader(audio.Int16Stereo, 48000, 440)
	a := make([]byte, 20*audio.Int16Stereo.FrameSize())
	whole.ReadFrames(a)

	split := NewToneReader(audio.Int16Stereo, 48000, 440)
	b := make([]byte, len(a))
	half := len(a) / 2
	split.ReadFrames(b[:half])
	split.ReadFrames(b[half:])

	if string(a) != string(b) {
		t.Error("split reads should produce the same samples as one read")
	}
}

func TestPacedRunStopsOnErrStop(t *testing.T) {
	opts := Options{Format: audio.Int32Stereo, SampleRate: 48000, Chunk: time.Millisecond}
	src := NewTone(opts)
	defer src.Close()

	var sizes []int
	err := src.Run(context.Background(), func(raw []byte) error {
		sizes = append(sizes, len(raw))
		if len(sizes) == 3 {
			return ErrStop
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	want := 48 * audio.Int32Stereo.FrameSize()
	for i, n := range sizes {
		if n != want {
			t.Errorf("buffer %d: expected %d bytes, got %d", i, want, n)
		}
	}
	if len(sizes) != 3 {
		t.Errorf("expected 3 buffers, got %d", len(sizes))
	}
}

func TestPacedRunKeepsGoingOnHandlerError(t *testing.T) {
	src := NewTone(Options{Format: audio.Int16Stereo, Chunk: time.Millisecond})

	calls := 0
	err := src.Run(context.Background(), func(raw []byte) error {
		calls++
		if calls < 3 {
			return errors.New("send failed")
		}
		return ErrStop
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestPacedRunStopsOnCancel(t *testing.T) {
	src := NewTone(Options{Format: audio.Int16Stereo, Chunk: time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- src.Run(ctx, func(raw []byte) error { return nil })
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected nil error on cancel, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	wav := filepath.Join(dir, "clip.wav")
	if err := os.WriteFile(wav, []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}

	opts := Options{Format: audio.Int16Stereo}

	t.Run("tone", func(t *testing.T) {
		for _, spec := range []string{"", "tone", "TONE"} {
			src, err := Open(spec, opts)
			if err != nil {
				t.Fatalf("Open(%q) failed: %v", spec, err)
			}
			if src.Describe() != "tone 440 Hz" {
				t.Errorf("unexpected description %q", src.Describe())
			}
		}
	})

	t.Run("websocket", func(t *testing.T) {
		src, err := Open("ws", opts)
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		if _, ok := src.(*WebSocketSource); !ok {
			t.Errorf("expected *WebSocketSource, got %T", src)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := Open(filepath.Join(dir, "nope.mp3"), opts); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("unsupported extension", func(t *testing.T) {
		if _, err := Open(wav, opts); err == nil {
			t.Error("expected error for .wav")
		}
	})

	t.Run("invalid format", func(t *testing.T) {
		if _, err := Open("tone", Options{Format: audio.SampleFormat(99)}); err == nil {
			t.Error("expected error for invalid format")
		}
	})
}
