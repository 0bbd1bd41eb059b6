// ABOUTME: Looping MP3 and FLAC file capture sources
// ABOUTME: Decodes to full-scale stereo, resamples to the stream rate and packs frames
package capture

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hajimehoshi/go-mp3"
	"github.com/mewkiz/flac"

	"github.com/Resonate-Protocol/udp-audio/pkg/audio"
	"github.com/Resonate-Protocol/udp-audio/pkg/audio/resample"
)

// maxEmptyReads bounds consecutive empty decodes before giving up
const maxEmptyReads = 8

// decodedStream yields interleaved stereo samples left-justified in 32 bits.
// The returned slice is valid until the next call.
type decodedStream interface {
	Next() ([]int32, error)
	SampleRate() int
	Close() error
}

// fileReader adapts a decodedStream to whole frames of the stream format
type fileReader struct {
	src       decodedStream
	format    audio.SampleFormat
	resampler *resample.Resampler
	out       []int32
	pending   []int32
}

func newFileReader(src decodedStream, format audio.SampleFormat, sampleRate int) *fileReader {
	r := &fileReader{src: src, format: format}
	if src.SampleRate() != sampleRate {
		r.resampler = resample.New(src.SampleRate(), sampleRate, audio.Channels)
	}
	return r
}

func (r *fileReader) ReadFrames(buf []byte) (int, error) {
	frames := len(buf) / r.format.FrameSize()
	need := frames * audio.Channels

	empty := 0
	for len(r.pending) < need {
		chunk, err := r.src.Next()
		if err != nil {
			return 0, err
		}
		if r.resampler != nil {
			if n := r.resampler.OutputSamplesNeeded(len(chunk)); cap(r.out) < n {
				r.out = make([]int32, n)
			}
			m := r.resampler.Resample(chunk, r.out[:cap(r.out)])
			chunk = r.out[:m]
		}
		if len(chunk) == 0 {
			empty++
			if empty >= maxEmptyReads {
				return 0, errors.New("decoder produced no samples")
			}
			continue
		}
		empty = 0
		r.pending = append(r.pending, chunk...)
	}

	for i := 0; i < frames; i++ {
		audio.PutFrame(r.format, buf, i, r.pending[i*2], r.pending[i*2+1])
	}
	r.pending = r.pending[:copy(r.pending, r.pending[need:])]

	return frames * r.format.FrameSize(), nil
}

func titleOf(path string) string {
	filename := filepath.Base(path)
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}

// mp3Stream decodes an MP3 file, looping at EOF
type mp3Stream struct {
	file    *os.File
	decoder *mp3.Decoder
	buf     []byte
	samples []int32
}

// mp3ChunkFrames is the number of stereo frames decoded per Next
const mp3ChunkFrames = 1152

func openMP3(path string) (*mp3Stream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open MP3 file: %w", err)
	}

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode MP3: %w", err)
	}

	return &mp3Stream{
		file:    f,
		decoder: decoder,
		buf:     make([]byte, mp3ChunkFrames*audio.Channels*2),
		samples: make([]int32, mp3ChunkFrames*audio.Channels),
	}, nil
}

func (s *mp3Stream) Next() ([]int32, error) {
	// MP3 decoder outputs little-endian int16 stereo
	n, err := io.ReadFull(s.decoder, s.buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, err
	}

	frames := n / (audio.Channels * 2)
	for i := 0; i < frames*audio.Channels; i++ {
		s.samples[i] = audio.FullScaleFromInt16(int16(binary.LittleEndian.Uint16(s.buf[i*2 : i*2+2])))
	}

	if err != nil {
		// Loop the audio - seek back to start
		if _, seekErr := s.file.Seek(0, io.SeekStart); seekErr != nil {
			return nil, fmt.Errorf("failed to seek to start: %w", seekErr)
		}
		newDecoder, decErr := mp3.NewDecoder(s.file)
		if decErr != nil {
			return nil, fmt.Errorf("failed to create new decoder: %w", decErr)
		}
		s.decoder = newDecoder
	}

	return s.samples[:frames*audio.Channels], nil
}

func (s *mp3Stream) SampleRate() int { return s.decoder.SampleRate() }
func (s *mp3Stream) Close() error    { return s.file.Close() }

// flacStream decodes a FLAC file frame by frame, looping at EOF
type flacStream struct {
	file       *os.File
	stream     *flac.Stream
	sampleRate int
	channels   int
	bitDepth   int
	samples    []int32
}

func openFLAC(path string) (*flacStream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open FLAC file: %w", err)
	}

	stream, err := flac.New(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}

	return &flacStream{
		file:       f,
		stream:     stream,
		sampleRate: int(stream.Info.SampleRate),
		channels:   int(stream.Info.NChannels),
		bitDepth:   int(stream.Info.BitsPerSample),
	}, nil
}

func (s *flacStream) Next() ([]int32, error) {
	frame, err := s.stream.ParseNext()
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return nil, err
		}
		// Loop back to start
		if _, seekErr := s.file.Seek(0, io.SeekStart); seekErr != nil {
			return nil, fmt.Errorf("failed to seek to start: %w", seekErr)
		}
		newStream, decErr := flac.New(s.file)
		if decErr != nil {
			return nil, fmt.Errorf("failed to create new stream: %w", decErr)
		}
		s.stream = newStream
		return s.samples[:0], nil
	}

	n := int(frame.BlockSize)
	if cap(s.samples) < n*audio.Channels {
		s.samples = make([]int32, n*audio.Channels)
	}
	out := s.samples[:n*audio.Channels]

	// Mono files are duplicated; channels beyond the second are ignored
	right := 0
	if s.channels > 1 {
		right = 1
	}
	for i := 0; i < n; i++ {
		out[i*2] = audio.FullScaleFromDepth(frame.Subframes[0].Samples[i], s.bitDepth)
		out[i*2+1] = audio.FullScaleFromDepth(frame.Subframes[right].Samples[i], s.bitDepth)
	}

	return out, nil
}

func (s *flacStream) SampleRate() int { return s.sampleRate }
func (s *flacStream) Close() error    { return s.file.Close() }

// NewMP3 creates a paced, looping MP3 file source
func NewMP3(path string, opts Options) (Source, error) {
	opts = opts.withDefaults()
	stream, err := openMP3(path)
	if err != nil {
		return nil, err
	}
	opts.Logger.Info("Loaded MP3", "title", titleOf(path), "sample_rate", stream.SampleRate())
	return newFileSource("mp3 "+titleOf(path), stream, opts), nil
}

// NewFLAC creates a paced, looping FLAC file source
func NewFLAC(path string, opts Options) (Source, error) {
	opts = opts.withDefaults()
	stream, err := openFLAC(path)
	if err != nil {
		return nil, err
	}
	opts.Logger.Info("Loaded FLAC",
		"title", titleOf(path),
		"sample_rate", stream.sampleRate,
		"channels", stream.channels,
		"bit_depth", stream.bitDepth)
	return newFileSource("flac "+titleOf(path), stream, opts), nil
}

func newFileSource(name string, stream decodedStream, opts Options) Source {
	return &paced{
		reader: newFileReader(stream, opts.Format, opts.SampleRate),
		opts:   opts,
		name:   name,
		closer: stream.Close,
	}
}
