// SPDX-License-Identifier: EPL-2.0

package sound

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	goaudio "github.com/go-audio/audio"
	"github.com/sirupsen/logrus"

	"github.com/ik5/pcmbridge/audio"
	"github.com/ik5/pcmbridge/engine"
	"github.com/ik5/pcmbridge/stream"
)

// EndFunc is called when a sound reaches the end of its data. userData is
// the value given to SetEndCallback.
type EndFunc func(s *Sound, userData any)

type endCallback struct {
	fn       EndFunc
	userData any
}

// Sound is a voice in an engine plus the resources it owns.
type Sound struct {
	eng   engine.Engine
	voice engine.Voice
	kind  Kind

	src  audio.Source
	st   *stream.Stream
	file io.Closer

	mu     sync.Mutex
	state  State
	closed bool

	end atomic.Pointer[endCallback]
}

// NewFromPCM plays a copy of interleaved samples.
func NewFromPCM(eng engine.Engine, samples []float32, channels, sampleRate int, flags engine.Flags) (*Sound, error) {
	src, err := audio.NewMemorySource(samples, channels, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("static sound: %w: %w", ErrInvalidArgument, err)
	}

	return attach(eng, KindStatic, src, nil, nil, flags)
}

// NewFromFloatBuffer plays a go-audio buffer.
func NewFromFloatBuffer(eng engine.Engine, buf *goaudio.FloatBuffer, flags engine.Flags) (*Sound, error) {
	if buf == nil || buf.Format == nil {
		return nil, fmt.Errorf("float buffer without format: %w", ErrInvalidArgument)
	}

	samples := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = float32(v)
	}

	return NewFromPCM(eng, samples, buf.Format.NumChannels, buf.Format.SampleRate, flags)
}

// NewFromFile opens path and decodes it with the decoder registered for its
// extension. The file stays open until Close.
func NewFromFile(eng engine.Engine, path string, reg *audio.Registry, flags engine.Flags) (*Sound, error) {
	if reg == nil {
		return nil, fmt.Errorf("nil registry: %w", ErrInvalidArgument)
	}

	dec, err := reg.Lookup(path)
	if err != nil {
		return nil, fmt.Errorf("file sound: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	src, err := dec.Decode(f)
	if err != nil {
		_ = f.Close()

		logrus.WithFields(logrus.Fields{
			"function": "sound.NewFromFile",
			"path":     path,
			"error":    err.Error(),
		}).Error("Failed to decode audio file")

		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	s, err := attach(eng, KindFile, src, nil, f, flags)
	if err != nil {
		_ = src.Close()
		_ = f.Close()
		return nil, err
	}

	return s, nil
}

// NewStreaming creates a sound fed through a stream of capacityFrames
// frames. Use Stream, Append and MarkEnd to feed it.
func NewStreaming(eng engine.Engine, channels, sampleRate, capacityFrames int, flags engine.Flags) (*Sound, error) {
	st, err := stream.New(channels, sampleRate, capacityFrames)
	if err != nil {
		return nil, fmt.Errorf("streaming sound: %w", err)
	}

	s, err := attach(eng, KindStreaming, st.Source(), st, nil, flags)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	return s, nil
}

func attach(eng engine.Engine, kind Kind, src audio.Source, st *stream.Stream, file io.Closer, flags engine.Flags) (*Sound, error) {
	if eng == nil {
		return nil, fmt.Errorf("nil engine: %w", ErrInvalidArgument)
	}

	v, err := eng.Attach(src, flags)
	if err != nil {
		return nil, fmt.Errorf("attach %s sound: %w", kind, err)
	}

	s := &Sound{
		eng:   eng,
		voice: v,
		kind:  kind,
		src:   src,
		st:    st,
		file:  file,
	}
	v.OnEnd(s.notifyEnd)

	logrus.WithFields(logrus.Fields{
		"function":    "sound.attach",
		"kind":        kind.String(),
		"sample_rate": src.SampleRate(),
		"channels":    src.Channels(),
	}).Debug("Sound created")

	return s, nil
}

// notifyEnd is the voice's end trampoline. It runs on the render goroutine.
func (s *Sound) notifyEnd() {
	if cb := s.end.Load(); cb != nil {
		cb.fn(s, cb.userData)
	}
}

func (s *Sound) Kind() Kind { return s.kind }

// SetEndCallback registers fn to be called with userData each time the
// sound plays to the end of its data. A nil fn removes the callback.
func (s *Sound) SetEndCallback(fn EndFunc, userData any) {
	if fn == nil {
		s.end.Store(nil)
		return
	}

	s.end.Store(&endCallback{fn: fn, userData: userData})
}

// Start asks the engine to play the sound and moves it to Starting.
func (s *Sound) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	if err := s.voice.Start(); err != nil {
		return fmt.Errorf("start sound: %w", err)
	}
	s.state = Starting

	return nil
}

// Stop asks the engine to stop the sound and moves it to Stopping.
func (s *Sound) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	if err := s.voice.Stop(); err != nil {
		return fmt.Errorf("stop sound: %w", err)
	}
	s.state = Stopping

	return nil
}

// SetLooping switches looping on or off. It takes effect the next time the
// sound runs out of data, so a playing sound can be let run to its end.
func (s *Sound) SetLooping(on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	s.voice.SetLooping(on)

	return nil
}

func (s *Sound) Looping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return !s.closed && s.voice.Looping()
}

// State reconciles and returns the lifecycle state. A closed sound is
// Stopped.
func (s *Sound) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Stopped
	}

	s.state = reconcile(s.state, s.voice.IsPlaying(), s.voice.IsAtEnd())

	return s.state
}

// IsPlaying reports whether the engine is rendering the sound.
func (s *Sound) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return !s.closed && s.voice.IsPlaying()
}

// AtEnd reports whether the sound has played all its data.
func (s *Sound) AtEnd() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return !s.closed && s.voice.IsAtEnd()
}

// Seek moves playback to frame. Streaming sounds only accept frame 0.
func (s *Sound) Seek(frame int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	if frame < 0 {
		return fmt.Errorf("seek to frame %d: %w", frame, ErrInvalidArgument)
	}

	if s.kind == KindStreaming && frame != 0 {
		return fmt.Errorf("seek streaming sound to frame %d: %w", frame, ErrInvalidOperation)
	}

	if err := s.voice.Seek(frame); err != nil {
		return fmt.Errorf("seek sound: %w", err)
	}

	return nil
}

func (s *Sound) SeekToStart() error { return s.Seek(0) }

// Cursor returns the playback position in engine frames.
func (s *Sound) Cursor() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrClosed
	}

	return s.voice.Cursor(), nil
}

// Length returns the length in engine frames. Streaming sounds and
// decoders that cannot tell their length return ErrInvalidOperation.
func (s *Sound) Length() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrClosed
	}

	n, ok := s.voice.Length()
	if !ok {
		return 0, fmt.Errorf("%s sound has no length: %w", s.kind, ErrInvalidOperation)
	}

	return n, nil
}

func (s *Sound) CursorSeconds() (float64, error) {
	n, err := s.Cursor()
	if err != nil {
		return 0, err
	}

	return float64(n) / float64(s.eng.SampleRate()), nil
}

func (s *Sound) LengthSeconds() (float64, error) {
	n, err := s.Length()
	if err != nil {
		return 0, err
	}

	return float64(n) / float64(s.eng.SampleRate()), nil
}

// Progress returns the cursor as a fraction of the length, in [0,1].
func (s *Sound) Progress() (float64, error) {
	n, err := s.Length()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}

	c, err := s.Cursor()
	if err != nil {
		return 0, err
	}

	return min(float64(c)/float64(n), 1), nil
}

// Stream returns the producer handle of a streaming sound.
func (s *Sound) Stream() (*stream.Stream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}

	if s.st == nil {
		return nil, fmt.Errorf("%s sound: %w", s.kind, ErrInvalidOperation)
	}

	return s.st, nil
}

// Append queues interleaved samples on a streaming sound. See
// stream.Stream.AppendSamples.
func (s *Sound) Append(samples []float32) (int, error) {
	st, err := s.Stream()
	if err != nil {
		return 0, err
	}

	return st.AppendSamples(samples)
}

// MarkEnd signals that a streaming sound will receive no more frames.
func (s *Sound) MarkEnd() error {
	st, err := s.Stream()
	if err != nil {
		return err
	}

	return st.MarkEnd()
}

// Reset drops everything queued on a streaming sound, clears its end flag
// and rewinds the voice to frame 0. A sound that was starting or playing
// keeps going and plays what is appended next. Reset must not race an
// append.
func (s *Sound) Reset() error {
	active, err := s.stopForReset()
	if err != nil {
		return err
	}

	// The ring may only be reset while the render side is not pulling. Sync
	// runs unlocked so an end callback in flight can still query the sound.
	s.voice.Sync()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	if err := s.st.Reset(); err != nil {
		return fmt.Errorf("reset sound: %w", err)
	}

	if err := s.voice.Seek(0); err != nil {
		return fmt.Errorf("reset sound: %w", err)
	}

	if active {
		if err := s.voice.Start(); err != nil {
			return fmt.Errorf("reset sound: %w", err)
		}
		s.state = Starting
	}

	return nil
}

// stopForReset stops an active streaming sound and reports whether it was
// starting or playing.
func (s *Sound) stopForReset() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, ErrClosed
	}

	if s.st == nil {
		return false, fmt.Errorf("reset %s sound: %w", s.kind, ErrInvalidOperation)
	}

	active := s.state == Starting || s.state == Playing
	if active {
		if err := s.voice.Stop(); err != nil {
			return false, fmt.Errorf("reset sound: %w", err)
		}
	}

	return active, nil
}

// Close detaches the sound from the engine and then releases what it owns.
// It is safe to call more than once.
func (s *Sound) Close() error {
	if !s.markClosed() {
		return nil
	}

	// Detach waits for the render goroutine, which may be inside an end
	// callback that calls back into the sound, so s.mu is not held here.
	s.voice.OnEnd(nil)

	var errs []error
	if err := s.eng.Detach(s.voice); err != nil {
		errs = append(errs, fmt.Errorf("detach: %w", err))
	}

	if s.st != nil {
		if err := s.st.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close stream: %w", err))
		}
	}

	if err := s.src.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close source: %w", err))
	}

	if s.file != nil {
		if err := s.file.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close file: %w", err))
		}
	}

	err := errors.Join(errs...)

	fields := logrus.Fields{
		"function": "Sound.Close",
		"kind":     s.kind.String(),
	}
	if err != nil {
		fields["error"] = err.Error()
		logrus.WithFields(fields).Warn("Sound closed with errors")
	} else {
		logrus.WithFields(fields).Debug("Sound closed")
	}

	return err
}

// markClosed flips the sound to closed and reports whether this call did it.
func (s *Sound) markClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	s.closed = true
	s.state = Stopped

	return true
}
