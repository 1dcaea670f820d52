package audio

import (
	"encoding/binary"
	"time"
)

// Framer accumulates raw capture samples and emits fixed-duration chunks of
// s16le PCM through a registered callback. Samples are converted to int16 on
// append so the queue stays homogeneous regardless of the capture format.
//
// The queue is owned by the single goroutine pushing into the framer; the
// framer itself takes no locks.
type Framer struct {
	sampleRate   int
	chunkSamples int
	queue        []int16
	emit         func(chunk []byte)
}

// NewFramer creates a framer emitting chunks of exactly
// floor(sampleRate * chunkDuration) samples. Truncation, never rounding:
// rounding up would overshoot the target duration and drift over time.
func NewFramer(sampleRate int, chunkDuration time.Duration, emit func(chunk []byte)) *Framer {
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	if chunkDuration <= 0 {
		chunkDuration = 100 * time.Millisecond
	}
	chunkSamples := int(float64(sampleRate) * chunkDuration.Seconds())
	if chunkSamples < 1 {
		chunkSamples = 1
	}
	return &Framer{
		sampleRate:   sampleRate,
		chunkSamples: chunkSamples,
		emit:         emit,
	}
}

// Push appends raw samples and drains every complete chunk. Draining loops
// until the queue is below the threshold: capture callbacks arrive with
// scheduling jitter, and emitting at most one chunk per push would let the
// queue grow without bound during bursts.
func (f *Framer) Push(samples []int16) {
	if len(samples) == 0 {
		return
	}
	f.queue = append(f.queue, samples...)

	consumed := 0
	for len(f.queue)-consumed >= f.chunkSamples {
		chunk := f.queue[consumed : consumed+f.chunkSamples]
		consumed += f.chunkSamples
		if f.emit != nil {
			f.emit(EncodeS16LE(chunk))
		}
	}
	if consumed > 0 {
		rest := f.queue[consumed:]
		f.queue = append(f.queue[:0], rest...)
	}
}

// PushFloat32 converts 32-bit float samples to int16 and appends them.
func (f *Framer) PushFloat32(samples []float32) {
	if len(samples) == 0 {
		return
	}
	converted := make([]int16, len(samples))
	for i, s := range samples {
		converted[i] = clampToInt16(s)
	}
	f.Push(converted)
}

// Buffered reports the number of not-yet-emitted samples.
func (f *Framer) Buffered() int { return len(f.queue) }

// BufferedDuration reports the buffered audio duration.
func (f *Framer) BufferedDuration() time.Duration {
	return time.Duration(len(f.queue)) * time.Second / time.Duration(f.sampleRate)
}

// ChunkSamples reports the per-chunk sample count.
func (f *Framer) ChunkSamples() int { return f.chunkSamples }

// Flush returns any buffered remainder as one short chunk and clears the
// queue. Used on graceful teardown so trailing audio still reaches the
// transcription service.
func (f *Framer) Flush() []byte {
	if len(f.queue) == 0 {
		return nil
	}
	out := EncodeS16LE(f.queue)
	f.queue = f.queue[:0]
	return out
}

// EncodeS16LE packs samples as 16-bit signed little-endian PCM.
func EncodeS16LE(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

// DecodeS16LE unpacks 16-bit signed little-endian PCM bytes. The byte count
// must be even; callers carry any odd trailing byte themselves.
func DecodeS16LE(data []byte) []int16 {
	out := make([]int16, len(data)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return out
}

func clampToInt16(s float32) int16 {
	scaled := s * 32767
	if scaled > 32767 {
		return 32767
	}
	if scaled < -32768 {
		return -32768
	}
	return int16(scaled)
}
