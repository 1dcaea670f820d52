package usecase

import (
	"errors"
	"fmt"
	"io"

	"voicedesk/internal/audio"
	"voicedesk/internal/domain"
)

// pumpAudio reads raw capture bytes, frames them into fixed-duration chunks,
// and forwards each chunk to the streaming session in production order. It
// is the sole goroutine touching the framer's queue.
func (r *Recorder) pumpAudio(active *activeRecording) {
	defer close(active.audioDone)

	framer := audio.NewFramer(r.cfg.Streaming.SampleRate, r.cfg.ChunkDuration, func(chunk []byte) {
		if err := active.stream.SendAudio(chunk); err != nil {
			r.logger.Printf("recorder: send failed: %v", err)
		}
	})

	buf := make([]byte, r.cfg.ReadBufferSize)
	var carry []byte
	for {
		n, err := active.audio.Read(buf)
		if n > 0 {
			data := buf[:n]
			if len(carry) > 0 {
				data = append(carry, data...)
				carry = nil
			}
			// s16le samples are two bytes; an odd read carries its
			// trailing byte into the next one.
			even := len(data) &^ 1
			framer.Push(audio.DecodeS16LE(data[:even]))
			if even < len(data) {
				carry = []byte{data[even]}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				// The mic stops before the session closes, so a trailing
				// short chunk still reaches the service.
				if rest := framer.Flush(); len(rest) > 0 {
					if sendErr := active.stream.SendAudio(rest); sendErr != nil {
						r.logger.Printf("recorder: trailing send failed: %v", sendErr)
					}
				}
			} else {
				r.events.RecorderError(domain.ErrorTransport, fmt.Sprintf("audio capture error: %v", err))
			}
			return
		}
	}
}
