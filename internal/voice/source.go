package voice

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sonroyaalmerol/jukebot/internal/player"
	"github.com/sonroyaalmerol/jukebot/internal/stream"
)

// frameSource yields the Opus packets of one track, io.EOF at the end.
type frameSource interface {
	Next(ctx context.Context) ([]byte, error)
	Close() error
}

type openFunc func(ctx context.Context, t player.Track) (frameSource, error)

// MediaLocator finds the direct media URL behind a track's source URL.
type MediaLocator interface {
	MediaURL(ctx context.Context, source string) (string, map[string]string, error)
}

// opusSource decodes with ffmpeg and encodes with libopus, one 20 ms frame
// at a time.
type opusSource struct {
	pcm     *stream.PCMStream
	enc     *stream.Encoder
	buf     []byte
	pending [][]byte
	done    bool
}

func ffmpegOpener(media MediaLocator, bitrate int64) openFunc {
	return func(ctx context.Context, t player.Track) (frameSource, error) {
		u, headers, err := media.MediaURL(ctx, t.URL)
		if err != nil {
			return nil, err
		}
		pcm, err := stream.StartPCM(ctx, u, headers)
		if err != nil {
			return nil, err
		}
		enc, err := stream.NewEncoder(bitrate)
		if err != nil {
			pcm.Close()
			return nil, err
		}
		return &opusSource{pcm: pcm, enc: enc, buf: make([]byte, stream.FrameBytes)}, nil
	}
}

func (s *opusSource) collect(pkt []byte) error {
	s.pending = append(s.pending, pkt)
	return nil
}

func (s *opusSource) Next(ctx context.Context) ([]byte, error) {
	for len(s.pending) == 0 {
		if s.done {
			return nil, io.EOF
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, err := io.ReadFull(s.pcm, s.buf)
		switch {
		case err == nil:
			if err := s.enc.Encode(s.buf, s.collect); err != nil {
				return nil, err
			}
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			// Pad the trailing partial frame with silence.
			if n > 0 {
				clear(s.buf[n:])
				if err := s.enc.Encode(s.buf, s.collect); err != nil {
					return nil, err
				}
			}
			if err := s.enc.Flush(s.collect); err != nil {
				return nil, err
			}
			s.done = true
			if err := s.pcm.Close(); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("read pcm: %w", err)
		}
	}

	pkt := s.pending[0]
	s.pending = s.pending[1:]
	return pkt, nil
}

func (s *opusSource) Close() error {
	err := s.pcm.Close()
	s.enc.Close()
	return err
}
