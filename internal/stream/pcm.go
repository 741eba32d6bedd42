package stream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/sonroyaalmerol/jukebot/internal/utils"
)

// PCMStream decodes a media URL to interleaved s16le stereo 48 kHz PCM
// through an ffmpeg child process.
type PCMStream struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr *bytes.Buffer
	cancel context.CancelFunc

	closeOnce sync.Once
	closeErr  error
}

func ffmpegArgs(mediaURL string, headers map[string]string) []string {
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-reconnect", "1", "-reconnect_streamed", "1", "-reconnect_delay_max", "5",
	}
	if strings.HasPrefix(mediaURL, "http") {
		if h := utils.BuildFFmpegHeaders(headers); h != "" {
			args = append(args, "-headers", h)
		}
	}
	return append(args,
		"-i", mediaURL,
		"-vn",
		"-ac", fmt.Sprint(Channels),
		"-ar", fmt.Sprint(SampleRate),
		"-f", "s16le",
		"pipe:1",
	)
}

func StartPCM(ctx context.Context, mediaURL string, headers map[string]string) (*PCMStream, error) {
	ctx, cancel := context.WithCancel(ctx)

	cmd := utils.ExecWith(ctx, "ffmpeg", ffmpegArgs(mediaURL, headers)...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("ffmpeg stdout: %w", err)
	}
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("ffmpeg start: %w", err)
	}
	return &PCMStream{cmd: cmd, stdout: stdout, stderr: stderr, cancel: cancel}, nil
}

func (p *PCMStream) Read(b []byte) (int, error) { return p.stdout.Read(b) }

// Close stops ffmpeg and reports how it exited. A stream cut short by Close
// or by its context is not an error.
func (p *PCMStream) Close() error {
	p.closeOnce.Do(func() {
		p.cancel()
		p.closeErr = p.wait()
	})
	return p.closeErr
}

func (p *PCMStream) wait() error {
	err := p.cmd.Wait()
	var exitErr *exec.ExitError
	if err == nil || errors.As(err, &exitErr) && exitErr.ProcessState != nil && !exitErr.Exited() {
		return nil
	}
	if msg := strings.TrimSpace(p.stderr.String()); msg != "" {
		return fmt.Errorf("ffmpeg: %w: %s", err, msg)
	}
	return fmt.Errorf("ffmpeg: %w", err)
}
