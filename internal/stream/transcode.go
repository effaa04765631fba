package stream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Transcoder runs ffmpeg children that read source audio on stdin and
// emit Ogg-encapsulated Opus on stdout.
type Transcoder struct {
	log    *zap.Logger
	binary string
}

// NewTranscoder returns a transcoder using the given ffmpeg binary,
// found on PATH when the name carries no directory.
func NewTranscoder(log *zap.Logger, binary string) (*Transcoder, error) {
	if log == nil {
		return nil, errors.New("logger required")
	}
	if binary == "" {
		binary = "ffmpeg"
	}
	return &Transcoder{log: log, binary: binary}, nil
}

// transcodeArgs builds the ffmpeg invocation for one bitrate in kbit/s.
// Replay gain is applied with 6dB pre-amp and a limiter, then every
// gain tag is stripped so players do not apply it twice.
func transcodeArgs(bitrate int) []string {
	return []string{
		"-v", "0",
		"-i", "-",
		"-map", "0:a:0",
		"-vn",
		"-b:a", strconv.Itoa(bitrate * 1024),
		"-c:a", "libopus",
		"-vbr", "on",
		"-af", "volume=replaygain=track:replaygain_preamp=6dB:replaygain_noclip=0, alimiter=level=disabled, asidedata=mode=delete:type=REPLAYGAIN",
		"-metadata", "replaygain_album_gain=",
		"-metadata", "replaygain_album_peak=",
		"-metadata", "replaygain_track_gain=",
		"-metadata", "replaygain_track_peak=",
		"-metadata", "r128_album_gain=",
		"-metadata", "r128_track_gain=",
		"-f", "opus",
		"-",
	}
}

// Transcode feeds src through one ffmpeg child into w. It returns when
// the conversion finishes; canceling ctx kills the child, which is how
// a client disconnect stops a stream mid-flight.
func (t *Transcoder) Transcode(ctx context.Context, w io.Writer, src io.Reader, bitrate int) error {
	cmd := exec.CommandContext(ctx, t.binary, transcodeArgs(bitrate)...)
	cmd.Stdin = src
	cmd.Stdout = w
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: starting %s: %v", ErrTranscodeFailed, t.binary, err)
	}
	t.log.Debug("transcode started",
		zap.Int("pid", cmd.Process.Pid),
		zap.Int("bitrate_kbit", bitrate))

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			t.log.Debug("transcode canceled", zap.Duration("elapsed", time.Since(start)))
			return ctx.Err()
		}
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return fmt.Errorf("%w: %v: %s", ErrTranscodeFailed, err, detail)
		}
		return fmt.Errorf("%w: %v", ErrTranscodeFailed, err)
	}
	t.log.Debug("transcode finished", zap.Duration("elapsed", time.Since(start)))
	return nil
}
