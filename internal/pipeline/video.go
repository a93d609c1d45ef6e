package pipeline

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/filecrate/filecrate/internal/file"
)

// VideoStage transcodes videos to H.264/AAC MP4 through an external
// ffmpeg binary.
type VideoStage struct {
	ffmpeg string
}

// NewVideoStage creates a video stage invoking the given ffmpeg binary.
// An empty path resolves "ffmpeg" from PATH.
func NewVideoStage(ffmpegPath string) *VideoStage {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &VideoStage{ffmpeg: ffmpegPath}
}

func (*VideoStage) Name() string              { return "transcode" }
func (*VideoStage) Suffix() string            { return "transcoded" }
func (*VideoStage) OutputExt() string         { return "mp4" }
func (*VideoStage) OutputContentType() string { return "video/mp4" }
func (*VideoStage) DoneStatus() file.Status   { return file.StatusTranscoded }
func (*VideoStage) FailedStatus() file.Status { return file.StatusTranscodingFailed }

func (s *VideoStage) Transform(ctx context.Context, src []byte) ([]byte, error) {
	dir, err := os.MkdirTemp("", "transcode-")
	if err != nil {
		return nil, fmt.Errorf("pipeline: temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "in")
	out := filepath.Join(dir, "out.mp4")
	if err := os.WriteFile(in, src, 0o600); err != nil {
		return nil, fmt.Errorf("pipeline: write temp input: %w", err)
	}

	cmd := exec.CommandContext(ctx, s.ffmpeg,
		"-y",
		"-i", in,
		"-c:v", "libx264",
		"-preset", "fast",
		"-c:a", "aac",
		"-movflags", "+faststart",
		out,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("pipeline: ffmpeg: %w: %s", err, tail(output, 512))
	}

	data, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("pipeline: read transcoded output: %w", err)
	}
	return data, nil
}

func tail(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[len(b)-n:]
}
