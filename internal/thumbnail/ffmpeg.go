package thumbnail

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
)

// FFmpegExtractor shells out to the ffmpeg binary to grab a still frame
type FFmpegExtractor struct {
	// Binary is the ffmpeg executable, "ffmpeg" when empty
	Binary string
}

// NewFFmpegExtractor creates an extractor using the ffmpeg binary on PATH
func NewFFmpegExtractor() *FFmpegExtractor {
	return &FFmpegExtractor{Binary: "ffmpeg"}
}

// ExtractFrame writes a single frame from videoPath to framePath, seeking
// to seekSeconds and scaling to the requested width with even height.
func (f *FFmpegExtractor) ExtractFrame(ctx context.Context, videoPath, framePath string, seekSeconds float64, width int) error {
	binary := f.Binary
	if binary == "" {
		binary = "ffmpeg"
	}

	args := []string{
		"-ss", strconv.FormatFloat(seekSeconds, 'f', -1, 64),
		"-i", videoPath,
		"-frames:v", "1",
		"-vf", fmt.Sprintf("scale=%d:-2", width),
		"-y",
		framePath,
	}

	cmd := exec.CommandContext(ctx, binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg failed: %w: %s", err, lastLine(stderr.Bytes()))
	}
	return nil
}

// lastLine keeps errors readable: ffmpeg prints its banner and progress to
// stderr, the final line carries the actual failure.
func lastLine(out []byte) string {
	out = bytes.TrimSpace(out)
	if idx := bytes.LastIndexByte(out, '\n'); idx >= 0 {
		out = out[idx+1:]
	}
	return string(out)
}
