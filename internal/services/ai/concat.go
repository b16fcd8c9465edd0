package ai

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// concatVideos merges MP4 segments with the ffmpeg concat demuxer. Segment
// bytes are staged in a temp directory; stream copy keeps re-encoding out
// of the hot path.
func concatVideos(ctx context.Context, segments [][]byte) ([]byte, error) {
	if len(segments) == 0 {
		return nil, fmt.Errorf("no segments to concatenate")
	}
	if len(segments) == 1 {
		return segments[0], nil
	}

	dir, err := os.MkdirTemp("", "odyssey-concat-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	listPath := filepath.Join(dir, "segments.txt")
	list, err := os.Create(listPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create segment list: %w", err)
	}
	for i, seg := range segments {
		segPath := filepath.Join(dir, fmt.Sprintf("segment_%03d.mp4", i))
		if err := os.WriteFile(segPath, seg, 0644); err != nil {
			list.Close()
			return nil, fmt.Errorf("failed to stage segment %d: %w", i, err)
		}
		fmt.Fprintf(list, "file '%s'\n", segPath)
	}
	if err := list.Close(); err != nil {
		return nil, err
	}

	outPath := filepath.Join(dir, "full.mp4")
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y", "-f", "concat", "-safe", "0",
		"-i", listPath,
		"-c", "copy",
		outPath,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("ffmpeg concat failed: %w (%s)", err, string(output))
	}

	merged, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read merged video: %w", err)
	}
	return merged, nil
}
