package akai

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// ToolConfig points at the external disk tool used to read Akai media.
// LibraryPath, when set, is passed to the child process only; the parent
// environment is never mutated.
type ToolConfig struct {
	Tool        string // binary name or path, e.g. "akaitools"
	Device      string // disk image path or block device
	LibraryPath string // optional LD_LIBRARY_PATH for the child
}

// ToolLister shells out to the configured disk tool for each partition
// listing. It implements PartitionLister.
type ToolLister struct {
	cfg   ToolConfig
	sugar *zap.SugaredLogger
}

// NewToolLister validates the config and returns a lister.
func NewToolLister(cfg ToolConfig, logger *zap.Logger) (*ToolLister, error) {
	if cfg.Tool == "" {
		return nil, fmt.Errorf("tool path is required")
	}
	if cfg.Device == "" {
		return nil, fmt.Errorf("device path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ToolLister{cfg: cfg, sugar: logger.Sugar()}, nil
}

// ListPartition runs the tool's directory command for one partition and
// splits the output into volume names and entry rows.
func (l *ToolLister) ListPartition(partition int) ([]string, []string, error) {
	out, err := l.run(context.Background(), "ls", strconv.Itoa(partition))
	if err != nil {
		return nil, nil, err
	}
	var volumes, entries []string
	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		// Volume lines are indented names with no column data.
		if len(line) < colName {
			volumes = append(volumes, strings.TrimSpace(line))
			continue
		}
		entries = append(entries, line)
	}
	return volumes, entries, nil
}

func (l *ToolLister) run(ctx context.Context, args ...string) (string, error) {
	argv := append([]string{"-d", l.cfg.Device}, args...)
	cmd := exec.CommandContext(ctx, l.cfg.Tool, argv...)
	cmd.Env = os.Environ()
	if l.cfg.LibraryPath != "" {
		cmd.Env = append(cmd.Env, "LD_LIBRARY_PATH="+l.cfg.LibraryPath)
	}
	l.sugar.Debugw("running disk tool", "tool", l.cfg.Tool, "args", argv)
	out, err := cmd.CombinedOutput()
	if err != nil {
		// The tool reports out-of-range partitions on stdout with a
		// nonzero exit; surface that text so callers can detect it.
		if len(out) > 0 {
			return "", fmt.Errorf("%s: %s", l.cfg.Tool, strings.TrimSpace(string(out)))
		}
		return "", fmt.Errorf("%s: %w", l.cfg.Tool, err)
	}
	return string(out), nil
}
