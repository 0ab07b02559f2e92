package pgdump

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

type Options struct {
	BinaryPath string
	DBURL      string
	OutputPath string
}

type Runner interface {
	Dump(ctx context.Context, options Options) error
}

type runner struct{}

func NewRunner() Runner {
	return &runner{}
}

func (r *runner) Dump(ctx context.Context, options Options) error {
	bin := strings.TrimSpace(options.BinaryPath)
	if bin == "" {
		bin = "pg_dump"
	}
	cmd := exec.CommandContext(
		ctx,
		bin,
		"--format", "custom",
		"--no-owner",
		"--no-privileges",
		"--file", options.OutputPath,
		"--dbname", options.DBURL,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return err
		}
		return fmt.Errorf("%w: %s", err, sanitizeStderr(msg))
	}
	return nil
}

func sanitizeStderr(in string) string {
	if len(in) > 512 {
		return in[:512]
	}
	return in
}
