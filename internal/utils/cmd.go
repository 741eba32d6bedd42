package utils

import (
	"context"
	"os/exec"
	"time"
)

// waitDelay bounds how long Wait lingers on a killed child's open pipes.
const waitDelay = 2 * time.Second

func ExecWith(ctx context.Context, name string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.WaitDelay = waitDelay
	return cmd
}
