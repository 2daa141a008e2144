package printer

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CommandSpooler pipes the document into a CUPS style command:
// <command> -d <destination> -t <title> -
type CommandSpooler struct {
	Command string
}

func (s *CommandSpooler) Spool(ctx context.Context, destination, title string, data []byte) error {
	command := s.Command
	if command == "" {
		command = "lp"
	}
	cmd := exec.CommandContext(ctx, command, "-d", destination, "-t", title, "-")
	cmd.Stdin = bytes.NewReader(data)
	output, err := cmd.CombinedOutput()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		msg := strings.TrimSpace(string(output))
		if msg == "" {
			return err
		}
		return fmt.Errorf("%s", msg)
	}
	return nil
}
