package audio

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// ExecRunner plays a track by running an external player command once per
// loop. The placeholders {file} and {volume} in Args are replaced with the
// track path and the volume as a 0-100 integer.
type ExecRunner struct {
	Command string
	Args    []string
}

// ParseCommandLine splits a player command line such as
// "ffplay -nodisp -autoexit -volume {volume} {file}" into an ExecRunner.
func ParseCommandLine(line string) (*ExecRunner, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, errors.New("empty music player command")
	}
	return &ExecRunner{Command: fields[0], Args: fields[1:]}, nil
}

// Play runs the player command and waits for it to exit.
func (r *ExecRunner) Play(ctx context.Context, path string, volume float64) error {
	cmd := exec.CommandContext(ctx, r.Command, r.expandArgs(path, volume)...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run %s: %w", r.Command, err)
	}
	return nil
}

func (r *ExecRunner) expandArgs(path string, volume float64) []string {
	vol := strconv.Itoa(volumePercent(volume))
	args := make([]string, len(r.Args))
	for i, a := range r.Args {
		a = strings.ReplaceAll(a, "{file}", path)
		args[i] = strings.ReplaceAll(a, "{volume}", vol)
	}
	return args
}

func volumePercent(volume float64) int {
	switch {
	case volume <= 0:
		return 0
	case volume >= 1:
		return 100
	default:
		return int(volume*100 + 0.5)
	}
}
