package pdf

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Opener opens a paper's document in the user's viewer.
type Opener struct {
	goos    string
	command string
}

// NewOpener creates an opener. An empty command uses the platform default
// (open on macOS, xdg-open on Linux).
func NewOpener(command string) *Opener {
	return &Opener{goos: runtime.GOOS, command: command}
}

// Command returns the command that would open target, a local file path or
// an https URL.
func (o *Opener) Command(target string) (*exec.Cmd, error) {
	if target == "" {
		return nil, fmt.Errorf("nothing to open")
	}
	if !strings.HasPrefix(target, "https://") && !strings.HasPrefix(target, "http://") {
		if _, err := os.Stat(target); err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("file does not exist: %s", target)
			}
			return nil, fmt.Errorf("checking file: %w", err)
		}
	}

	if o.command != "" {
		fields := strings.Fields(o.command)
		return exec.Command(fields[0], append(fields[1:], target)...), nil
	}

	switch o.goos {
	case "darwin":
		return exec.Command("open", target), nil
	case "linux", "freebsd", "openbsd":
		return exec.Command("xdg-open", target), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", o.goos)
	}
}

// Open starts the viewer without waiting for it.
func (o *Opener) Open(target string) error {
	cmd, err := o.Command(target)
	if err != nil {
		return err
	}
	return cmd.Start()
}
