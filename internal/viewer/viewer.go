// Package viewer opens files with the host's default application.
package viewer

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"
)

// Opener hands a file to whatever the desktop associates with it.
type Opener interface {
	Open(path string) error
}

// CommandOpener launches Name with Args followed by the file path.
type CommandOpener struct {
	Name string
	Args []string

	run func(cmd *exec.Cmd) error
}

func (o CommandOpener) command(path string) *exec.Cmd {
	args := append(append([]string(nil), o.Args...), path)
	return exec.Command(o.Name, args...)
}

func (o CommandOpener) Open(path string) error {
	cmd := o.command(path)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	run := o.run
	if run == nil {
		run = (*exec.Cmd).Run
	}
	if err := run(cmd); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %w: %s", o.Name, err, msg)
		}
		return fmt.Errorf("%s: %w", o.Name, err)
	}
	return nil
}

// Windows uses the shell's start verb; the empty argument is the window title.
func Windows() CommandOpener {
	return CommandOpener{Name: "cmd", Args: []string{"/c", "start", ""}}
}

func Darwin() CommandOpener {
	return CommandOpener{Name: "open"}
}

// XDG covers Linux and the BSDs.
func XDG() CommandOpener {
	return CommandOpener{Name: "xdg-open"}
}

// Func adapts a plain function to Opener.
type Func func(path string) error

func (f Func) Open(path string) error {
	return f(path)
}

// Nop never opens anything.
type Nop struct{}

func (Nop) Open(string) error {
	return nil
}
