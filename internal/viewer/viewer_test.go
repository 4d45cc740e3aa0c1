package viewer

import (
	"errors"
	"os/exec"
	"reflect"
	"strings"
	"testing"
)

func TestPlatformCommands(t *testing.T) {
	path := "transcription_My_Video.txt"

	tests := []struct {
		name   string
		opener CommandOpener
		want   []string
	}{
		{"windows", Windows(), []string{"cmd", "/c", "start", "", path}},
		{"darwin", Darwin(), []string{"open", path}},
		{"xdg", XDG(), []string{"xdg-open", path}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := tt.opener.command(path)
			if !reflect.DeepEqual(cmd.Args, tt.want) {
				t.Errorf("command args = %q, want %q", cmd.Args, tt.want)
			}
		})
	}
}

func TestCommandDoesNotAliasArgs(t *testing.T) {
	o := CommandOpener{Name: "x", Args: make([]string, 1, 4)}
	a := o.command("first")
	b := o.command("second")
	if a.Args[2] != "first" || b.Args[2] != "second" {
		t.Errorf("args aliased: %q / %q", a.Args, b.Args)
	}
}

func TestCommandOpenerRun(t *testing.T) {
	var ran *exec.Cmd
	o := XDG()
	o.run = func(cmd *exec.Cmd) error {
		ran = cmd
		return nil
	}

	if err := o.Open("/tmp/t.txt"); err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if ran == nil || ran.Args[len(ran.Args)-1] != "/tmp/t.txt" {
		t.Errorf("unexpected command: %v", ran)
	}
}

func TestCommandOpenerError(t *testing.T) {
	o := XDG()
	o.run = func(cmd *exec.Cmd) error {
		_, _ = cmd.Stderr.Write([]byte("xdg-open: no method available for opening\n"))
		return errors.New("exit status 3")
	}

	err := o.Open("/tmp/t.txt")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "no method available") {
		t.Errorf("stderr missing from error: %v", err)
	}
}

func TestDefaultIsCommandOpener(t *testing.T) {
	if _, ok := Default().(CommandOpener); !ok {
		t.Errorf("Default() = %T, want CommandOpener", Default())
	}
}

func TestFuncAndNop(t *testing.T) {
	called := ""
	var o Opener = Func(func(path string) error {
		called = path
		return nil
	})
	if err := o.Open("x.txt"); err != nil || called != "x.txt" {
		t.Errorf("Func opener: err=%v called=%q", err, called)
	}
	if err := (Nop{}).Open("x.txt"); err != nil {
		t.Errorf("Nop.Open() = %v", err)
	}
}
