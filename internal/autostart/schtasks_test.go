package autostart

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"

	"go.uber.org/zap"
)

type fakeRunner struct {
	calls [][]string
	out   []byte
	err   error
}

func (f *fakeRunner) run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	return f.out, f.err
}

func newTestScheduler(mode Mode, r *fakeRunner) *TaskScheduler {
	ts := NewTaskScheduler("DWMBlurGlass_Extend", `C:\Program Files\DWMBlurGlass\dwmblurglass.exe`, mode, zap.NewNop())
	ts.run = r.run
	return ts
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{"user", UserMode, false},
		{"system", SystemMode, false},
		{"invalid", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestIsRegistered(t *testing.T) {
	r := &fakeRunner{}
	ok, err := newTestScheduler(UserMode, r).IsRegistered(context.Background())
	if err != nil || !ok {
		t.Fatalf("IsRegistered() = %v, %v; want true, nil", ok, err)
	}
	if got := strings.Join(r.calls[0], " "); got != "schtasks /Query /TN DWMBlurGlass_Extend" {
		t.Errorf("command = %q", got)
	}
}

func TestIsRegistered_MissingTask(t *testing.T) {
	r := &fakeRunner{err: &exec.ExitError{}}
	ok, err := newTestScheduler(UserMode, r).IsRegistered(context.Background())
	if err != nil || ok {
		t.Fatalf("IsRegistered() = %v, %v; want false, nil", ok, err)
	}
}

func TestIsRegistered_ToolMissing(t *testing.T) {
	r := &fakeRunner{err: exec.ErrNotFound}
	if _, err := newTestScheduler(UserMode, r).IsRegistered(context.Background()); err == nil {
		t.Fatal("expected error when schtasks cannot run")
	}
}

func TestRegister_Modes(t *testing.T) {
	tests := []struct {
		mode Mode
		want string
	}{
		{UserMode, "/SC ONLOGON"},
		{SystemMode, "/SC ONSTART /RU SYSTEM"},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			r := &fakeRunner{}
			if err := newTestScheduler(tt.mode, r).Register(context.Background()); err != nil {
				t.Fatal(err)
			}
			cmd := strings.Join(r.calls[0], " ")
			if !strings.Contains(cmd, tt.want) {
				t.Errorf("command %q missing %q", cmd, tt.want)
			}
			if !strings.Contains(cmd, `"C:\Program Files\DWMBlurGlass\dwmblurglass.exe" loaddll`) {
				t.Errorf("command %q does not run loaddll", cmd)
			}
		})
	}
}

func TestRegister_ErrorUsesToolOutput(t *testing.T) {
	r := &fakeRunner{out: []byte("ERROR: Access is denied.\r\n"), err: errors.New("exit status 1")}
	err := newTestScheduler(UserMode, r).Register(context.Background())
	if err == nil || err.Error() != "ERROR: Access is denied." {
		t.Errorf("err = %v, want tool output", err)
	}
}

func TestUnregister(t *testing.T) {
	r := &fakeRunner{}
	if err := newTestScheduler(UserMode, r).Unregister(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(r.calls[0], " "); got != "schtasks /Delete /F /TN DWMBlurGlass_Extend" {
		t.Errorf("command = %q", got)
	}
}
