package auth

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/wailsapp/wails/v2/pkg/logger"

	"github.com/Mavwarf/teamsdesk/internal/ipc"
	"github.com/Mavwarf/teamsdesk/internal/logging"
)

// PopupFlag makes the teamsdesk binary run as a login popup.
const PopupFlag = "--login-popup"

// ProcessLauncher runs each popup as a child process of the shell. The child
// writes its IPC messages (submitForm) to stdout as envelopes; they are
// relayed onto Bus. Exiting without a message is a dismissal.
type ProcessLauncher struct {
	Exe  string   // defaults to the running executable
	Args []string // placed before the popup flags
	Env  []string // added to the inherited environment
	Bus  ipc.Bus
	Log  logger.Logger
}

func (l *ProcessLauncher) Open(id string, ch Challenge) (Popup, error) {
	exe := l.Exe
	if exe == "" {
		var err error
		if exe, err = os.Executable(); err != nil {
			return nil, fmt.Errorf("auth: locate executable: %w", err)
		}
	}

	args := append(append([]string(nil), l.Args...), PopupFlag, "--popup-id", id, "--host", ch.Host, "--realm", ch.Realm)
	cmd := exec.Command(exe, args...)
	cmd.Env = append(os.Environ(), l.Env...)
	cmd.Stderr = os.Stderr
	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("auth: popup stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("auth: start popup: %w", err)
	}

	log := logging.OrNop(l.Log)
	p := &processPopup{cmd: cmd, closed: make(chan struct{})}
	go func() {
		if err := ipc.Relay(out, l.Bus); err != nil {
			log.Debug(fmt.Sprintf("auth: popup %s relay: %v", id, err))
		}
		if err := cmd.Wait(); err != nil {
			log.Debug(fmt.Sprintf("auth: popup %s exited: %v", id, err))
		}
		close(p.closed)
	}()
	return p, nil
}

type processPopup struct {
	cmd    *exec.Cmd
	closed chan struct{}
}

func (p *processPopup) Closed() <-chan struct{} { return p.closed }

func (p *processPopup) Close() error {
	select {
	case <-p.closed:
		return nil
	default:
	}
	err := p.cmd.Process.Kill()
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}
