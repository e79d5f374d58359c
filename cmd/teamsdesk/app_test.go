package main

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Mavwarf/teamsdesk/internal/auth"
	"github.com/Mavwarf/teamsdesk/internal/config"
	"github.com/Mavwarf/teamsdesk/internal/ipc"
	"github.com/Mavwarf/teamsdesk/internal/shell"
)

const loginHelperEnv = "TEAMSDESK_HELPER_LOGIN"

// TestHelperLoginPopup is not a real test: it stands in for the login
// popup child process.
func TestHelperLoginPopup(t *testing.T) {
	if os.Getenv(loginHelperEnv) != "submit" {
		return
	}
	ipc.WriteEnvelope(os.Stdout, ipc.ChannelSubmitForm, ipc.SubmitFormMessage{Username: "alice", Password: "secret"})
	os.Exit(0)
}

func TestPopupCredentialsWhileLoopBusy(t *testing.T) {
	s := shell.NewSession(config.Defaults(), ipc.NewLocalBus(), nil)
	c := newAuthController(s, &auth.ProcessLauncher{
		Exe:  os.Args[0],
		Args: []string{"-test.run=TestHelperLoginPopup", "--", "--config-dir", t.TempDir()},
		Env:  []string{loginHelperEnv + "=submit"},
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	go s.Run(ctx)

	// Hold the event loop for the whole exchange.
	release := make(chan struct{})
	defer close(release)
	s.Dispatch(func() { <-release })

	cr, err := c.Prompt(auth.Challenge{Host: "proxy.corp"}).Wait(ctx)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if cr.Username != "alice" || cr.Password != "secret" {
		t.Errorf("got %+v", cr)
	}
}
