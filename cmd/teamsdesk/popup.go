package main

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"os"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/logger"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/Mavwarf/teamsdesk/internal/auth"
	"github.com/Mavwarf/teamsdesk/internal/ipc"
)

//go:embed login
var loginAssets embed.FS

// Events between the login page and the popup process.
const (
	eventChallenge = "login:challenge"
	eventCancel    = "login:cancel"
)

type popupArgs struct {
	ID, Host, Realm string
}

func (p *popupArgs) set(flag, value string) {
	switch flag {
	case "--popup-id":
		p.ID = value
	case "--host":
		p.Host = value
	case "--realm":
		p.Realm = value
	}
}

// runPopup shows the frameless login window. A submitted form is written
// to stdout as a submitForm envelope for the shell; closing the window
// without submitting writes nothing.
func runPopup(args popupArgs) error {
	assets, err := fs.Sub(loginAssets, "login")
	if err != nil {
		return err
	}

	var ctx context.Context
	submitted := false
	return wails.Run(&options.App{
		Title:         "Sign in",
		Width:         auth.PopupWidth,
		Height:        auth.PopupHeight,
		Frameless:     true,
		StartHidden:   true,
		DisableResize: true,
		AlwaysOnTop:   true,
		AssetServer:   &assetserver.Options{Assets: assets},
		LogLevel:      logger.ERROR,
		OnStartup: func(c context.Context) {
			ctx = c
			wailsRuntime.EventsOn(ctx, ipc.ChannelSubmitForm, func(data ...interface{}) {
				if submitted {
					return
				}
				var m ipc.SubmitFormMessage
				if err := ipc.Decode(first(data), &m); err != nil {
					fmt.Fprintf(os.Stderr, "teamsdesk: login popup %s: %v\n", args.ID, err)
					return
				}
				submitted = true
				if err := ipc.WriteEnvelope(os.Stdout, ipc.ChannelSubmitForm, m); err != nil {
					fmt.Fprintf(os.Stderr, "teamsdesk: login popup %s: %v\n", args.ID, err)
				}
				wailsRuntime.Quit(ctx)
			})
			wailsRuntime.EventsOn(ctx, eventCancel, func(...interface{}) {
				wailsRuntime.Quit(ctx)
			})
		},
		OnDomReady: func(c context.Context) {
			wailsRuntime.EventsEmit(c, eventChallenge, map[string]string{
				"host":  args.Host,
				"realm": args.Realm,
			})
			wailsRuntime.WindowCenter(c)
			wailsRuntime.WindowShow(c)
		},
	})
}
