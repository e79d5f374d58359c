package main

import (
	"fmt"
	"os"

	"github.com/wailsapp/wails/v2"

	"github.com/Mavwarf/teamsdesk/internal/auth"
	"github.com/Mavwarf/teamsdesk/internal/config"
	"github.com/Mavwarf/teamsdesk/internal/logging"
	"github.com/Mavwarf/teamsdesk/internal/paths"
)

func main() {
	dir := paths.DataDir()
	var popup *popupArgs

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--config-dir", "-c":
			if i+1 < len(args) {
				dir = args[i+1]
				i++
			}
		case auth.PopupFlag:
			if popup == nil {
				popup = &popupArgs{}
			}
		case "--popup-id", "--host", "--realm":
			if popup == nil {
				popup = &popupArgs{}
			}
			if i+1 < len(args) {
				popup.set(args[i], args[i+1])
				i++
			}
		}
	}

	if popup != nil {
		if err := runPopup(*popup); err != nil {
			fmt.Fprintf(os.Stderr, "teamsdesk: login popup: %v\n", err)
			os.Exit(1)
		}
		return
	}

	log := logging.Open(dir)
	cfg, err := config.Resolve(dir)
	if err != nil {
		log.Error(err.Error())
		fmt.Fprintf(os.Stderr, "teamsdesk: %v\n", err)
		os.Exit(1)
	}

	app, err := newApp(cfg, dir, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "teamsdesk: %v\n", err)
		os.Exit(1)
	}
	if err := wails.Run(app.options()); err != nil {
		fmt.Fprintf(os.Stderr, "teamsdesk: %v\n", err)
		os.Exit(1)
	}
}
