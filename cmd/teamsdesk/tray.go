package main

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"runtime"

	"github.com/energye/systray"

	"github.com/Mavwarf/teamsdesk/internal/icon"
	"github.com/Mavwarf/teamsdesk/internal/menus"
)

// trayIconSize is the edge of the tray icon in pixels.
const trayIconSize = 64

// runTray starts the system tray icon. Must be called in a goroutine;
// systray.Run blocks until Quit is called.
func runTray(app *App) {
	// Lock this goroutine to an OS thread so that the hidden window created
	// by systray and the GetMessage loop share the same thread.
	runtime.LockOSThread()
	systray.Run(func() { onTrayReady(app) }, func() {})
}

// pngToICO wraps raw PNG bytes in a minimal ICO container.
// Windows LoadImage(IMAGE_ICON) requires ICO format; since Vista,
// ICO supports embedded PNG data directly.
func pngToICO(png []byte, size int) []byte {
	dim := byte(size)
	if size >= 256 {
		dim = 0 // 0 means 256
	}
	buf := new(bytes.Buffer)
	// ICONDIR header
	binary.Write(buf, binary.LittleEndian, uint16(0)) // reserved
	binary.Write(buf, binary.LittleEndian, uint16(1)) // type: 1 = ICO
	binary.Write(buf, binary.LittleEndian, uint16(1)) // count: 1 image

	// ICONDIRENTRY
	buf.WriteByte(dim) // width
	buf.WriteByte(dim) // height
	buf.WriteByte(0)   // color count
	buf.WriteByte(0)   // reserved
	binary.Write(buf, binary.LittleEndian, uint16(1))        // color planes
	binary.Write(buf, binary.LittleEndian, uint16(32))       // bits per pixel
	binary.Write(buf, binary.LittleEndian, uint32(len(png))) // image data size
	binary.Write(buf, binary.LittleEndian, uint32(6+1*16))   // offset to image data (header + 1 entry)

	buf.Write(png)
	return buf.Bytes()
}

func onTrayReady(app *App) {
	data, err := icon.PNG(trayIconSize)
	if err != nil {
		app.log.Warning(fmt.Sprintf("tray: %v", err))
	} else if runtime.GOOS == "windows" {
		systray.SetIcon(pngToICO(data, trayIconSize))
	} else {
		systray.SetIcon(data)
	}
	systray.SetTooltip("teamsdesk")
	systray.SetOnDClick(func(menu systray.IMenu) { app.ShowWindow() })

	mShow := systray.AddMenuItem("Show Teams", "Show the main window")
	mShow.Click(func() { app.ShowWindow() })

	mDND := systray.AddMenuItemCheckbox("Do Not Disturb (1 hour)", "Mute notifications", app.silent.Active())
	mDND.Click(func() {
		on, err := app.silent.Toggle(menus.SilenceFor)
		if err != nil {
			app.log.Warning(fmt.Sprintf("tray: do not disturb: %v", err))
			return
		}
		if on {
			mDND.Check()
		} else {
			mDND.Uncheck()
		}
	})

	systray.AddSeparator()

	mQuit := systray.AddMenuItem("Quit", "Exit teamsdesk")
	mQuit.Click(func() {
		<-app.ready
		app.Quit()
	})
}
