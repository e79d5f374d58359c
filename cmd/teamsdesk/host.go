package main

import (
	"context"
	"sync/atomic"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/Mavwarf/teamsdesk/internal/escape"
	"github.com/Mavwarf/teamsdesk/internal/gateway"
)

// host is the Wails main window seen as a shell.Surface and a
// winstate.Geometry. After Release every call is a no-op.
type host struct {
	ctx      context.Context
	gw       *gateway.Gateway
	released atomic.Bool
}

func newHost(ctx context.Context, gw *gateway.Gateway) *host {
	return &host{ctx: ctx, gw: gw}
}

func (h *host) live() bool { return !h.released.Load() }

func (h *host) Show() {
	if h.live() {
		wailsRuntime.WindowShow(h.ctx)
	}
}

func (h *host) Focus() {
	if h.live() {
		wailsRuntime.WindowUnminimise(h.ctx)
		wailsRuntime.WindowShow(h.ctx)
	}
}

// Navigate points the webview at url through the gateway.
func (h *host) Navigate(url string) {
	if h.live() {
		local := h.gw.Open(url)
		wailsRuntime.WindowExecJS(h.ctx, "window.location.replace("+escape.JSString(local)+");")
	}
}

func (h *host) SetUserAgent(ua string) {
	h.gw.SetUserAgent(ua)
}

func (h *host) InsertCSS(css string) {
	if h.live() {
		wailsRuntime.EventsEmit(h.ctx, eventCSS, css)
	}
}

func (h *host) Send(channel string, payload any) {
	if h.live() {
		wailsRuntime.EventsEmit(h.ctx, channel, payload)
	}
}

func (h *host) Release() {
	h.released.Store(true)
}

func (h *host) Position() (int, int) {
	return wailsRuntime.WindowGetPosition(h.ctx)
}

func (h *host) Size() (int, int) {
	return wailsRuntime.WindowGetSize(h.ctx)
}
