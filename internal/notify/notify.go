// Package notify turns notification requests from the page into native
// desktop notifications.
package notify

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/wailsapp/wails/v2/pkg/logger"

	"github.com/Mavwarf/teamsdesk/internal/ipc"
	"github.com/Mavwarf/teamsdesk/internal/logging"
	"github.com/Mavwarf/teamsdesk/internal/toast"
)

// Title is the fixed title of every notification.
const Title = "Microsoft Teams"

// Request is a page notification request.
type Request struct {
	Count int
	Text  string
}

// Notifier shows a desktop notification.
type Notifier interface {
	Show(title, body, icon string) error
}

// Window is the main window as seen by click-through.
type Window interface {
	Show()
	Focus()
}

// Options are the optional extras around the plain notification.
type Options struct {
	IconPath string
	Sound    string

	// Silenced reports do-not-disturb; nil means never.
	Silenced func() bool
	// Play renders the notification sound.
	Play func(name string) error
	// PublishUnread forwards the unread count, e.g. to MQTT.
	PublishUnread func(count int) error
}

// Bridge forwards page notification requests to the OS.
type Bridge struct {
	notifier Notifier
	window   Window
	opts     Options
	log      logger.Logger
	spawn    func(func())

	mu         sync.Mutex
	lastUnread int
	unreadSeq  uint64

	// publishMu orders publishes; only the newest count is sent.
	publishMu sync.Mutex
}

// NewBridge builds a bridge. notifier may be nil, in which case nothing is
// displayed.
func NewBridge(n Notifier, w Window, opts Options, log logger.Logger) *Bridge {
	return &Bridge{
		notifier:   n,
		window:     w,
		opts:       opts,
		log:        logging.OrNop(log),
		spawn:      func(f func()) { go f() },
		lastUnread: -1,
	}
}

// Register subscribes the bridge to the notification channels of bus.
func (b *Bridge) Register(bus ipc.Bus) {
	bus.On(ipc.ChannelNotifications, func(payload any) {
		var m ipc.NotificationMessage
		if err := ipc.Decode(payload, &m); err != nil {
			b.log.Warning(fmt.Sprintf("notify: %v", err))
			return
		}
		b.OnNotificationRequest(Request{Count: m.Count, Text: m.Text})
	})
	bus.On(ipc.ChannelNotificationClick, func(any) {
		b.OnNotificationClick()
	})
}

// ComposeBody builds the notification text for count and optional text.
func ComposeBody(count int, text string) string {
	body := "You got " + strconv.Itoa(count) + " notification(s)."
	if text != "" {
		body += " " + text
	}
	return body
}

// OnNotificationRequest shows a notification when req.Count > 0. Display
// failures are logged and never returned.
func (b *Bridge) OnNotificationRequest(req Request) {
	b.publishUnread(req.Count)

	if req.Count <= 0 {
		return
	}
	if b.opts.Silenced != nil && b.opts.Silenced() {
		b.log.Debug("notify: do not disturb, notification skipped")
		return
	}
	if b.notifier == nil {
		return
	}

	body := ComposeBody(req.Count, req.Text)
	b.spawn(func() {
		err := b.notifier.Show(Title, body, b.opts.IconPath)
		switch {
		case err == nil:
		case errors.Is(err, toast.ErrUnavailable):
			// No facility on this desktop; nothing to do.
		default:
			b.log.Warning(fmt.Sprintf("notify: %v", err))
		}
	})

	if b.opts.Sound != "" && b.opts.Play != nil {
		b.spawn(func() {
			if err := b.opts.Play(b.opts.Sound); err != nil {
				b.log.Debug(fmt.Sprintf("notify: sound: %v", err))
			}
		})
	}
}

// OnNotificationClick brings the main window to the front.
func (b *Bridge) OnNotificationClick() {
	if b.window == nil {
		return
	}
	b.window.Show()
	b.window.Focus()
}

// publishUnread forwards count when it differs from the last value sent.
// Publishes never overlap, and a count superseded while waiting is skipped,
// so the newest count is always the last one delivered.
func (b *Bridge) publishUnread(count int) {
	if b.opts.PublishUnread == nil {
		return
	}
	if count < 0 {
		count = 0
	}
	b.mu.Lock()
	if count == b.lastUnread {
		b.mu.Unlock()
		return
	}
	b.lastUnread = count
	b.unreadSeq++
	seq := b.unreadSeq
	b.mu.Unlock()

	b.spawn(func() {
		b.publishMu.Lock()
		defer b.publishMu.Unlock()
		if !b.latestUnread(seq) {
			return
		}
		if err := b.opts.PublishUnread(count); err != nil {
			b.log.Warning(fmt.Sprintf("notify: publish unread: %v", err))
		}
	})
}

func (b *Bridge) latestUnread(seq uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return seq == b.unreadSeq
}
