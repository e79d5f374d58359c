// Package logging builds the Wails logger shared by the shell and its
// components.
package logging

import (
	"os"
	"path/filepath"

	"github.com/wailsapp/wails/v2/pkg/logger"
	"golang.org/x/term"

	"github.com/Mavwarf/teamsdesk/internal/paths"
)

// Open returns a logger writing to dir/teamsdesk.log. When stderr is a
// terminal, messages are echoed to the console as well.
func Open(dir string) logger.Logger {
	if err := os.MkdirAll(dir, paths.DirPerm); err != nil {
		return logger.NewDefaultLogger()
	}
	file := logger.NewFileLogger(filepath.Join(dir, paths.LogFileName))
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return file
	}
	return Tee{file, logger.NewDefaultLogger()}
}

// Tee fans every message out to all of its loggers.
type Tee []logger.Logger

func (t Tee) Print(message string) {
	for _, l := range t {
		l.Print(message)
	}
}

func (t Tee) Trace(message string) {
	for _, l := range t {
		l.Trace(message)
	}
}

func (t Tee) Debug(message string) {
	for _, l := range t {
		l.Debug(message)
	}
}

func (t Tee) Info(message string) {
	for _, l := range t {
		l.Info(message)
	}
}

func (t Tee) Warning(message string) {
	for _, l := range t {
		l.Warning(message)
	}
}

func (t Tee) Error(message string) {
	for _, l := range t {
		l.Error(message)
	}
}

func (t Tee) Fatal(message string) {
	for _, l := range t {
		l.Fatal(message)
	}
}

// Nop discards everything. Tests and optional components use it when no
// logger is supplied.
func Nop() logger.Logger { return Tee(nil) }

// OrNop returns l, or Nop when l is nil.
func OrNop(l logger.Logger) logger.Logger {
	if l == nil {
		return Nop()
	}
	return l
}
