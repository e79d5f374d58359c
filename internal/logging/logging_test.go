package logging

import (
	"testing"

	"github.com/wailsapp/wails/v2/pkg/logger"
)

type recorder struct{ lines []string }

func (r *recorder) Print(m string)   { r.lines = append(r.lines, "print:"+m) }
func (r *recorder) Trace(m string)   { r.lines = append(r.lines, "trace:"+m) }
func (r *recorder) Debug(m string)   { r.lines = append(r.lines, "debug:"+m) }
func (r *recorder) Info(m string)    { r.lines = append(r.lines, "info:"+m) }
func (r *recorder) Warning(m string) { r.lines = append(r.lines, "warning:"+m) }
func (r *recorder) Error(m string)   { r.lines = append(r.lines, "error:"+m) }
func (r *recorder) Fatal(m string)   { r.lines = append(r.lines, "fatal:"+m) }

var _ logger.Logger = Tee(nil)

func TestTeeFansOut(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	tee := Tee{a, b}
	tee.Info("hello")
	tee.Warning("careful")

	for _, r := range []*recorder{a, b} {
		if len(r.lines) != 2 || r.lines[0] != "info:hello" || r.lines[1] != "warning:careful" {
			t.Errorf("lines = %v", r.lines)
		}
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("OrNop(nil) returned nil")
	}
	OrNop(nil).Error("discarded") // must not panic

	r := &recorder{}
	if OrNop(r) != logger.Logger(r) {
		t.Error("OrNop should return the given logger")
	}
}
