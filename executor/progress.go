package executor

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"golang.org/x/term"
)

const (
	minInterval = 20 * time.Millisecond
	// minIdleRecheck bounds how often the indicator re-checks while output is flowing.
	minIdleRecheck = 20 * time.Millisecond
)

// Renderer draws the single overwritable status line.
type Renderer interface {
	Render(frame string, elapsed time.Duration)
	Clear()
}

// lineRenderer writes carriage-return based frames to a stream.
type lineRenderer struct {
	w       io.Writer
	message string
	lastLen int
}

func newLineRenderer(w io.Writer, message string) *lineRenderer {
	return &lineRenderer{w: w, message: message}
}

func (l *lineRenderer) Render(frame string, elapsed time.Duration) {
	text := fmt.Sprintf("%s %s  %s", frame, l.message, FormatElapsed(elapsed))
	if n := utf8.RuneCountInString(text); n > l.lastLen {
		l.lastLen = n
	}
	_, _ = io.WriteString(l.w, "\r"+text)
}

func (l *lineRenderer) Clear() {
	if l.lastLen <= 0 {
		return
	}
	_, _ = io.WriteString(l.w, "\r"+strings.Repeat(" ", l.lastLen)+"\r")
}

// FormatElapsed renders d as "12.3s" below one minute and "2m05s" above.
func FormatElapsed(d time.Duration) string {
	seconds := d.Seconds()
	if seconds < 60 {
		return fmt.Sprintf("%0.1fs", seconds)
	}
	minutes := int(seconds) / 60
	return fmt.Sprintf("%dm%02ds", minutes, int(seconds)%60)
}

// activityClock is the last moment output was observed.
type activityClock struct {
	base time.Time
	// offset from base in nanoseconds; base carries the monotonic reading.
	offset atomic.Int64
}

func newActivityClock(start time.Time) *activityClock {
	return &activityClock{base: start}
}

func (c *activityClock) Touch() {
	c.offset.Store(int64(time.Since(c.base)))
}

func (c *activityClock) Last() time.Time {
	return c.base.Add(time.Duration(c.offset.Load()))
}

// Indicator renders a spinner only while no output has been observed for
// at least the idle threshold.
type Indicator struct {
	renderer Renderer
	frames   []string
	interval time.Duration
	idle     time.Duration

	mu    sync.Mutex
	shown bool

	stop    chan struct{}
	done    chan struct{}
	started bool
}

// NewIndicator creates an indicator drawing through r.
func NewIndicator(r Renderer, style Style, interval, idle time.Duration) *Indicator {
	if interval < minInterval {
		interval = minInterval
	}
	if idle < 0 {
		idle = 0
	}
	return &Indicator{
		renderer: r,
		frames:   style.Frames(),
		interval: interval,
		idle:     idle,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the render loop. lastActivity is called on every wake.
func (p *Indicator) Start(start time.Time, lastActivity func() time.Time) {
	if p.started {
		return
	}
	p.started = true
	go p.loop(start, lastActivity)
}

func (p *Indicator) loop(start time.Time, lastActivity func() time.Time) {
	defer close(p.done)
	idx := 0
	for {
		var sleep time.Duration
		p.mu.Lock()
		now := time.Now()
		idle := now.Sub(lastActivity())
		if idle < p.idle {
			p.clearLocked()
			sleep = min(p.interval, max(p.idle-idle, minIdleRecheck))
		} else {
			p.renderer.Render(p.frames[idx%len(p.frames)], now.Sub(start))
			p.shown = true
			idx++
			sleep = p.interval
		}
		p.mu.Unlock()

		t := time.NewTimer(sleep)
		select {
		case <-p.stop:
			t.Stop()
			return
		case <-t.C:
		}
	}
}

// Clear erases the line if it is visible.
func (p *Indicator) Clear() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clearLocked()
}

// Interrupt erases the line and runs fn while no frame can be drawn, so
// output written by fn never interleaves with the spinner.
func (p *Indicator) Interrupt(fn func()) {
	if p == nil {
		fn()
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clearLocked()
	fn()
}

func (p *Indicator) clearLocked() {
	if p.shown {
		p.renderer.Clear()
		p.shown = false
	}
}

// Stop ends the render loop and leaves the line erased.
func (p *Indicator) Stop() {
	if p == nil {
		return
	}
	if p.started {
		select {
		case <-p.stop:
		default:
			close(p.stop)
		}
		<-p.done
	}
	p.Clear()
}

// terminal is implemented by writers that know whether they are interactive.
type terminal interface {
	IsTerminal() bool
}

type fdWriter interface {
	Fd() uintptr
}

// IsInteractive reports whether w is an interactive terminal.
func IsInteractive(w io.Writer) bool {
	switch v := w.(type) {
	case terminal:
		return v.IsTerminal()
	case fdWriter:
		return term.IsTerminal(int(v.Fd()))
	}
	return false
}
