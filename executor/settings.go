package executor

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Style selects the spinner glyph alphabet.
type Style string

const (
	StyleBraille Style = "braille"
	StyleASCII   Style = "ascii"
)

// Environment variables consulted when a call does not override a setting.
const (
	EnvShowProgress     = "CLI_SHOW_PROGRESS"
	EnvProgressIdle     = "CLI_PROGRESS_IDLE_SECONDS"
	EnvProgressStyle    = "CLI_PROGRESS_STYLE"
	EnvProgressInterval = "CLI_PROGRESS_INTERVAL_SECONDS"
)

var (
	brailleFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	asciiFrames   = []string{"|", "/", "-", "\\"}
)

// Frames returns the glyph cycle for the style. Unknown styles render as braille;
// configuration rejects them before they get here.
func (s Style) Frames() []string {
	if Style(strings.ToLower(strings.TrimSpace(string(s)))) == StyleASCII {
		return asciiFrames
	}
	return brailleFrames
}

// ProgressSettings controls the idle progress indicator.
type ProgressSettings struct {
	ShowProgress  bool
	IdleThreshold time.Duration
	Style         Style
	Interval      time.Duration
}

// DefaultProgressSettings returns the built-in defaults.
func DefaultProgressSettings() ProgressSettings {
	return ProgressSettings{
		ShowProgress:  true,
		IdleThreshold: 2 * time.Second,
		Style:         StyleBraille,
		Interval:      120 * time.Millisecond,
	}
}

// ProgressOverrides holds optional settings; nil fields are not overridden.
type ProgressOverrides struct {
	Show          *bool
	IdleThreshold *time.Duration
	Style         *Style
	Interval      *time.Duration
}

// SettingsStore is the process-scoped default for progress settings.
// It is set once at start-up and read by every Run call.
type SettingsStore struct {
	mu       sync.RWMutex
	settings ProgressSettings
}

// NewSettingsStore creates a store holding s.
func NewSettingsStore(s ProgressSettings) *SettingsStore {
	return &SettingsStore{settings: s}
}

// Get returns a snapshot of the current settings.
func (st *SettingsStore) Get() ProgressSettings {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.settings
}

// Set replaces the settings.
func (st *SettingsStore) Set(s ProgressSettings) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.settings = s
}

// Configure applies the non-nil fields of o.
func (st *SettingsStore) Configure(o ProgressOverrides) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.settings = o.apply(st.settings)
}

func (o ProgressOverrides) apply(s ProgressSettings) ProgressSettings {
	if o.Show != nil {
		s.ShowProgress = *o.Show
	}
	if o.IdleThreshold != nil {
		s.IdleThreshold = *o.IdleThreshold
	}
	if o.Style != nil {
		s.Style = *o.Style
	}
	if o.Interval != nil {
		s.Interval = *o.Interval
	}
	return s
}

// resolveSettings applies call overrides over environment overrides over the store.
func resolveSettings(store *SettingsStore, lookupEnv func(string) (string, bool), call ProgressOverrides) ProgressSettings {
	s := DefaultProgressSettings()
	if store != nil {
		s = store.Get()
	}
	s = overridesFromEnv(lookupEnv).apply(s)
	return call.apply(s)
}

func overridesFromEnv(lookupEnv func(string) (string, bool)) ProgressOverrides {
	var o ProgressOverrides
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}
	if raw, ok := lookupEnv(EnvShowProgress); ok {
		show := ParseEnvBool(raw)
		o.Show = &show
	}
	if d, ok := parseEnvSeconds(lookupEnv, EnvProgressIdle); ok {
		o.IdleThreshold = &d
	}
	if raw, ok := lookupEnv(EnvProgressStyle); ok {
		style := Style(raw)
		o.Style = &style
	}
	if d, ok := parseEnvSeconds(lookupEnv, EnvProgressInterval); ok {
		o.Interval = &d
	}
	return o
}

// ParseEnvBool accepts 1, true, yes, y and on (any case) as true.
func ParseEnvBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}

// parseEnvSeconds ignores empty and malformed values.
func parseEnvSeconds(lookupEnv func(string) (string, bool), name string) (time.Duration, bool) {
	raw, ok := lookupEnv(name)
	if !ok || strings.TrimSpace(raw) == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, false
	}
	return Seconds(f), true
}

// Seconds converts fractional seconds to a Duration.
func Seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}
