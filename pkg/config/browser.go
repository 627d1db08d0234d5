package config

import (
	"fmt"
	"net/url"
	"sync"
	"time"
)

// SectionIDBrowser is the identifier for the browser section.
const SectionIDBrowser = "browser"

// Browser defaults.
const (
	DefaultStartURL       = "https://www.youtube.com"
	DefaultBrowserTimeout = 30 * time.Second
)

// BrowserSection controls the scraping browser.
type BrowserSection struct {
	StartURL      string
	Timeout       time.Duration
	SettleDelay   time.Duration
	Headless      bool
	MuteAudio     bool
	InstallDriver bool
	mu            sync.RWMutex
}

// NewBrowserSection creates a browser section with default settings.
func NewBrowserSection() *BrowserSection {
	s := &BrowserSection{}
	s.Reset()
	return s
}

func (s *BrowserSection) ID() string    { return SectionIDBrowser }
func (s *BrowserSection) Title() string { return "Browser Settings" }
func (s *BrowserSection) Description() string {
	return "Chromium window used for scraping. The window is visible by default so the user can browse to the page to scrape."
}

// Data returns the current configuration data. Durations are stored as
// strings such as "30s".
func (s *BrowserSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]interface{}{
		"start_url":      s.StartURL,
		"timeout":        s.Timeout.String(),
		"settle_delay":   s.SettleDelay.String(),
		"headless":       s.Headless,
		"mute_audio":     s.MuteAudio,
		"install_driver": s.InstallDriver,
	}
}

// SetData updates the configuration from the provided data.
func (s *BrowserSection) SetData(data map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, v := range data {
		ok := v == nil
		if ok {
			continue
		}
		switch key {
		case "start_url":
			var str string
			if str, ok = asString(v); ok {
				s.StartURL = str
			}
		case "timeout":
			var d time.Duration
			if d, ok = asDuration(v); ok {
				s.Timeout = d
			}
		case "settle_delay":
			var d time.Duration
			if d, ok = asDuration(v); ok {
				s.SettleDelay = d
			}
		case "headless":
			var b bool
			if b, ok = asBool(v); ok {
				s.Headless = b
			}
		case "mute_audio":
			var b bool
			if b, ok = asBool(v); ok {
				s.MuteAudio = b
			}
		case "install_driver":
			var b bool
			if b, ok = asBool(v); ok {
				s.InstallDriver = b
			}
		default:
			ok = true
		}
		if !ok {
			return fieldError(SectionIDBrowser, key, v)
		}
	}
	return nil
}

// Validate validates the current configuration.
func (s *BrowserSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, err := url.Parse(s.StartURL)
	if err != nil || u.Scheme == "" {
		return fmt.Errorf("start_url %q is not an absolute URL", s.StartURL)
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", s.Timeout)
	}
	if s.SettleDelay < 0 {
		return fmt.Errorf("settle_delay must not be negative, got %s", s.SettleDelay)
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *BrowserSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.StartURL = DefaultStartURL
	s.Timeout = DefaultBrowserTimeout
	s.SettleDelay = 0
	s.Headless = false
	s.MuteAudio = true
	s.InstallDriver = true
}

// Snapshot returns a copy of the section's values.
func (s *BrowserSection) Snapshot() BrowserSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return BrowserSettings{
		StartURL:      s.StartURL,
		Timeout:       s.Timeout,
		SettleDelay:   s.SettleDelay,
		Headless:      s.Headless,
		MuteAudio:     s.MuteAudio,
		InstallDriver: s.InstallDriver,
	}
}

// SetStartURL sets the page opened by start-session.
func (s *BrowserSection) SetStartURL(u string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.StartURL = u
}

// SetHeadless toggles headless mode.
func (s *BrowserSection) SetHeadless(headless bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Headless = headless
}

// BrowserSettings is a lock-free copy of BrowserSection.
type BrowserSettings struct {
	StartURL      string
	Timeout       time.Duration
	SettleDelay   time.Duration
	Headless      bool
	MuteAudio     bool
	InstallDriver bool
}
