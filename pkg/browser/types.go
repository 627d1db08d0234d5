package browser

import (
	"errors"
	"time"
)

var (
	// ErrBrowserLaunch is returned when the browser, its context or its page
	// cannot be created, or the initial navigation fails.
	ErrBrowserLaunch = errors.New("browser launch failed")

	// ErrNoActiveSession is returned by Scrape when no page is open.
	ErrNoActiveSession = errors.New("no active browser session")
)

// Default values for controller options.
const (
	DefaultStartURL = "https://www.youtube.com"
	DefaultTimeout  = 30 * time.Second
)

// Options configures a Controller.
type Options struct {
	// Profiles overrides the built-in scrape profiles.
	Profiles []*Profile

	// Timeout bounds navigation and other page operations.
	Timeout time.Duration

	// SettleDelay is waited after the initial navigation so lazily rendered
	// grids have a chance to populate.
	SettleDelay time.Duration

	// Headless hides the browser window. The title workflow expects a
	// visible window the user can browse in, so this is mainly for tests.
	Headless bool

	// MuteAudio launches Chromium with --mute-audio.
	MuteAudio bool

	// InstallDriver downloads the Playwright driver and Chromium on first
	// use when they are missing.
	InstallDriver bool
}

// ScrapeResult is the outcome of one scrape.
type ScrapeResult struct {
	// ScrapedAt is when the document was read.
	ScrapedAt time.Time `json:"scrapedAt"`

	// URL is the page the titles came from.
	URL string `json:"url"`

	// Profile names the scrape profile that matched URL.
	Profile string `json:"profile"`

	// Titles are the trimmed titles in document order. Never nil.
	Titles []string `json:"titles"`
}
