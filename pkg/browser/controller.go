package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/titleforge/pkg/logging"
)

var browserLog *logging.Logger

func init() {
	var err error
	browserLog, err = logging.NewLogger("browser")
	if err != nil {
		browserLog.Warnf("Failed to initialize browser logger, using stderr fallback: %v", err)
	}
}

// session is the set of Playwright handles for one open window.
type session struct {
	browser  playwright.Browser
	context  playwright.BrowserContext
	page     playwright.Page
	openedAt time.Time
}

// close releases the page, context and browser, continuing past errors.
func (s *session) close() error {
	var errs []error
	if s.page != nil {
		if err := s.page.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close page: %w", err))
		}
	}
	if s.context != nil {
		if err := s.context.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close context: %w", err))
		}
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
	}
	return errors.Join(errs...)
}

type closer interface {
	close() error
}

// releasePartial closes whatever a failed launch left behind.
func releasePartial(s closer, url string) {
	if err := s.close(); err != nil {
		browserLog.Warnf("Error releasing half-open browser for %s: %v", url, err)
	}
}

// Controller owns the Playwright driver and at most one browser session.
// All methods are safe for concurrent use; Playwright calls are serialized.
type Controller struct {
	mu       sync.Mutex
	opts     Options
	pw       *playwright.Playwright
	current  *session
	profiles []*Profile
}

// NewController creates a controller. The Playwright driver is started
// lazily by the first Open.
func NewController(opts Options) *Controller {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	profiles := opts.Profiles
	if len(profiles) == 0 {
		profiles = DefaultProfiles()
	}
	return &Controller{opts: opts, profiles: profiles}
}

// ensureDriver starts Playwright. Must be called with c.mu held.
func (c *Controller) ensureDriver() error {
	if c.pw != nil {
		return nil
	}

	runOpts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}
	if c.opts.InstallDriver {
		browserLog.Infof("Installing playwright driver and chromium")
		if err := playwright.Install(runOpts); err != nil {
			return fmt.Errorf("failed to install playwright: %w", err)
		}
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}
	c.pw = pw
	return nil
}

// Open launches a new browser window and navigates it to url. A window that
// is already open is closed first. On failure nothing stays open and the
// returned error wraps ErrBrowserLaunch.
func (c *Controller) Open(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrBrowserLaunch, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil {
		browserLog.Infof("Closing previous browser session before reopening")
		if err := c.current.close(); err != nil {
			browserLog.Warnf("Error closing previous session: %v", err)
		}
		c.current = nil
	}

	if err := c.ensureDriver(); err != nil {
		return fmt.Errorf("%w: %w", ErrBrowserLaunch, err)
	}

	s, err := c.launch(url)
	if err != nil {
		if s != nil {
			releasePartial(s, url)
		}
		browserLog.Errorf("Failed to open %s: %v", url, err)
		return fmt.Errorf("%w: %w", ErrBrowserLaunch, err)
	}

	if c.opts.SettleDelay > 0 {
		select {
		case <-time.After(c.opts.SettleDelay):
		case <-ctx.Done():
		}
	}

	c.current = s
	browserLog.Infof("Browser opened and navigated to %s", url)
	return nil
}

// launch creates the browser, context and page and navigates. The partial
// session is returned alongside an error so the caller can release it.
func (c *Controller) launch(url string) (*session, error) {
	var args []string
	if c.opts.MuteAudio {
		args = append(args, "--mute-audio")
	}

	b, err := c.pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(c.opts.Headless),
		Args:     args,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	s := &session{browser: b, openedAt: time.Now()}

	// NoViewport lets the page follow the window size the user picks.
	s.context, err = b.NewContext(playwright.BrowserNewContextOptions{
		NoViewport: playwright.Bool(true),
	})
	if err != nil {
		return s, fmt.Errorf("failed to create context: %w", err)
	}

	s.page, err = s.context.NewPage()
	if err != nil {
		return s, fmt.Errorf("failed to create page: %w", err)
	}

	timeoutMs := float64(c.opts.Timeout.Milliseconds())
	s.page.SetDefaultTimeout(timeoutMs)

	if _, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(timeoutMs),
	}); err != nil {
		return s, fmt.Errorf("navigation failed: %w", err)
	}

	return s, nil
}

// Scrape reads titles from the page as it is right now.
func (c *Controller) Scrape(ctx context.Context) (*ScrapeResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.current == nil {
		c.mu.Unlock()
		return nil, ErrNoActiveSession
	}
	page := c.current.page
	url := page.URL()
	content, err := page.Content()
	c.mu.Unlock()

	if err != nil {
		return nil, fmt.Errorf("failed to read page content: %w", err)
	}

	profile := MatchProfile(c.profiles, url)
	titles, err := ExtractTitles(content, profile)
	if err != nil {
		return nil, err
	}

	result := &ScrapeResult{
		ScrapedAt: time.Now(),
		URL:       url,
		Titles:    titles,
	}
	if profile != nil {
		result.Profile = profile.Name
	}

	browserLog.Debugf("Scraped %d titles from %s using profile %q", len(titles), url, result.Profile)
	return result, nil
}

// CurrentURL returns the open page's URL, or "" when nothing is open.
func (c *Controller) CurrentURL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return ""
	}
	return c.current.page.URL()
}

// IsOpen reports whether a window is held.
func (c *Controller) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil
}

// Close releases the open window, if any. Calling it with nothing open is a
// no-op.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return nil
	}
	err := c.current.close()
	c.current = nil
	browserLog.Infof("Browser closed")
	return err
}

// Shutdown closes the window and stops the Playwright driver.
func (c *Controller) Shutdown() error {
	closeErr := c.Close()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pw == nil {
		return closeErr
	}
	stopErr := c.pw.Stop()
	c.pw = nil
	if stopErr != nil {
		stopErr = fmt.Errorf("failed to stop playwright: %w", stopErr)
	}
	return errors.Join(closeErr, stopErr)
}
