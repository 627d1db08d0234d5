// Package browser drives a single Chromium window through Playwright and
// scrapes video titles from whatever page the user has navigated to.
//
// The controller owns at most one browser, one context and one page. The
// user interacts with the window directly; Scrape only reads the current
// document and never navigates or waits.
//
// Example usage:
//
//	ctrl := browser.NewController(browser.Options{MuteAudio: true})
//	defer ctrl.Shutdown()
//
//	if err := ctrl.Open(ctx, "https://www.youtube.com"); err != nil {
//	    return err
//	}
//	// ... the user browses ...
//	result, err := ctrl.Scrape(ctx)
//
// Which elements are read depends on the page. Profiles pair a URL glob with
// CSS selectors; the first profile whose glob matches the current URL wins.
package browser
