package browser

import (
	"fmt"

	"github.com/gobwas/glob"
)

// Rule selects title elements on a page.
type Rule struct {
	// Selector is a CSS selector.
	Selector string

	// Attr names the attribute holding the title. Empty means the
	// element's text content.
	Attr string
}

// Profile pairs a URL glob with the rules that read titles from matching
// pages. Rules are applied in order and their results concatenated.
type Profile struct {
	Name    string
	Pattern string
	Rules   []Rule

	matcher glob.Glob
}

// NewProfile compiles a profile. The pattern uses glob syntax where '*'
// matches any run of characters, including '/'.
func NewProfile(name, pattern string, rules ...Rule) (*Profile, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("profile %q has no rules", name)
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern for profile %q: %w", name, err)
	}
	return &Profile{Name: name, Pattern: pattern, Rules: rules, matcher: g}, nil
}

func mustProfile(name, pattern string, rules ...Rule) *Profile {
	p, err := NewProfile(name, pattern, rules...)
	if err != nil {
		panic(err)
	}
	return p
}

// Matches reports whether url belongs to this profile.
func (p *Profile) Matches(url string) bool {
	return p.matcher != nil && p.matcher.Match(url)
}

// Search results list long-form videos under headings and Shorts as lockup
// anchors whose title lives in an attribute.
var searchProfile = mustProfile("search", "https://www.youtube.com/results\\?search_query=*",
	Rule{Selector: "ytd-video-renderer h3.title-and-badge yt-formatted-string"},
	Rule{Selector: "a.shortLockupViewModelHostEndpoint.shortLockupViewModelHostOutsideMetadataEndpoint", Attr: "title"},
)

// The home grid, and the fallback for every other page.
var homeProfile = mustProfile("home", "*",
	Rule{Selector: "yt-formatted-string#video-title.style-scope.ytd-rich-grid-media"},
)

// DefaultProfiles returns the built-in profiles, most specific first.
func DefaultProfiles() []*Profile {
	return []*Profile{searchProfile, homeProfile}
}

// MatchProfile returns the first profile matching url, or nil.
func MatchProfile(profiles []*Profile, url string) *Profile {
	for _, p := range profiles {
		if p.Matches(url) {
			return p
		}
	}
	return nil
}
