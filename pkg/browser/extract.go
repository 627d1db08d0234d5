package browser

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// ExtractTitles reads the profile's title elements from a serialized
// document. Titles are trimmed; elements with no title are skipped. The
// result is empty, never nil, when nothing matches.
func ExtractTitles(rawHTML string, profile *Profile) ([]string, error) {
	titles := []string{}
	if profile == nil {
		return titles, nil
	}

	root, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc := goquery.NewDocumentFromNode(root)

	for _, rule := range profile.Rules {
		doc.Find(rule.Selector).Each(func(_ int, s *goquery.Selection) {
			var text string
			if rule.Attr == "" {
				text = s.Text()
			} else {
				text, _ = s.Attr(rule.Attr)
			}
			if text = strings.TrimSpace(text); text != "" {
				titles = append(titles, text)
			}
		})
	}

	return titles, nil
}
