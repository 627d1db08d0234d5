package synthesis

import (
	"encoding/json"
	"fmt"
)

// instructionTemplate is sent as the system message. The parser accepts the
// unquoted title key the format line shows.
const instructionTemplate = `Above are titles from videos the algorithm is currently pushing. ` +
	`Use them to create a title for my video that the algorithm will also push. ` +
	`My video is about the topic given below. ` +
	`In the rationale, say which of the titles above you took inspiration from. ` +
	`Return nothing apart from one object per title in this format: {"rationale": "...", title:"..."}. ` +
	`Please generate %d different titles.`

// Counter counts prompt tokens.
type Counter interface {
	CountTokens(text string) int
}

func instructions(n int) string {
	return fmt.Sprintf(instructionTemplate, n)
}

// userMessage renders the scraped titles and topic as
// pastData:<json>, topic:<json>.
func userMessage(titles []string, topic string) string {
	if titles == nil {
		titles = []string{}
	}
	pastData, _ := json.Marshal(titles)
	quoted, _ := json.Marshal(topic)
	return fmt.Sprintf("pastData:%s, topic:%s", pastData, quoted)
}

// fitTitles drops titles from the end of the list until the user message
// fits in budget tokens. It returns the titles kept, in order.
func fitTitles(titles []string, topic string, budget int, counter Counter) []string {
	if budget <= 0 || counter == nil {
		return titles
	}
	kept := titles
	for len(kept) > 0 && counter.CountTokens(userMessage(kept, topic)) > budget {
		kept = kept[:len(kept)-1]
	}
	return kept
}
