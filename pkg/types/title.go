package types

import (
	"encoding/json"
	"fmt"
)

// TitleCandidate is one synthesized video title with the model's rationale.
//
// On the wire a candidate is a two-element array [rationale, title], which is
// the shape the client shell renders.
type TitleCandidate struct {
	Rationale string
	Title     string
}

// MarshalJSON encodes the candidate as [rationale, title].
func (c TitleCandidate) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{c.Rationale, c.Title})
}

// UnmarshalJSON decodes a [rationale, title] pair.
func (c *TitleCandidate) UnmarshalJSON(data []byte) error {
	var pair []string
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("title candidate must be a [rationale, title] array: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("title candidate must have exactly 2 elements, got %d", len(pair))
	}
	c.Rationale = pair[0]
	c.Title = pair[1]
	return nil
}
