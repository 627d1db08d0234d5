package config

import "sort"

// DefaultModelKey is the variant used when none is configured.
const DefaultModelKey = "flash-exp"

// Variants maps the model keys clients send to the model names used on
// the wire.
var Variants = map[string]string{
	"flash-exp": "gemini-2.0-flash-exp",
	"flash":     "gemini-1.5-flash",
	"flash-8b":  "gemini-1.5-flash-8b",
	"pro":       "gemini-1.5-pro",
}

// LookupModel returns the model name for key.
func LookupModel(key string) (string, bool) {
	model, ok := Variants[key]
	return model, ok
}

// VariantKeys returns the known model keys, sorted.
func VariantKeys() []string {
	keys := make([]string, 0, len(Variants))
	for k := range Variants {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
