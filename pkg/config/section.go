package config

// Section is one named block of configuration.
//
// Sections convert to and from the generic map form used by the Store, so
// the file format stays independent of the Go types.
type Section interface {
	// ID is the key the section is stored under.
	ID() string

	// Title is a human-readable name.
	Title() string

	// Description explains what the section controls.
	Description() string

	// Data returns the section as a map.
	Data() map[string]interface{}

	// SetData updates the section from a map. Unknown keys are ignored and
	// missing keys leave the current value.
	SetData(data map[string]interface{}) error

	// Validate reports whether the current values are usable.
	Validate() error

	// Reset restores defaults.
	Reset()
}
