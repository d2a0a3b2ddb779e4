// Package codec centralizes the JSON encoding used for persisted models and
// index labels. Changing the default codec does not break persisted data as
// long as the new codec reads standard JSON.
package codec

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	default:
		return nil, false
	}
}

// Default is the codec used by the classifier and the index point codec.
var Default Codec = GoJSON{}
