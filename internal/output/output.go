package output

// Printer renders output to stdout.
type Printer interface {
	Print(v any) error
}

// PingResult pairs the server address with the API version it reported.
type PingResult struct {
	Server  string `json:"server"`
	Version string `json:"version"`
}

// StreamURL wraps a playable URL so both printers can render it.
type StreamURL struct {
	URL string `json:"url"`
}
