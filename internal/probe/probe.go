package probe

import "context"

// Metadata holds the structured fields a prober extracts from one file.
// Zero values mean "not available"; a photo prober leaves the video fields
// empty and vice versa.
type Metadata struct {
	Width        int
	Height       int
	CaptureDate  string // raw string as found in the file, e.g. "2023:07:14 10:31:02"
	DurationSecs float64
	Codec        string
	BitrateBps   int64
}

// Prober extracts metadata for a single file.
//
// Implementations must honor ctx cancellation where possible, but callers
// may not rely on it: a hung decoder is abandoned by the caller when its
// per-file timeout expires.
type Prober interface {
	Probe(ctx context.Context, path string) (*Metadata, error)
}

// ProberFunc adapts a function to the Prober interface.
type ProberFunc func(ctx context.Context, path string) (*Metadata, error)

// Probe implements Prober.
func (f ProberFunc) Probe(ctx context.Context, path string) (*Metadata, error) {
	return f(ctx, path)
}
