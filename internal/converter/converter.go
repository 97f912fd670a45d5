package converter

import (
	"log/slog"
)

// Options controls behaviors that differ between rule list publishers.
type Options struct {
	// KeepLeadingDot keeps a '.' that follows the suffix marker of untagged
	// tokens. By default "+.example.com" and ".example.com" both become
	// "example.com".
	KeepLeadingDot bool
	// SuffixDot emits domain_suffix values with a leading '.'. The merged
	// domain group always receives the bare address.
	SuffixDot bool
	// CIDRs, when set, expands GEOIP codes into additional ip_cidr entries.
	CIDRs CIDRResolver
	// Warn receives recovered problems such as StructuredParseError,
	// RowSkipped, InvalidEncoding and regex lint findings. Defaults to a
	// slog warning.
	Warn func(error)
}

// Converter runs the detect, parse, classify and normalize pipeline for one
// source at a time. It holds no per-source state and is safe for concurrent use.
type Converter struct {
	opts Options
}

// NewConverter creates a new Converter
func NewConverter(opts Options) *Converter {
	return &Converter{opts: opts}
}

// Document converts upstream content of source into a rule-set document.
func (c *Converter) Document(source, content string) Document {
	records := c.Parse(source, content)
	for i := range records {
		records[i] = Classify(records[i])
	}
	return c.Normalize(records)
}

// Convert converts upstream content of source to canonical rule-set JSON.
func (c *Converter) Convert(source, content string) ([]byte, error) {
	return Render(c.Document(source, content))
}

func (c *Converter) warn(err error) {
	if c.opts.Warn != nil {
		c.opts.Warn(err)
		return
	}
	slog.Warn("recovered conversion problem", "err", err)
}
