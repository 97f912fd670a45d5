package converter

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectWarnings(opts Options) (*Converter, *[]error) {
	var warnings []error
	opts.Warn = func(err error) { warnings = append(warnings, err) }
	return NewConverter(opts), &warnings
}

func TestDetect(t *testing.T) {
	tests := []struct {
		source string
		want   Format
	}{
		{"https://example.com/rules/Ads.yaml", FormatStructured},
		{"https://example.com/rules/Ads.txt?raw=1", FormatStructured},
		{"rules/local.txt", FormatStructured},
		{"https://example.com/rules/Ads.list", FormatTabular},
		{"https://example.com/rules/Ads", FormatTabular},
		{"rules.yml", FormatTabular},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Detect(tt.source), "Detect(%q)", tt.source)
	}
}

func TestParse_YAMLPayload(t *testing.T) {
	c, warnings := collectWarnings(Options{})
	content := `payload:
  - DOMAIN-SUFFIX,google.com
  - '+.example.org'
  - 10.0.0.0/8
  - PROCESS-NAME,com.tencent.mm
  - IP-CIDR,1.1.1.0/24,no-resolve
  - plain.example.net
`
	records := c.Parse("https://example.com/Ads.yaml", content)

	require.Empty(t, *warnings)
	assert.Equal(t, []Record{
		{Tag: "DOMAIN-SUFFIX", Address: "google.com"},
		{Address: "example.org", Suffix: true},
		{Address: "10.0.0.0/8"},
		{Tag: "PROCESS-NAME", Address: "com.tencent.mm"},
		{Tag: "IP-CIDR", Address: "1.1.1.0/24", Extra: "no-resolve"},
		{Address: "plain.example.net"},
	}, records)
}

func TestParse_LeadingDot(t *testing.T) {
	content := "payload:\n  - '+.example.org'\n  - .example.com\n  - +example.net\n  - '..double.example'\n"

	c, _ := collectWarnings(Options{})
	records := c.Parse("list.yaml", content)
	require.Len(t, records, 4)
	assert.Equal(t, "example.org", records[0].Address)
	assert.Equal(t, "example.com", records[1].Address)
	assert.Equal(t, "example.net", records[2].Address)
	assert.Equal(t, "double.example", records[3].Address)
	for _, rec := range records {
		assert.True(t, rec.Suffix)
	}

	c, _ = collectWarnings(Options{KeepLeadingDot: true})
	records = c.Parse("list.yaml", content)
	require.Len(t, records, 4)
	assert.Equal(t, ".example.org", records[0].Address)
	assert.Equal(t, ".example.com", records[1].Address)
	assert.Equal(t, "example.net", records[2].Address)
	assert.Equal(t, "..double.example", records[3].Address)
}

func TestConvert_DefaultOptionsStripDottedSuffixes(t *testing.T) {
	c, _ := collectWarnings(Options{})
	out, err := c.Convert("s.yaml", "payload:\n - '.example.com'\n - '+.foo.com'\n")
	require.NoError(t, err)

	var doc struct {
		Rules []map[string][]string `json:"rules"`
	}
	require.NoError(t, json.Unmarshal(out, &doc))
	assert.Equal(t, []map[string][]string{
		{"domain": {"example.com", "foo.com"}},
		{"domain_suffix": {"example.com", "foo.com"}},
	}, doc.Rules)
}

func TestParse_SingleLine(t *testing.T) {
	c, warnings := collectWarnings(Options{})
	records := c.Parse("https://example.com/list.txt", "+ads.example example.com 1.2.3.4/24")

	require.Empty(t, *warnings)
	assert.Equal(t, []Record{
		{Address: "ads.example", Suffix: true},
		{Address: "example.com"},
		{Address: "1.2.3.4/24"},
	}, records)
}

func TestParse_MissingPayload(t *testing.T) {
	c, warnings := collectWarnings(Options{})
	records := c.Parse("list.yaml", "name: nothing here\n")

	assert.Empty(t, *warnings)
	assert.Empty(t, records)
}

func TestParse_FallbackOnMalformedYAML(t *testing.T) {
	c, warnings := collectWarnings(Options{})
	content := "payload: \"unterminated\nDOMAIN,example.com\n"

	records := c.Parse("https://example.com/broken.yaml", content)

	require.NotEmpty(t, *warnings)
	var spe *StructuredParseError
	require.True(t, errors.As((*warnings)[0], &spe))
	assert.Equal(t, "https://example.com/broken.yaml", spe.Source)
	assert.Contains(t, records, Record{Tag: "DOMAIN", Address: "example.com"})
}

func TestParse_FallbackOnUnexpectedShape(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"top level list", "- DOMAIN,example.com\n"},
		{"payload not a list", "payload: 42\n"},
		{"payload item not a string", "payload:\n  - 443\n"},
		{"empty document", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, warnings := collectWarnings(Options{})
			c.Parse("rules.yaml", tt.content)

			require.NotEmpty(t, *warnings)
			var spe *StructuredParseError
			assert.True(t, errors.As((*warnings)[0], &spe))
		})
	}
}

func TestParse_Tabular(t *testing.T) {
	c, warnings := collectWarnings(Options{})
	content := "# NAME: Ads\r\nDOMAIN-SUFFIX,ads.example.com\r\n\r\nIP-CIDR,10.0.0.0/8,no-resolve\nDST-PORT,443,\nDOMAIN,a.com,b,c\nGEOIP\n"

	records := c.Parse("https://example.com/Ads.list", content)

	assert.Equal(t, []Record{
		{Tag: "# NAME: Ads"},
		{Tag: "DOMAIN-SUFFIX", Address: "ads.example.com"},
		{Tag: "IP-CIDR", Address: "10.0.0.0/8", Extra: "no-resolve"},
		{Tag: "DST-PORT", Address: "443"},
	}, records)

	require.Len(t, *warnings, 2)
	var skipped *RowSkipped
	require.True(t, errors.As((*warnings)[0], &skipped))
	assert.Equal(t, 6, skipped.Row)
	require.True(t, errors.As((*warnings)[1], &skipped))
	assert.Equal(t, 7, skipped.Row)
	assert.Equal(t, "missing address", skipped.Reason)
}

func TestParse_TabularQuotedFields(t *testing.T) {
	c, _ := collectWarnings(Options{})
	records := c.Parse("rules.list", `URL-REGEX,"^https?://ads\.example\.com/a,b",`)

	require.Len(t, records, 1)
	assert.Equal(t, `^https?://ads\.example\.com/a,b`, records[0].Address)
}

func TestUnquote(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`'example.com'`, "example.com"},
		{`"example.com"`, "example.com"},
		{`''example.com''`, "'example.com'"},
		{`'example.com"`, `'example.com"`},
		{`'`, `'`},
		{`example.com`, "example.com"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, unquote(tt.in), "unquote(%q)", tt.in)
	}
}
