// Package converter turns heterogeneous proxy rule lists into a normalized rule-set document.
package converter

// Category is a canonical matcher kind of the rule-set document.
type Category string

const (
	CategoryDomain        Category = "domain"
	CategoryDomainSuffix  Category = "domain_suffix"
	CategoryDomainKeyword Category = "domain_keyword"
	CategoryDomainRegex   Category = "domain_regex"
	CategoryIPCIDR        Category = "ip_cidr"
	CategorySourceIPCIDR  Category = "source_ip_cidr"
	CategoryGeoIP         Category = "geoip"
	CategoryPort          Category = "port"
	CategorySourcePort    Category = "source_port"
	CategoryProcessName   Category = "process_name"
	CategoryPackageName   Category = "package_name"
)

// Categories lists every canonical category in document order.
var Categories = []Category{
	CategoryDomain,
	CategoryDomainKeyword,
	CategoryDomainRegex,
	CategoryDomainSuffix,
	CategoryGeoIP,
	CategoryIPCIDR,
	CategoryPackageName,
	CategoryPort,
	CategoryProcessName,
	CategorySourceIPCIDR,
	CategorySourcePort,
}

// Raw tags assigned by the parser when a source carries no explicit tag.
const (
	TagDomain       = "DOMAIN"
	TagDomainSuffix = "DOMAIN-SUFFIX"
	TagIPCIDR       = "IP-CIDR"
	TagProcessName  = "PROCESS-NAME"
)

// DocumentVersion is the rule-set format version emitted in every document.
const DocumentVersion = 3

// Record is one raw rule as read from a source.
type Record struct {
	Tag     string // empty when the source did not carry one
	Address string
	Extra   string
	// Suffix marks an untagged address written with a '+' or '.' prefix.
	Suffix bool
}

// Value is a single entry of a rule group. Port groups may hold integers.
type Value struct {
	Str   string
	Int   int64
	IsInt bool
}

// StringValue wraps s as a Value.
func StringValue(s string) Value {
	return Value{Str: s}
}

// IntValue wraps n as a Value.
func IntValue(n int64) Value {
	return Value{Int: n, IsInt: true}
}

// Rule is one {category: [values...]} group of the document.
type Rule struct {
	Category Category
	Values   []Value
}

// Document is the normalized rule-set document for one source.
type Document struct {
	Version int
	Rules   []Rule
}

// Group returns the values of the given category and whether it is present.
func (d *Document) Group(c Category) ([]Value, bool) {
	for _, r := range d.Rules {
		if r.Category == c {
			return r.Values, true
		}
	}
	return nil, false
}
