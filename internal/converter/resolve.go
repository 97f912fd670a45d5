package converter

// Resolver maps one tagged address to its canonical category.
type Resolver interface {
	Resolve(tag, address string) Category
}

// constant resolves every address of a tag to the same category.
type constant Category

func (c constant) Resolve(string, string) Category {
	return Category(c)
}

// processResolver splits PROCESS-NAME between package and process names.
type processResolver struct{}

func (processResolver) Resolve(_ string, address string) Category {
	if IsPackageIdentifier(address) {
		return CategoryPackageName
	}
	return CategoryProcessName
}

// tagResolvers is the fixed raw tag mapping. Spellings are matched exactly.
var tagResolvers = map[string]Resolver{
	"DOMAIN-SUFFIX":  constant(CategoryDomainSuffix),
	"HOST-SUFFIX":    constant(CategoryDomainSuffix),
	"DOMAIN":         constant(CategoryDomain),
	"HOST":           constant(CategoryDomain),
	"host":           constant(CategoryDomain),
	"DOMAIN-KEYWORD": constant(CategoryDomainKeyword),
	"HOST-KEYWORD":   constant(CategoryDomainKeyword),
	"host-keyword":   constant(CategoryDomainKeyword),
	"IP-CIDR":        constant(CategoryIPCIDR),
	"ip-cidr":        constant(CategoryIPCIDR),
	"IP-CIDR6":       constant(CategoryIPCIDR),
	"IP6-CIDR":       constant(CategoryIPCIDR),
	"SRC-IP-CIDR":    constant(CategorySourceIPCIDR),
	"GEOIP":          constant(CategoryGeoIP),
	"DST-PORT":       constant(CategoryPort),
	"SRC-PORT":       constant(CategorySourcePort),
	"URL-REGEX":      constant(CategoryDomainRegex),
	TagProcessName:   processResolver{},
}

// ResolveCategory returns the category of address under tag, and false when
// the tag is not part of the mapping.
func ResolveCategory(tag, address string) (Category, bool) {
	r, ok := tagResolvers[tag]
	if !ok {
		return "", false
	}
	return r.Resolve(tag, address), true
}
