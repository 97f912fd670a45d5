package converter

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xxxbrian/ruleset-converter/internal/regexlint"
)

var portPattern = regexp.MustCompile(`^-?[0-9]+$`)

// CIDRResolver expands a GEOIP code into the networks it covers.
type CIDRResolver interface {
	GetCIDRs(code string) ([]string, bool)
}

// Normalize maps records to canonical categories, deduplicates each group
// and assembles the document. A non-empty domain group, holding both domain
// and domain_suffix addresses, is always the first rule.
func (c *Converter) Normalize(records []Record) Document {
	groups := make(map[Category]*orderedSet)
	group := func(cat Category) *orderedSet {
		s, ok := groups[cat]
		if !ok {
			s = newOrderedSet()
			groups[cat] = s
		}
		return s
	}

	for _, rec := range records {
		tag := strings.TrimSpace(rec.Tag)
		if strings.Contains(tag, "#") {
			continue
		}
		address := strings.TrimSpace(rec.Address)
		if address == "" {
			continue
		}
		if !utf8.ValidString(address) {
			c.warn(&InvalidEncoding{Tag: tag, Address: address})
			continue
		}
		cat, ok := ResolveCategory(tag, address)
		if !ok {
			slog.Debug("dropping unknown tag", "tag", tag, "address", address)
			continue
		}
		group(cat).add(address)
	}

	if c.opts.CIDRs != nil {
		if codes, ok := groups[CategoryGeoIP]; ok {
			for _, code := range codes.items {
				cidrs, found := c.opts.CIDRs.GetCIDRs(code)
				if !found {
					continue
				}
				for _, cidr := range cidrs {
					group(CategoryIPCIDR).add(cidr)
				}
			}
		}
	}

	if regexes, ok := groups[CategoryDomainRegex]; ok {
		for _, expr := range regexes.items {
			if err := regexlint.Check(expr); err != nil {
				c.warn(fmt.Errorf("domain_regex %q: %w", expr, err))
			}
		}
	}

	doc := Document{Version: DocumentVersion}

	domains := newOrderedSet()
	if s, ok := groups[CategoryDomain]; ok {
		domains.add(s.items...)
	}
	if s, ok := groups[CategoryDomainSuffix]; ok {
		domains.add(s.items...)
	}
	if len(domains.items) > 0 {
		doc.Rules = append(doc.Rules, Rule{Category: CategoryDomain, Values: stringValues(domains.items)})
	}

	for _, cat := range Categories {
		s, ok := groups[cat]
		if !ok || cat == CategoryDomain {
			continue
		}
		var values []Value
		switch cat {
		case CategoryPort, CategorySourcePort:
			values = portValues(s.items)
		case CategoryDomainSuffix:
			values = c.suffixValues(s.items)
		default:
			values = stringValues(s.items)
		}
		doc.Rules = append(doc.Rules, Rule{Category: cat, Values: values})
	}
	return doc
}

func (c *Converter) suffixValues(items []string) []Value {
	if !c.opts.SuffixDot {
		return stringValues(items)
	}
	dotted := newOrderedSet()
	for _, item := range items {
		if !strings.HasPrefix(item, ".") {
			item = "." + item
		}
		dotted.add(item)
	}
	return stringValues(dotted.items)
}

func stringValues(items []string) []Value {
	values := make([]Value, 0, len(items))
	for _, item := range items {
		values = append(values, StringValue(item))
	}
	return values
}

// portValues keeps integers as numbers and anything else, such as ranges,
// as the literal string.
func portValues(items []string) []Value {
	values := make([]Value, 0, len(items))
	seen := make(map[int64]bool)
	for _, item := range items {
		if portPattern.MatchString(item) {
			if n, err := strconv.ParseInt(item, 10, 64); err == nil {
				if !seen[n] {
					seen[n] = true
					values = append(values, IntValue(n))
				}
				continue
			}
		}
		values = append(values, StringValue(item))
	}
	return values
}

type orderedSet struct {
	seen  map[string]struct{}
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]struct{})}
}

func (s *orderedSet) add(items ...string) {
	for _, item := range items {
		if _, ok := s.seen[item]; ok {
			continue
		}
		s.seen[item] = struct{}{}
		s.items = append(s.items, item)
	}
}
