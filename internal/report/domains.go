package report

import (
	"net/url"
	"sort"
	"strings"

	"golang.org/x/net/publicsuffix"

	"github.com/phobologic/routeaudit/internal/model"
)

// DomainCount is the number of external links pointing at one registrable
// domain.
type DomainCount struct {
	Domain string
	Links  int
}

// ExternalDomains groups external links with a host by registrable domain,
// most linked first.
func ExternalDomains(links []model.LinkRecord) []DomainCount {
	counts := make(map[string]int)
	for i := range links {
		if links[i].Classification != model.External {
			continue
		}
		if d := RegistrableDomain(links[i].Destination); d != "" {
			counts[d]++
		}
	}

	out := make([]DomainCount, 0, len(counts))
	for d, n := range counts {
		out = append(out, DomainCount{Domain: d, Links: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Links != out[j].Links {
			return out[i].Links > out[j].Links
		}
		return out[i].Domain < out[j].Domain
	})
	return out
}

// RegistrableDomain returns the eTLD+1 of dest's host, the bare host when it
// has no public suffix (e.g. localhost or an IP), or "" when dest has no host.
func RegistrableDomain(dest string) string {
	u, err := url.Parse(strings.TrimSpace(dest))
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return ""
	}
	d, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return d
}
