// Package model defines core data structures for routeaudit.
package model

// Method identifies the syntactic idiom that produced a link destination.
type Method string

const (
	Href     Method = "href"
	Navigate Method = "NavigateTo"
)

// Classification is the outcome of resolving a destination against known routes.
type Classification string

const (
	External Classification = "external"
	Matched  Classification = "matched"
	Unknown  Classification = "unknown"
)

// Scheme values that are not derived from a literal "scheme:" prefix.
const (
	SchemeRelative         = "relative"
	SchemeProtocolRelative = "//"
)

// CommentRange is an inclusive byte-offset span of a comment within one file.
type CommentRange struct {
	Start int
	End   int
}

// RouteDecl is a route declaration found in a single file before it is
// combined with the file's authorization outcome.
type RouteDecl struct {
	Template string
	Offset   int
	Active   bool
}

// AuthInfo is the file-level authorization outcome.
// Roles is empty when Authorized is false.
type AuthInfo struct {
	Authorized bool
	Roles      []string
}

// Page is everything pass 1 learns from one route-bearing file.
type Page struct {
	Routes []RouteDecl
	Auth   AuthInfo
}

// RouteRecord is one discovered route declaration.
type RouteRecord struct {
	Route      string   `yaml:"route"`
	Active     bool     `yaml:"active"`
	Authorized bool     `yaml:"authorized"`
	Roles      []string `yaml:"roles,omitempty"`
	SourceFile string   `yaml:"source_file"`
}

// LinkRecord is one discovered outbound destination.
type LinkRecord struct {
	SourceFile     string         `yaml:"source_file"`
	LineNumber     int            `yaml:"line"`
	Destination    string         `yaml:"destination"`
	Method         Method         `yaml:"method"`
	Scheme         string         `yaml:"scheme"`
	Classification Classification `yaml:"classification"`
	Route          string         `yaml:"route,omitempty"`
}

// Result is the complete audit of a tree, ready for report building.
type Result struct {
	Root   string        `yaml:"root"`
	Routes []RouteRecord `yaml:"routes"`
	Roles  []string      `yaml:"roles"`
	Links  []LinkRecord  `yaml:"links"`
}

// Count returns the number of links with classification c.
func (r *Result) Count(c Classification) int {
	n := 0
	for i := range r.Links {
		if r.Links[i].Classification == c {
			n++
		}
	}
	return n
}

// HasRole reports whether rec requires role (already canonical lower-case).
func (rec *RouteRecord) HasRole(role string) bool {
	for _, r := range rec.Roles {
		if r == role {
			return true
		}
	}
	return false
}
