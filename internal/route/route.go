// Package route maps tracked issuers to their outbound destinations.
package route

import "fmt"

// Route is where a collection's announcements go.
type Route struct {
	Collection     string
	TwitterAccount int
	DiscordChannel string
	DiscordRole    string
}

// Table is the issuer-to-destination mapping. Built once at startup,
// read-only afterwards; the terminal filter ensuring only configured
// collections ever produce outbound posts.
type Table struct {
	byIssuer map[string]Route
}

// Entry pairs an issuer address with its route for table construction.
type Entry struct {
	Issuer string
	Route  Route
}

// NewTable builds the immutable routing table.
func NewTable(entries []Entry) (*Table, error) {
	byIssuer := make(map[string]Route, len(entries))
	for _, e := range entries {
		if e.Issuer == "" {
			return nil, fmt.Errorf("route for collection %q: empty issuer", e.Route.Collection)
		}
		if _, dup := byIssuer[e.Issuer]; dup {
			return nil, fmt.Errorf("duplicate route for issuer %s", e.Issuer)
		}
		byIssuer[e.Issuer] = e.Route
	}
	return &Table{byIssuer: byIssuer}, nil
}

// Lookup resolves an issuer to its route. Not-found means the caller skips
// the event.
func (t *Table) Lookup(issuer string) (Route, bool) {
	r, ok := t.byIssuer[issuer]
	return r, ok
}

// Issuers lists every tracked issuer address.
func (t *Table) Issuers() []string {
	out := make([]string, 0, len(t.byIssuer))
	for issuer := range t.byIssuer {
		out = append(out, issuer)
	}
	return out
}
