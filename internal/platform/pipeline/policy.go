package pipeline

import (
	"fmt"
	"regexp"
	"strings"
)

// TierRule maps a route-pattern prefix to the privilege tier required to
// reach routes under it. Rules are scanned in declaration order and the
// first matching prefix wins, so more specific prefixes must be declared
// before broader ones.
type TierRule struct {
	Prefix string
	Tier   Tier
}

// Table is the route policy consulted by the authentication, authorization
// and content-validation stages. It is loaded once at startup and read-only
// afterwards.
type Table struct {
	public  map[string]bool
	rules   []TierRule
	uploads []*regexp.Regexp
}

// NewTable builds a policy table. Public routes are matched by exact route
// pattern. Upload patterns are regular expressions matched against the raw
// request path.
func NewTable(public []string, rules []TierRule, uploadPatterns []string) (*Table, error) {
	t := &Table{
		public: make(map[string]bool, len(public)),
		rules:  rules,
	}
	for _, p := range public {
		t.public[p] = true
	}
	for _, p := range uploadPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compile upload pattern %q: %w", p, err)
		}
		t.uploads = append(t.uploads, re)
	}
	return t, nil
}

// DefaultTable returns the policy shipped with the server. Rule order is
// significant: /user/logout, /user/renew and /user/update/photo stay open to
// any authenticated user while the rest of /user requires manager privilege.
func DefaultTable() *Table {
	t, err := NewTable(
		[]string{
			"/health",
			"/health/db",
			"/tools",
			"/user/login",
			"/user/activate/:code",
		},
		[]TierRule{
			{Prefix: "/user/logout", Tier: TierCaregiver},
			{Prefix: "/user/renew", Tier: TierCaregiver},
			{Prefix: "/user/update/photo", Tier: TierCaregiver},
			{Prefix: "/user", Tier: TierManager},
			{Prefix: "/address", Tier: TierManager},
			{Prefix: "/report", Tier: TierManager},
		},
		[]string{
			`^/patient(/[0-9]+)?/upload$`,
			`^/user(/[0-9]+)?/update/photo$`,
		},
	)
	if err != nil {
		panic(err)
	}
	return t
}

// Public reports whether the matched route pattern requires no credential.
func (t *Table) Public(route string) bool {
	return t.public[route]
}

// RequiredTier resolves the privilege tier required for a route pattern by
// scanning the prefix rules in declaration order. When no rule matches, the
// least privileged tier applies: any authenticated user may pass.
func (t *Table) RequiredTier(route string) Tier {
	for _, r := range t.rules {
		if strings.HasPrefix(route, r.Prefix) {
			return r.Tier
		}
	}
	return TierCaregiver
}

// UploadPath reports whether the raw request path addresses a file-upload
// endpoint. Upload endpoints accept multipart bodies instead of JSON.
func (t *Table) UploadPath(path string) bool {
	for _, re := range t.uploads {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}
