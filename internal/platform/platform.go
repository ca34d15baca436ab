// Package platform defines the fixed set of platforms the scanner checks and
// the social-domain mapping used when crawling business websites.
package platform

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// GoogleMaps is the map-listing platform. It is verified by name in its own
// discovery stage and is not part of the searchable set.
const GoogleMaps = "Google Maps"

// Platform is a searchable platform with its site-scoped query prefix.
type Platform struct {
	Name  string `yaml:"name"`
	Scope string `yaml:"scope"` // e.g. site:facebook.com
}

// defaultSet is the searchable platform set in fixed declaration order.
// Phone-anchored and fallback searches visit platforms in this order.
var defaultSet = []Platform{
	{Name: "FACEBOOK", Scope: "site:facebook.com"},
	{Name: "INSTAGRAM", Scope: "site:instagram.com"},
	{Name: "LINKEDIN", Scope: "site:linkedin.com/company"},
	{Name: "YELP", Scope: "site:yelp.com"},
	{Name: "YELLOWPAGES", Scope: "site:yellowpages.com"},
	{Name: "FOURSQUARE", Scope: "site:foursquare.com"},
	{Name: "APPLE_MAPS", Scope: "site:maps.apple.com"},
	{Name: "BING_PLACES", Scope: "site:bing.com/maps"},
	{Name: "TRIPADVISOR", Scope: "site:tripadvisor.com"},
	{Name: "YOUTUBE", Scope: "site:youtube.com"},
	{Name: "TIKTOK", Scope: "site:tiktok.com"},
}

// socialDomains maps website hostnames to platform names. The crawl
// recognizes more platforms than the searchable set; a business linking to
// its own Twitter or WhatsApp still counts as presence.
var socialDomains = map[string]string{
	"facebook.com":    "FACEBOOK",
	"instagram.com":   "INSTAGRAM",
	"linkedin.com":    "LINKEDIN",
	"yelp.com":        "YELP",
	"twitter.com":     "TWITTER",
	"x.com":           "TWITTER",
	"youtube.com":     "YOUTUBE",
	"pinterest.com":   "PINTEREST",
	"tiktok.com":      "TIKTOK",
	"tripadvisor.com": "TRIPADVISOR",
	"foursquare.com":  "FOURSQUARE",
	"yellowpages.com": "YELLOWPAGES",
	"wa.me":           "WHATSAPP",
	"whatsapp.com":    "WHATSAPP",
	"github.com":      "GITHUB",
}

// Registry holds the searchable platform set for a scanner instance.
type Registry struct {
	platforms []Platform
}

// DefaultRegistry returns a registry with the built-in platform set.
func DefaultRegistry() *Registry {
	return &Registry{platforms: defaultSet}
}

// LoadRegistry reads a platform set from a YAML file. The file holds a list
// of {name, scope} entries; order in the file is the visit order.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "platform: read registry file")
	}

	var platforms []Platform
	if err := yaml.Unmarshal(data, &platforms); err != nil {
		return nil, eris.Wrap(err, "platform: parse registry file")
	}
	if len(platforms) == 0 {
		return nil, eris.New("platform: registry file is empty")
	}
	for _, p := range platforms {
		if p.Name == "" || p.Scope == "" {
			return nil, eris.Errorf("platform: registry entry missing name or scope: %+v", p)
		}
	}

	return &Registry{platforms: platforms}, nil
}

// Platforms returns the platform set in declaration order. Callers must not
// mutate the returned slice.
func (r *Registry) Platforms() []Platform {
	return r.platforms
}

// Names returns platform names in declaration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.platforms))
	for i, p := range r.platforms {
		names[i] = p.Name
	}
	return names
}

// FromHost resolves a hostname to a platform name. Subdomains match their
// parent platform domain (m.facebook.com -> FACEBOOK). Returns "" when the
// host belongs to no known platform.
func FromHost(host string) string {
	host = strings.ToLower(strings.TrimPrefix(host, "www."))
	if p, ok := socialDomains[host]; ok {
		return p
	}
	for domain, p := range socialDomains {
		if strings.HasSuffix(host, "."+domain) {
			return p
		}
	}
	return ""
}
