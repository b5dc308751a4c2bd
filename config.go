package spacetravel

import (
	"net/http"
	"time"
)

// SiteConfig holds all configuration for a spacetravel site.
type SiteConfig struct {
	Name        string // Site name (default "spacetravel")
	URL         string // Canonical URL (default "http://localhost:3000")
	Description string // Site description for RSS and meta tags

	Addr         string // Listen address (default ":3000")
	APIEndpoint  string // Required: content API endpoint, e.g. https://repo.cdn.prismic.io/api/v2
	AccessToken  string // Content API access token, if the repository is private
	SnapshotPath string // SQLite path for generated-page snapshots (default "data/snapshots.db")
	RedisAddr    string // If set, snapshots are shared through Redis instead of SQLite

	SessionSecret string // Required: preview session cookie secret
	CookieSecure  bool   // Set true for HTTPS

	PageSize        int           // Index listing page size (default 20)
	FreshnessWindow time.Duration // Regeneration window per route (default Revalidate)
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "spacetravel"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.SnapshotPath == "" {
		c.SnapshotPath = "data/snapshots.db"
	}
	if c.PageSize == 0 {
		c.PageSize = 20
	}
	if c.FreshnessWindow == 0 {
		c.FreshnessWindow = Revalidate
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithHTTPClient sets the HTTP client used for content API requests and
// banner fetches.
func WithHTTPClient(h *http.Client) Option {
	return func(a *App) {
		a.httpClient = h
	}
}

// WithStaticDir sets the directory for static assets and the banner
// thumbnail cache (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}
