// spacetravel serves a blog whose content lives in an external headless
// content repository. All site branding and credentials come from
// environment variables.
package main

import (
	"log"
	"strconv"
	"time"

	"github.com/eringen/spacetravel"
	"github.com/eringen/spacetravel/views"
)

func main() {
	cfg := spacetravel.SiteConfig{
		Name:        spacetravel.EnvOr("SITE_NAME", "spacetravel"),
		URL:         spacetravel.EnvOr("SITE_URL", "http://localhost:3000"),
		Description: spacetravel.EnvOr("SITE_DESCRIPTION", ""),

		Addr:         spacetravel.EnvOr("ADDR", ":3000"),
		APIEndpoint:  spacetravel.MustEnv("CONTENT_API_ENDPOINT"),
		AccessToken:  spacetravel.EnvOr("CONTENT_API_TOKEN", ""),
		SnapshotPath: spacetravel.EnvOr("SNAPSHOT_PATH", "data/snapshots.db"),
		RedisAddr:    spacetravel.EnvOr("REDIS_ADDR", ""),

		SessionSecret: spacetravel.MustEnv("SESSION_SECRET"),
		CookieSecure:  spacetravel.EnvOr("COOKIE_SECURE", "") == "true",

		PageSize:        envInt("PAGE_SIZE", 20),
		FreshnessWindow: time.Duration(envInt("FRESHNESS_SECONDS", 1800)) * time.Second,
	}

	app := spacetravel.New(cfg, views.Default(cfg))
	defer app.Close()

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}

func envInt(key string, fallback int) int {
	v := spacetravel.EnvOr(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("spacetravel: %s must be an integer, got %q", key, v)
	}
	return n
}
