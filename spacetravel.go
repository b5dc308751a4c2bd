package spacetravel

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/spacetravel/prismic"
)

// ViewFuncs holds user-provided templ components that the engine calls when
// rendering pages. This is the inversion-of-control mechanism that lets
// users own and customize all markup; the engine only computes props.
type ViewFuncs struct {
	Home        func(props HomeProps, preview bool) templ.Component
	Post        func(props PostProps, preview bool) templ.Component
	Loading     func() templ.Component
	NotFound    func() templ.Component
	ServerError func() templ.Component
}

// App is the central spacetravel application. It wires together the content
// client, page generator, snapshot store, preview gate, and user views.
type App struct {
	Config    SiteConfig
	Echo      *echo.Echo
	Client    *prismic.Client
	Generator *Generator
	Store     SnapshotStore
	Views     ViewFuncs

	cache          *pageCache
	previewLimiter *tokenLimiter
	customRoutes   []func(*App)
	httpClient     *http.Client
	staticDir      string
}

// New creates a new spacetravel App with the given configuration and views.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:     cfg,
		Echo:       echo.New(),
		Views:      views,
		httpClient: http.DefaultClient,
		staticDir:  "public",
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Start initializes the content client, snapshot store, cache, middleware,
// and routes, pre-generates known pages, and starts the server.
func (a *App) Start() error {
	if a.Config.APIEndpoint == "" {
		return fmt.Errorf("spacetravel: APIEndpoint is required")
	}
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("spacetravel: SessionSecret is required")
	}

	a.Client = prismic.New(a.Config.APIEndpoint,
		prismic.WithHTTPClient(a.httpClient),
		prismic.WithAccessToken(a.Config.AccessToken),
	)
	a.Generator = NewGenerator(a.Client, a.Config.PageSize)

	store, err := a.openSnapshotStore()
	if err != nil {
		return fmt.Errorf("spacetravel: init snapshot store: %w", err)
	}
	a.Store = store
	a.cache = newPageCache(a.Generator, store, a.Config.FreshnessWindow)

	a.previewLimiter = newTokenLimiter(5, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}

	// Pre-generate the index and every enumerated detail route. Startup is
	// not blocked on it; routes not warmed yet fall back to on-demand
	// generation.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := a.cache.Warm(ctx); err != nil {
			log.Printf("spacetravel: warm: %v", err)
		}
	}()

	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) openSnapshotStore() (SnapshotStore, error) {
	if a.Config.RedisAddr != "" {
		return NewRedisStore(a.Config.RedisAddr)
	}
	return NewStore(a.Config.SnapshotPath)
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.Static("/public", a.staticDir)
	e.GET("/favicon.svg", func(c echo.Context) error { return c.File(a.staticDir + "/favicon.svg") })
	e.GET("/robots.txt", func(c echo.Context) error { return c.File(a.staticDir + "/robots.txt") })

	e.GET("/", a.handleHome)
	e.GET("/post/:uid", a.handlePost)
	e.GET("/img/banner/:uid", a.handleBannerThumb)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/sitemap.xml", a.handleSitemap)

	e.GET("/api/load-more", a.handleLoadMore)
	e.GET("/api/preview", a.handleEnterPreview)
	e.GET("/api/exit-preview", a.handleExitPreview)
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		_ = RenderStatus(c, code, a.Views.ServerError())
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

// EnvOr returns the value of the environment variable key, or fallback if
// empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustEnv returns the value of the environment variable key, or fatally
// exits if empty.
func MustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("spacetravel: required environment variable %s is not set", key)
	}
	return v
}
