package spacetravel

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/spacetravel/prismic"
)

// Render writes a templ component as an HTTP 200 HTML response.
func Render(c echo.Context, cmp templ.Component) error {
	return RenderStatus(c, http.StatusOK, cmp)
}

// RenderStatus writes a templ component with a specific HTTP status code.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	return cmp.Render(c.Request().Context(), c.Response().Writer)
}

func (a *App) handleHome(c echo.Context) error {
	ref := resolveContentRef(c)
	preview := ref != ""

	var props *HomeProps
	var err error
	if preview {
		// Draft content is generated per request and never cached.
		props, err = a.Generator.Index(c.Request().Context(), ref)
	} else {
		props, err = a.cache.Home(c.Request().Context())
	}
	if err != nil {
		return err
	}
	setFreshness(c, preview)
	return Render(c, a.Views.Home(*props, preview))
}

func (a *App) handlePost(c echo.Context) error {
	uid := c.Param("uid")
	ref := resolveContentRef(c)

	if ref != "" {
		props, err := a.Generator.Detail(c.Request().Context(), uid, ref)
		if errors.Is(err, prismic.ErrNotFound) {
			return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		}
		if err != nil {
			return err
		}
		setFreshness(c, true)
		return Render(c, a.Views.Post(*props, true))
	}

	props, status, err := a.cache.Post(c.Request().Context(), uid)
	if err != nil {
		return err
	}
	setFreshness(c, false)
	switch status {
	case pagePending:
		// On-demand generation is running; show the transient loading
		// state rather than a 404.
		c.Response().Header().Set("Cache-Control", "no-store")
		return Render(c, a.Views.Loading())
	case pageNotFound:
		return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
	default:
		return Render(c, a.Views.Post(*props, false))
	}
}

// handleLoadMore is the pagination boundary the browser's load-more control
// talks to. It follows the opaque cursor handed out by a previous listing
// page and returns the next page, JSON-encoded in the same shape.
func (a *App) handleLoadMore(c echo.Context) error {
	cursor := c.QueryParam("cursor")
	if cursor == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "cursor required")
	}
	if err := a.checkCursorOrigin(cursor); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	resp, err := a.Client.FetchPage(c.Request().Context(), cursor)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "content api unavailable")
	}
	return c.JSON(http.StatusOK, PostPagination{
		Results:  ProjectSummaries(resp.Results),
		NextPage: resp.NextPage,
	})
}

// checkCursorOrigin rejects cursors that do not point at the configured
// content API, since the cursor value arrives from the browser.
func (a *App) checkCursorOrigin(cursor string) error {
	cu, err := url.Parse(cursor)
	if err != nil {
		return fmt.Errorf("malformed cursor")
	}
	eu, err := url.Parse(a.Config.APIEndpoint)
	if err != nil || cu.Host != eu.Host {
		return fmt.Errorf("cursor does not belong to the content api")
	}
	return nil
}

// setFreshness declares the route's regeneration contract to the hosting
// layer. Preview responses are personal and never shared-cached.
func setFreshness(c echo.Context, preview bool) {
	if preview {
		c.Response().Header().Set("Cache-Control", "no-store")
		return
	}
	c.Response().Header().Set("Cache-Control",
		fmt.Sprintf("public, s-maxage=%d, stale-while-revalidate", int(Revalidate.Seconds())))
}
