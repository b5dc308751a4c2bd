package spacetravel

import (
	"net/http"

	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"

	"github.com/eringen/spacetravel/prismic"
)

const (
	previewSessionName = "preview_session"
	previewRefKey      = "ref"
)

// resolveContentRef decides which content version this request observes.
// With no active preview session it returns the empty ref, selecting the
// published version; with an active session it returns the session's draft
// ref, which the generator then applies to the document fetch and both
// neighbor queries of the same pass. Inner components never read the
// session themselves — they take the already-resolved ref as an argument.
func resolveContentRef(c echo.Context) string {
	sess, err := session.Get(previewSessionName, c)
	if err != nil {
		return ""
	}
	ref, _ := sess.Values[previewRefKey].(string)
	return ref
}

// handleEnterPreview starts a preview session from a token issued by the
// content repository. The token is validated by running a query against it;
// attempts are rate-limited per IP the same way login attempts would be.
func (a *App) handleEnterPreview(c echo.Context) error {
	if !a.previewLimiter.Allow(c.RealIP()) {
		return c.String(http.StatusTooManyRequests, "Too many preview attempts. Try again later.")
	}
	token := c.QueryParam("token")
	if token == "" {
		return c.String(http.StatusBadRequest, "token required")
	}
	_, err := a.Client.Query(c.Request().Context(), prismic.At("document.type", postType), prismic.QueryOptions{
		Ref:      token,
		PageSize: 1,
	})
	if err != nil {
		return c.String(http.StatusUnauthorized, "invalid preview token")
	}

	sess, err := session.Get(previewSessionName, c)
	if err != nil {
		return err
	}
	sess.Values[previewRefKey] = token
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return err
	}
	return c.Redirect(http.StatusTemporaryRedirect, "/")
}

// handleExitPreview unconditionally clears the preview session and sends
// the caller back to the index. Exiting an already-inactive session is a
// no-op success.
func (a *App) handleExitPreview(c echo.Context) error {
	sess, err := session.Get(previewSessionName, c)
	if err == nil {
		sess.Options.MaxAge = -1
		delete(sess.Values, previewRefKey)
		if err := sess.Save(c.Request(), c.Response()); err != nil {
			return err
		}
	}
	return c.Redirect(http.StatusTemporaryRedirect, "/")
}
