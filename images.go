package spacetravel

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"
)

const (
	maxBannerWidth = 800
	jpegQuality    = 80
	bannersSubdir  = "banners"
)

// processBanner decodes a banner image, downscales it to maxBannerWidth if
// wider, and encodes it as JPEG.
func processBanner(src io.Reader) ([]byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("decode banner: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > maxBannerWidth {
		newH := h * maxBannerWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxBannerWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// handleBannerThumb serves a downscaled copy of a post's banner image,
// fetched from the repository's media host once and cached on disk. Detail
// pages reference this route instead of the full-size original.
func (a *App) handleBannerThumb(c echo.Context) error {
	uid := c.Param("uid")

	cachePath := filepath.Join(a.staticDir, bannersSubdir, uid+".jpg")
	if _, err := os.Stat(cachePath); err == nil {
		return c.File(cachePath)
	}

	props, status, err := a.cache.Post(c.Request().Context(), uid)
	if err != nil {
		return err
	}
	if status != pageOK || props.Post.Banner == "" {
		return echo.NewHTTPError(http.StatusNotFound, "no banner")
	}

	req, err := http.NewRequestWithContext(c.Request().Context(), http.MethodGet, props.Post.Banner, nil)
	if err != nil {
		return err
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "banner fetch failed")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return echo.NewHTTPError(http.StatusBadGateway, "banner fetch failed")
	}

	data, err := processBanner(resp.Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "banner not an image")
	}

	if err := os.MkdirAll(filepath.Dir(cachePath), 0o755); err == nil {
		if werr := os.WriteFile(cachePath, data, 0o644); werr != nil {
			c.Logger().Warnf("cache banner %s: %v", uid, werr)
		}
	}
	return c.Blob(http.StatusOK, "image/jpeg", data)
}
