// Package views provides the default templ components for a spacetravel
// site. Sites that want their own markup supply their own ViewFuncs; the
// engine itself only ever hands props to these functions.
package views

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/a-h/templ"

	"github.com/eringen/spacetravel"
)

// Default returns a ViewFuncs wired to the built-in components.
func Default(cfg spacetravel.SiteConfig) spacetravel.ViewFuncs {
	return spacetravel.ViewFuncs{
		Home: func(props spacetravel.HomeProps, preview bool) templ.Component {
			return Home(cfg, props, preview)
		},
		Post: func(props spacetravel.PostProps, preview bool) templ.Component {
			return Post(cfg, props, preview)
		},
		Loading:     func() templ.Component { return Loading(cfg) },
		NotFound:    func() templ.Component { return NotFound(cfg) },
		ServerError: func() templ.Component { return ServerError(cfg) },
	}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("02 Jan 2006")
}

func layout(cfg spacetravel.SiteConfig, title string, body func(w io.Writer) error) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w,
			`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"/>`+
				`<meta name="viewport" content="width=device-width, initial-scale=1"/>`+
				`<title>%s | %s</title><link rel="stylesheet" href="/public/style.css"/></head><body>`+
				`<header class="site-header"><a href="/"><h1>%s</h1></a></header><main>`,
			templ.EscapeString(title), templ.EscapeString(cfg.Name), templ.EscapeString(cfg.Name),
		); err != nil {
			return err
		}
		if err := body(w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</main></body></html>`)
		return err
	})
}

func previewBanner(w io.Writer) error {
	_, err := io.WriteString(w,
		`<aside class="preview-banner"><a href="/api/exit-preview">Exit preview mode</a></aside>`)
	return err
}

func postSummary(w io.Writer, p spacetravel.Post) error {
	_, err := fmt.Fprintf(w,
		`<a class="post" href="/post/%s"><strong>%s</strong><p>%s</p>`+
			`<div class="info"><time datetime="%s">%s</time><address>%s</address></div></a>`,
		templ.EscapeString(p.UID),
		templ.EscapeString(p.Title),
		templ.EscapeString(p.Subtitle),
		isoDate(p.FirstPublicationDate),
		formatDate(p.FirstPublicationDate),
		templ.EscapeString(p.Author),
	)
	return err
}

func isoDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

// Home renders the index listing with the load-more control. The control
// carries the opaque next-page cursor and keeps appending pages through
// /api/load-more; it disables itself while a fetch is in flight and
// disappears once the listing is exhausted.
func Home(cfg spacetravel.SiteConfig, props spacetravel.HomeProps, preview bool) templ.Component {
	return layout(cfg, "Home", func(w io.Writer) error {
		if _, err := io.WriteString(w, `<section id="posts" class="posts">`); err != nil {
			return err
		}
		for _, p := range props.PostsPagination.Results {
			if err := postSummary(w, p); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</section>`); err != nil {
			return err
		}
		if cursor := props.PostsPagination.NextPage; cursor != "" {
			if _, err := fmt.Fprintf(w,
				`<button id="load-more" type="button" data-cursor="%s">Load more posts</button>`,
				templ.EscapeString(cursor),
			); err != nil {
				return err
			}
			if _, err := io.WriteString(w, loadMoreScript); err != nil {
				return err
			}
		}
		if preview {
			return previewBanner(w)
		}
		return nil
	})
}

// Post renders a detail page: banner, heading info with reading time, the
// ordered content sections, and prev/next navigation.
func Post(cfg spacetravel.SiteConfig, props spacetravel.PostProps, preview bool) templ.Component {
	p := props.Post
	return layout(cfg, p.Title, func(w io.Writer) error {
		if p.Banner != "" {
			if _, err := fmt.Fprintf(w, `<img class="banner" src="/img/banner/%s" alt="%s"/>`,
				templ.EscapeString(p.UID), templ.EscapeString(p.Title)); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w,
			`<article class="post"><h1>%s</h1>`+
				`<div class="info"><time datetime="%s">%s</time><address>%s</address><span>%d min</span></div>`,
			templ.EscapeString(p.Title),
			isoDate(p.FirstPublicationDate),
			formatDate(p.FirstPublicationDate),
			templ.EscapeString(p.Author),
			p.ReadingTime,
		); err != nil {
			return err
		}
		for _, section := range p.Content {
			// Section bodies arrive as sanitized HTML from the rich-text
			// renderer; headings are plain text.
			if _, err := fmt.Fprintf(w, `<section><h2>%s</h2><div>%s</div></section>`,
				templ.EscapeString(section.Heading.String()), section.Body.AsHTML()); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</article><nav class="post-nav">`); err != nil {
			return err
		}
		if prev := props.PreviousPost; prev != nil {
			if _, err := fmt.Fprintf(w, `<a rel="prev" href="/post/%s">&larr; %s</a>`,
				templ.EscapeString(prev.UID), templ.EscapeString(prev.Title)); err != nil {
				return err
			}
		}
		if next := props.NextPost; next != nil {
			if _, err := fmt.Fprintf(w, `<a rel="next" href="/post/%s">%s &rarr;</a>`,
				templ.EscapeString(next.UID), templ.EscapeString(next.Title)); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</nav>`); err != nil {
			return err
		}
		if preview {
			return previewBanner(w)
		}
		return nil
	})
}

// Loading is shown while an on-demand route generates. The refresh retries
// until the snapshot exists or the uid resolves to a 404.
func Loading(cfg spacetravel.SiteConfig) templ.Component {
	return layout(cfg, "Loading post", func(w io.Writer) error {
		_, err := io.WriteString(w,
			`<meta http-equiv="refresh" content="2"/><h1>Loading...</h1>`)
		return err
	})
}

// NotFound renders the 404 page.
func NotFound(cfg spacetravel.SiteConfig) templ.Component {
	return layout(cfg, "Not found", func(w io.Writer) error {
		_, err := io.WriteString(w, `<h1>Page not found</h1><p><a href="/">Back to posts</a></p>`)
		return err
	})
}

// ServerError renders the 500 page.
func ServerError(cfg spacetravel.SiteConfig) templ.Component {
	return layout(cfg, "Something went wrong", func(w io.Writer) error {
		_, err := io.WriteString(w, `<h1>Something went wrong</h1><p><a href="/">Back to posts</a></p>`)
		return err
	})
}

const loadMoreScript = `<script>
(function () {
  var btn = document.getElementById('load-more');
  var list = document.getElementById('posts');
  if (!btn || !list) return;
  btn.addEventListener('click', function () {
    var cursor = btn.dataset.cursor;
    if (!cursor || btn.disabled) return;
    btn.disabled = true;
    fetch('/api/load-more?cursor=' + encodeURIComponent(cursor))
      .then(function (r) { if (!r.ok) throw new Error('load failed'); return r.json(); })
      .then(function (page) {
        (page.results || []).forEach(function (post) { list.appendChild(renderPost(post)); });
        if (page.next_page) {
          btn.dataset.cursor = page.next_page;
          btn.disabled = false;
        } else {
          btn.remove();
        }
      })
      .catch(function () { btn.disabled = false; });
  });
  function renderPost(post) {
    var a = document.createElement('a');
    a.className = 'post';
    a.href = '/post/' + encodeURIComponent(post.uid);
    var title = document.createElement('strong');
    title.textContent = post.title;
    var subtitle = document.createElement('p');
    subtitle.textContent = post.subtitle || '';
    var info = document.createElement('div');
    info.className = 'info';
    var time = document.createElement('time');
    if (post.first_publication_date) {
      time.dateTime = post.first_publication_date;
      time.textContent = new Date(post.first_publication_date)
        .toLocaleDateString('en-GB', { day: '2-digit', month: 'short', year: 'numeric' });
    }
    var author = document.createElement('address');
    author.textContent = post.author || '';
    info.appendChild(time);
    info.appendChild(author);
    a.appendChild(title);
    a.appendChild(subtitle);
    a.appendChild(info);
    return a;
  }
})();
</script>`
