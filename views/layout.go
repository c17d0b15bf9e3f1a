package views

import (
	"bytes"
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/eringen/cleanblog"
)

// masthead is the hero block at the top of every page.
type masthead struct {
	Image      string
	Heading    string
	Subheading string
	Meta       string
}

// html is a small buffer with escaping helpers for building components.
type html struct {
	bytes.Buffer
}

func (h *html) raw(s ...string) {
	for _, v := range s {
		h.WriteString(v)
	}
}

func (h *html) text(s string) {
	h.WriteString(templ.EscapeString(s))
}

func (h *html) attr(name, value string) {
	h.raw(" ", name, `="`, templ.EscapeString(value), `"`)
}

func (h *html) href(url string) {
	h.attr("href", string(templ.URL(url)))
}

// component wraps a function that fills an html buffer as a templ.Component.
func component(fill func(ctx context.Context, h *html) error) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var h html
		if err := fill(ctx, &h); err != nil {
			return err
		}
		_, err := w.Write(h.Bytes())
		return err
	})
}

// layout renders the document shell around content.
func layout(cfg cleanblog.SiteConfig, meta cleanblog.PageMeta, head masthead, content templ.Component) templ.Component {
	return component(func(ctx context.Context, h *html) error {
		title := cfg.Name
		if meta.Title != "" {
			title = meta.Title + " | " + cfg.Name
		}
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw(`<title>`)
		h.text(title)
		h.raw(`</title>`)
		desc := meta.Description
		if desc == "" {
			desc = cfg.Description
		}
		if desc != "" {
			h.raw(`<meta name="description"`)
			h.attr("content", desc)
			h.raw(`>`)
		}
		if meta.URL != "" {
			h.raw(`<link rel="canonical"`)
			h.href(meta.URL)
			h.raw(`>`)
		}
		h.raw(`<link rel="stylesheet" href="/static/styles.css">`)
		h.raw(`<link rel="alternate" type="application/rss+xml"`)
		h.attr("title", cfg.Name)
		h.raw(` href="/feed.xml"></head><body>`)

		h.raw(`<nav class="nav"><a class="brand" href="/">`)
		h.text(cfg.Name)
		h.raw(`</a><div><a href="/">Home</a><a href="/about">About</a><a href="/contact">Contact</a><a href="/make-post">New Post</a></div></nav>`)

		h.raw(`<header class="masthead">`)
		if head.Image != "" {
			h.raw(`<img class="masthead-bg" alt=""`)
			h.attr("src", string(templ.URL(head.Image)))
			h.raw(`>`)
		}
		h.raw(`<h1>`)
		h.text(head.Heading)
		h.raw(`</h1>`)
		if head.Subheading != "" {
			h.raw(`<h2>`)
			h.text(head.Subheading)
			h.raw(`</h2>`)
		}
		if head.Meta != "" {
			h.raw(`<p class="meta">`)
			h.text(head.Meta)
			h.raw(`</p>`)
		}
		h.raw(`</header><main class="container">`)
		if err := content.Render(ctx, h); err != nil {
			return err
		}
		h.raw(`</main><footer class="footer">`)
		h.text(cfg.Name)
		h.raw(` · <a href="/feed.xml">RSS</a></footer></body></html>`)
		return nil
	})
}
