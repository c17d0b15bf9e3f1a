package views

import (
	"context"
	"strconv"

	"github.com/a-h/templ"

	"github.com/eringen/cleanblog"
	"github.com/eringen/cleanblog/markdown"
)

const excerptLength = 160

func postedBy(p cleanblog.Post) string {
	return "Posted by " + p.Author + " on " + p.Date
}

func editLink(p cleanblog.Post) string {
	return "/edit-post/" + strconv.FormatInt(p.ID, 10)
}

func deleteLink(p cleanblog.Post) string {
	return "/delete/" + strconv.FormatInt(p.ID, 10)
}

// Home lists every post, oldest first, with an optional flash message.
func Home(cfg cleanblog.SiteConfig, posts []cleanblog.Post, flash string) templ.Component {
	content := component(func(ctx context.Context, h *html) error {
		if flash != "" {
			h.raw(`<div class="flash" role="status">`)
			h.text(flash)
			h.raw(`</div>`)
		}
		if len(posts) == 0 {
			h.raw(`<p class="empty">No posts yet. <a href="/make-post">Write the first one.</a></p>`)
		}
		for _, p := range posts {
			h.raw(`<article class="post-preview"><a`)
			h.href(p.Link())
			h.raw(`><h2>`)
			h.text(p.Title)
			h.raw(`</h2><h3>`)
			h.text(p.Subtitle)
			h.raw(`</h3></a>`)
			if ex := markdown.Excerpt(p.Body, excerptLength); ex != "" {
				h.raw(`<p>`)
				h.text(ex)
				h.raw(`</p>`)
			}
			h.raw(`<p class="post-meta">`)
			h.text(postedBy(p))
			h.raw(` · <a`)
			h.href(editLink(p))
			h.raw(`>Edit</a> · <a`)
			h.href(deleteLink(p))
			h.raw(`>Delete</a></p></article>`)
		}
		h.raw(`<p><a class="btn" href="/make-post">Create New Post</a></p>`)
		return nil
	})
	return layout(cfg, cleanblog.PageMeta{URL: cfg.URL}, masthead{
		Heading:    cfg.Name,
		Subheading: cfg.Description,
	}, content)
}

// Post renders a single post with its Markdown body.
func Post(cfg cleanblog.SiteConfig, p cleanblog.Post) templ.Component {
	content := component(func(ctx context.Context, h *html) error {
		h.raw(`<article class="post-body">`)
		if err := markdown.Markdown(p.Body).Render(ctx, h); err != nil {
			return err
		}
		h.raw(`</article><p><a class="btn"`)
		h.href(editLink(p))
		h.raw(`>Edit Post</a> <a class="btn btn-danger"`)
		h.href(deleteLink(p))
		h.raw(`>Delete Post</a></p>`)
		return nil
	})
	return layout(cfg, cleanblog.PageMeta{
		Title:       p.Title,
		Description: p.Subtitle,
		URL:         cleanblog.AbsURL(cfg.URL, p.Link()),
	}, masthead{
		Image:      p.ImageURL,
		Heading:    p.Title,
		Subheading: p.Subtitle,
		Meta:       postedBy(p),
	}, content)
}

func staticPage(cfg cleanblog.SiteConfig, title, subheading string, paragraphs ...string) templ.Component {
	content := component(func(ctx context.Context, h *html) error {
		for _, para := range paragraphs {
			h.raw(`<p>`)
			h.text(para)
			h.raw(`</p>`)
		}
		return nil
	})
	return layout(cfg, cleanblog.PageMeta{Title: title}, masthead{
		Heading:    title,
		Subheading: subheading,
	}, content)
}

// About renders the static about page.
func About(cfg cleanblog.SiteConfig) templ.Component {
	return staticPage(cfg, "About Me", "This is what I do.",
		cfg.Name+" is a small blog. Posts are written in Markdown and stored in a single SQLite table.",
		"Anyone with access to the site can write, edit, and delete posts.")
}

// Contact renders the static contact page.
func Contact(cfg cleanblog.SiteConfig) templ.Component {
	return staticPage(cfg, "Contact Me", "Have questions? I have answers.",
		"Want to get in touch? Reach out through the address listed in the site footer or subscribe to the RSS feed for new posts.")
}

// NotFound renders the 404 page.
func NotFound(cfg cleanblog.SiteConfig) templ.Component {
	return staticPage(cfg, "Not Found", "",
		"The page or post you are looking for does not exist. It may have been deleted.")
}

// ServerError renders the 500 page.
func ServerError(cfg cleanblog.SiteConfig) templ.Component {
	return staticPage(cfg, "Something went wrong", "",
		"The server hit an error while handling your request. Please try again.")
}
