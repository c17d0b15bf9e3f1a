// Package views provides the default templ components for cleanblog pages.
package views

import (
	"github.com/a-h/templ"

	"github.com/eringen/cleanblog"
)

// New returns the default ViewFuncs bound to cfg.
func New(cfg cleanblog.SiteConfig) cleanblog.ViewFuncs {
	return cleanblog.ViewFuncs{
		Home: func(posts []cleanblog.Post, flash string) templ.Component {
			return Home(cfg, posts, flash)
		},
		Post: func(post cleanblog.Post) templ.Component {
			return Post(cfg, post)
		},
		About: func() templ.Component {
			return About(cfg)
		},
		Contact: func() templ.Component {
			return Contact(cfg)
		},
		PostForm: func(form cleanblog.PostForm, csrfToken string) templ.Component {
			return PostForm(cfg, form, csrfToken)
		},
		NotFound: func() templ.Component {
			return NotFound(cfg)
		},
		ServerError: func() templ.Component {
			return ServerError(cfg)
		},
	}
}
