// Package cleanblog is a small blog publishing application built with Go,
// Echo, and templ. It stores posts in a single SQLite table and serves
// server-rendered pages to list, read, create, edit, and delete them.
//
// Templates are supplied by the caller through ViewFuncs; the views
// subpackage provides the default set.
package cleanblog

import (
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strings"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

// ViewFuncs holds the templ components the handlers render. Every field must
// be set.
type ViewFuncs struct {
	Home        func(posts []Post, flash string) templ.Component
	Post        func(post Post) templ.Component
	About       func() templ.Component
	Contact     func() templ.Component
	PostForm    func(form PostForm, csrfToken string) templ.Component
	NotFound    func() templ.Component
	ServerError func() templ.Component
}

// App owns the store and the Echo instance for the lifetime of the process.
type App struct {
	Config SiteConfig
	Echo   *echo.Echo
	Store  *Store
	Views  ViewFuncs

	storeOpts     []StoreOption
	submitLimiter *SubmitLimiter
	initialized   bool
}

// New creates an App with the given configuration and view functions.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
		Views:  views,
	}
	a.Echo.HideBanner = true

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Init opens the store and registers middleware and routes. Start calls it;
// tests call it directly and drive a.Echo with httptest.
func (a *App) Init() error {
	if a.initialized {
		return nil
	}
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("cleanblog: SessionSecret is required")
	}

	a.Echo.Logger.SetLevel(parseLogLevel(a.Config.LogLevel))

	if a.Store == nil {
		store, err := NewStore(a.Config.DatabasePath, a.storeOpts...)
		if err != nil {
			return fmt.Errorf("cleanblog: init store: %w", err)
		}
		a.Store = store
	}

	if a.Config.SubmitLimit > 0 {
		a.submitLimiter = NewSubmitLimiter(a.Config.SubmitLimit, a.Config.SubmitWindow)
	}

	a.setupMiddleware()
	a.setupRoutes()
	a.initialized = true
	return nil
}

// Start initializes the app and serves HTTP until the server is shut down.
func (a *App) Start() error {
	if err := a.Init(); err != nil {
		return err
	}
	a.Echo.Logger.Infof("listening on %s", a.Config.Addr)
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	assets, _ := fs.Sub(EmbeddedAssets, "embedded")
	e.StaticFS("/static", assets)
	e.Static("/static/uploads", a.Config.UploadDir)

	e.GET("/feed.xml", a.handleFeed)
	e.GET("/sitemap.xml", a.handleSitemap)

	e.GET("/", a.handleHome)
	e.GET("/post/:id", a.handlePost)
	e.GET("/about", a.handleAbout)
	e.GET("/contact", a.handleContact)

	e.GET("/make-post", a.handleNewPostForm)
	e.POST("/make-post", a.handleCreatePost, a.limitSubmits)
	e.GET("/edit-post/:id", a.handleEditPostForm)
	e.POST("/edit-post/:id", a.handleUpdatePost, a.limitSubmits)
	e.GET("/delete/:id", a.handleDeletePost)
}

// Close releases the store. Call it once the server has stopped.
func (a *App) Close() error {
	if a.submitLimiter != nil {
		a.submitLimiter.Stop()
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

func parseLogLevel(s string) log.Lvl {
	switch strings.ToLower(s) {
	case "debug":
		return log.DEBUG
	case "warn", "warning":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	default:
		return log.INFO
	}
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
