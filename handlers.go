package cleanblog

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

func (a *App) handleHome(c echo.Context) error {
	posts, err := a.Store.ListAll(c.Request().Context())
	if err != nil {
		return err
	}
	return Render(c, a.Views.Home(posts, popFlash(c)))
}

func (a *App) handlePost(c echo.Context) error {
	post, err := a.lookupPost(c)
	if err != nil {
		return err
	}
	return Render(c, a.Views.Post(post))
}

func (a *App) handleAbout(c echo.Context) error {
	return Render(c, a.Views.About())
}

func (a *App) handleContact(c echo.Context) error {
	return Render(c, a.Views.Contact())
}

func (a *App) handleNewPostForm(c echo.Context) error {
	return Render(c, a.Views.PostForm(PostForm{}, CsrfToken(c)))
}

func (a *App) handleCreatePost(c echo.Context) error {
	form := PostForm{Fields: a.bindFields(c)}
	upload, ok := a.attachUpload(c, &form)
	if !ok {
		return RenderStatus(c, http.StatusUnprocessableEntity, a.Views.PostForm(form, CsrfToken(c)))
	}
	post, err := a.Store.Create(c.Request().Context(), form.Fields)
	if err != nil {
		a.discardUpload(c, &form, upload)
		return a.renderFormError(c, form, err)
	}
	c.Logger().Infof("created post %d %q", post.ID, post.Title)
	return a.redirectHome(c, "Post created.")
}

func (a *App) handleEditPostForm(c echo.Context) error {
	post, err := a.lookupPost(c)
	if err != nil {
		return err
	}
	form := PostForm{ID: post.ID, Editing: true, Fields: post.Fields()}
	return Render(c, a.Views.PostForm(form, CsrfToken(c)))
}

func (a *App) handleUpdatePost(c echo.Context) error {
	id, ok := parseID(c.Param("id"))
	if !ok {
		return a.renderNotFound(c)
	}
	form := PostForm{ID: id, Editing: true, Fields: a.bindFields(c)}
	upload, ok := a.attachUpload(c, &form)
	if !ok {
		return RenderStatus(c, http.StatusUnprocessableEntity, a.Views.PostForm(form, CsrfToken(c)))
	}
	post, err := a.Store.Update(c.Request().Context(), id, form.Fields)
	if err != nil {
		a.discardUpload(c, &form, upload)
	}
	if errors.Is(err, ErrNotFound) {
		return a.renderNotFound(c)
	}
	if err != nil {
		return a.renderFormError(c, form, err)
	}
	c.Logger().Infof("updated post %d %q", post.ID, post.Title)
	return a.redirectHome(c, "Post updated.")
}

func (a *App) handleDeletePost(c echo.Context) error {
	id, ok := parseID(c.Param("id"))
	if !ok {
		return c.Redirect(http.StatusSeeOther, "/")
	}
	if err := a.Store.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	c.Logger().Infof("deleted post %d", id)
	return a.redirectHome(c, "Post deleted.")
}

func (a *App) handleSitemap(c echo.Context) error {
	posts, err := a.Store.ListAll(c.Request().Context())
	if err != nil {
		return err
	}
	return a.renderSitemap(c, posts)
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.Store.ListAll(c.Request().Context())
	if err != nil {
		return err
	}
	return a.renderRSS(c, posts)
}

// lookupPost loads the post named by the :id parameter. A malformed or
// unknown id yields echo.ErrNotFound, which the error handler renders as 404.
func (a *App) lookupPost(c echo.Context) (Post, error) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		return Post{}, echo.ErrNotFound
	}
	post, err := a.Store.Get(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return Post{}, echo.ErrNotFound
	}
	return post, err
}

func (a *App) bindFields(c echo.Context) PostFields {
	return PostFields{
		Title:    c.FormValue(FieldTitle),
		Subtitle: c.FormValue(FieldSubtitle),
		Author:   c.FormValue(FieldAuthor),
		ImageURL: c.FormValue(FieldImageURL),
		Body:     c.FormValue(FieldBody),
	}
}

// attachUpload stores an uploaded header image and points the form's image
// URL at it, returning the stored file name ("" without an upload). It
// reports false, with the error set on the form, when the upload was rejected.
func (a *App) attachUpload(c echo.Context, form *PostForm) (string, bool) {
	name, err := a.saveUpload(c)
	switch {
	case errors.Is(err, errNoUpload):
		return "", true
	case err != nil:
		c.Logger().Warnf("image upload: %v", err)
		form.Errors = map[string]string{FieldImage: "Image upload failed: " + err.Error()}
		return "", false
	}
	form.Fields.ImageURL = a.uploadURL(name)
	return name, true
}

// discardUpload removes an image stored for a write that failed and restores
// the submitted image URL on the form.
func (a *App) discardUpload(c echo.Context, form *PostForm, name string) {
	if name == "" {
		return
	}
	a.removeUpload(c, name)
	form.Fields.ImageURL = c.FormValue(FieldImageURL)
}

// renderFormError re-renders the form for validation and title conflicts and
// passes any other error on to the HTTP error handler.
func (a *App) renderFormError(c echo.Context, form PostForm, err error) error {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		form.Errors = verr.Fields
		return RenderStatus(c, http.StatusUnprocessableEntity, a.Views.PostForm(form, CsrfToken(c)))
	case errors.Is(err, ErrConflict):
		form.Errors = map[string]string{FieldTitle: "A post with this title already exists."}
		return RenderStatus(c, http.StatusConflict, a.Views.PostForm(form, CsrfToken(c)))
	}
	return err
}

func (a *App) redirectHome(c echo.Context, flash string) error {
	if err := setFlash(c, flash); err != nil {
		c.Logger().Warnf("set flash: %v", err)
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

func (a *App) renderNotFound(c echo.Context) error {
	return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	ok := errors.As(err, &he)
	if ok && he.Code == http.StatusNotFound {
		_ = a.renderNotFound(c)
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
