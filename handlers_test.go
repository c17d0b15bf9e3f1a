package cleanblog

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCSRF = "test-csrf-token"

// stubViews renders plain text so tests can assert on what handlers pass in.
func stubViews() ViewFuncs {
	text := func(format string, args ...any) templ.Component {
		return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
			_, err := fmt.Fprintf(w, format, args...)
			return err
		})
	}
	return ViewFuncs{
		Home: func(posts []Post, flash string) templ.Component {
			titles := make([]string, len(posts))
			for i, p := range posts {
				titles[i] = p.Title
			}
			return text("home posts=[%s] flash=%q", strings.Join(titles, ","), flash)
		},
		Post: func(p Post) templ.Component {
			return text("post id=%d title=%q date=%q", p.ID, p.Title, p.Date)
		},
		About:   func() templ.Component { return text("about") },
		Contact: func() templ.Component { return text("contact") },
		PostForm: func(form PostForm, csrfToken string) templ.Component {
			keys := make([]string, 0, len(form.Errors))
			for k := range form.Errors {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			return text("form editing=%v action=%s title=%q errors=[%s] csrf=%s",
				form.Editing, form.Action(), form.Fields.Title, strings.Join(keys, ","), csrfToken)
		},
		NotFound:    func() templ.Component { return text("not found") },
		ServerError: func() templ.Component { return text("server error") },
	}
}

func setupTestApp(t *testing.T) *App {
	t.Helper()
	cfg := SiteConfig{
		URL:           "http://blog.test",
		SessionSecret: "test-session-secret",
		UploadDir:     t.TempDir(),
		LogLevel:      "off",
		SubmitLimit:   -1,
	}
	app := New(cfg, stubViews(), WithStore(setupTestStore(t)))
	require.NoError(t, app.Init())
	return app
}

func formValues(f PostFields) url.Values {
	return url.Values{
		FieldTitle:    {f.Title},
		FieldSubtitle: {f.Subtitle},
		FieldAuthor:   {f.Author},
		FieldImageURL: {f.ImageURL},
		FieldBody:     {f.Body},
	}
}

func serve(app *App, req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req.AddCookie(&http.Cookie{Name: "_csrf", Value: testCSRF})
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	app.Echo.ServeHTTP(rec, req)
	return rec
}

func get(app *App, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	return serve(app, httptest.NewRequest(http.MethodGet, path, nil), cookies...)
}

func postForm(app *App, path string, form url.Values) *httptest.ResponseRecorder {
	form.Set("_csrf", testCSRF)
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return serve(app, req)
}

func sessionCookies(rec *httptest.ResponseRecorder) []*http.Cookie {
	var out []*http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionName {
			out = append(out, c)
		}
	}
	return out
}

func TestInitRequiresSessionSecret(t *testing.T) {
	app := New(SiteConfig{}, stubViews(), WithStore(setupTestStore(t)))
	assert.Error(t, app.Init())
}

func TestHomeListsPosts(t *testing.T) {
	app := setupTestApp(t)
	ctx := context.Background()
	_, err := app.Store.Create(ctx, sampleFields())
	require.NoError(t, err)

	rec := get(app, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "home posts=[Hello]")
	assert.Equal(t, echo.MIMETextHTMLCharsetUTF8, rec.Header().Get(echo.HeaderContentType))
}

func TestStaticPages(t *testing.T) {
	app := setupTestApp(t)

	rec := get(app, "/about")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "about", rec.Body.String())

	rec = get(app, "/contact")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "contact", rec.Body.String())
}

func TestTrailingSlashRedirects(t *testing.T) {
	app := setupTestApp(t)
	rec := get(app, "/about/")
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/about", rec.Header().Get(echo.HeaderLocation))
}

func TestShowPost(t *testing.T) {
	app := setupTestApp(t)
	post, err := app.Store.Create(context.Background(), sampleFields())
	require.NoError(t, err)

	rec := get(app, post.Link())
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `title="Hello"`)
	assert.Contains(t, rec.Body.String(), `date="April 05, 2024"`)
}

func TestShowPostNotFound(t *testing.T) {
	app := setupTestApp(t)
	for _, path := range []string{"/post/999", "/post/abc", "/post/-1", "/no-such-page"} {
		rec := get(app, path)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Equal(t, "not found", rec.Body.String(), path)
	}
}

func TestNewPostForm(t *testing.T) {
	app := setupTestApp(t)
	rec := get(app, "/make-post")
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "editing=false action=/make-post")
	assert.Contains(t, body, "csrf="+testCSRF)
}

func TestCreatePostRedirectsWithFlash(t *testing.T) {
	app := setupTestApp(t)

	rec := postForm(app, "/make-post", formValues(sampleFields()))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))

	posts, err := app.Store.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "Hello", posts[0].Title)

	cookies := sessionCookies(rec)
	require.NotEmpty(t, cookies)
	home := get(app, "/", cookies...)
	assert.Contains(t, home.Body.String(), `flash="Post created."`)

	// The flash is shown once.
	again := get(app, "/", sessionCookies(home)...)
	assert.Contains(t, again.Body.String(), `flash=""`)
}

func TestCreatePostValidationError(t *testing.T) {
	app := setupTestApp(t)
	f := sampleFields()
	f.Title = ""
	f.ImageURL = "not-a-url"

	rec := postForm(app, "/make-post", formValues(f))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "errors=[img_url,title]")

	posts, err := app.Store.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestCreatePostConflict(t *testing.T) {
	app := setupTestApp(t)
	_, err := app.Store.Create(context.Background(), sampleFields())
	require.NoError(t, err)

	rec := postForm(app, "/make-post", formValues(sampleFields()))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "errors=[title]")
	assert.Contains(t, rec.Body.String(), `title="Hello"`)
}

func TestCreatePostRequiresCSRF(t *testing.T) {
	app := setupTestApp(t)
	form := formValues(sampleFields())
	req := httptest.NewRequest(http.MethodPost, "/make-post", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	app.Echo.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestEditPostForm(t *testing.T) {
	app := setupTestApp(t)
	post, err := app.Store.Create(context.Background(), sampleFields())
	require.NoError(t, err)

	rec := get(app, fmt.Sprintf("/edit-post/%d", post.ID))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), fmt.Sprintf("editing=true action=/edit-post/%d title=%q", post.ID, "Hello"))

	rec = get(app, "/edit-post/999")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdatePost(t *testing.T) {
	app := setupTestApp(t)
	ctx := context.Background()
	post, err := app.Store.Create(ctx, sampleFields())
	require.NoError(t, err)

	f := sampleFields()
	f.Title = "X"
	rec := postForm(app, fmt.Sprintf("/edit-post/%d", post.ID), formValues(f))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))

	got, err := app.Store.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "X", got.Title)
	assert.Equal(t, post.Date, got.Date)
}

func TestUpdatePostValidationError(t *testing.T) {
	app := setupTestApp(t)
	post, err := app.Store.Create(context.Background(), sampleFields())
	require.NoError(t, err)

	f := sampleFields()
	f.Body = ""
	rec := postForm(app, fmt.Sprintf("/edit-post/%d", post.ID), formValues(f))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "editing=true")
	assert.Contains(t, rec.Body.String(), "errors=[body]")
}

func TestUpdatePostNotFound(t *testing.T) {
	app := setupTestApp(t)
	rec := postForm(app, "/edit-post/999", formValues(sampleFields()))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = postForm(app, "/edit-post/zero", formValues(sampleFields()))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeletePost(t *testing.T) {
	app := setupTestApp(t)
	ctx := context.Background()
	post, err := app.Store.Create(ctx, sampleFields())
	require.NoError(t, err)

	rec := get(app, fmt.Sprintf("/delete/%d", post.ID))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))

	_, err = app.Store.Get(ctx, post.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteMissingPostRedirects(t *testing.T) {
	app := setupTestApp(t)
	for _, path := range []string{"/delete/999", "/delete/abc"} {
		rec := get(app, path)
		assert.Equal(t, http.StatusSeeOther, rec.Code, path)
		assert.Equal(t, "/", rec.Header().Get(echo.HeaderLocation), path)
	}
}

func TestSubmitLimit(t *testing.T) {
	store := setupTestStore(t)
	cfg := SiteConfig{SessionSecret: "secret", LogLevel: "off", SubmitLimit: 1, UploadDir: t.TempDir()}
	app := New(cfg, stubViews(), WithStore(store))
	require.NoError(t, app.Init())
	defer app.submitLimiter.Stop()

	rec := postForm(app, "/make-post", formValues(sampleFields()))
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	f := sampleFields()
	f.Title = "Another"
	rec = postForm(app, "/make-post", formValues(f))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func multipartRequest(t *testing.T, path string, f PostFields, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, vs := range formValues(f) {
		require.NoError(t, mw.WriteField(k, vs[0]))
	}
	require.NoError(t, mw.WriteField("_csrf", testCSRF))
	if filename != "" {
		part, err := mw.CreateFormFile(FieldImage, filename)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	return req
}

func TestCreatePostWithUpload(t *testing.T) {
	app := setupTestApp(t)
	f := sampleFields()
	f.ImageURL = ""

	rec := serve(app, multipartRequest(t, "/make-post", f, "My Header.png", testPNG(t, 40, 20)))
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())

	posts, err := app.Store.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "http://blog.test/static/uploads/my-header.jpg", posts[0].ImageURL)

	_, err = os.Stat(filepath.Join(app.Config.UploadDir, "my-header.jpg"))
	require.NoError(t, err)

	img := get(app, "/static/uploads/my-header.jpg")
	assert.Equal(t, http.StatusOK, img.Code)
}

func TestCreatePostWithBadUpload(t *testing.T) {
	app := setupTestApp(t)
	rec := serve(app, multipartRequest(t, "/make-post", sampleFields(), "notes.txt", []byte("not an image")))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "errors=[image]")
}

func TestFailedWritesRemoveUpload(t *testing.T) {
	app := setupTestApp(t)
	existing, err := app.Store.Create(context.Background(), sampleFields())
	require.NoError(t, err)

	invalid := sampleFields()
	invalid.Title = ""
	rec := serve(app, multipartRequest(t, "/make-post", invalid, "a.png", testPNG(t, 40, 20)))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = serve(app, multipartRequest(t, "/make-post", sampleFields(), "c.png", testPNG(t, 40, 20)))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = serve(app, multipartRequest(t, "/edit-post/999", sampleFields(), "b.png", testPNG(t, 40, 20)))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(app, multipartRequest(t, fmt.Sprintf("/edit-post/%d", existing.ID), invalid, "d.png", testPNG(t, 40, 20)))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	entries, err := os.ReadDir(app.Config.UploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSubmitLimitDisabled(t *testing.T) {
	app := setupTestApp(t)
	require.Nil(t, app.submitLimiter)

	for i := 0; i < 5; i++ {
		f := sampleFields()
		f.Title = fmt.Sprintf("Post %d", i)
		rec := postForm(app, "/make-post", formValues(f))
		assert.Equal(t, http.StatusSeeOther, rec.Code)
	}
}

func TestStylesheetServed(t *testing.T) {
	app := setupTestApp(t)
	rec := get(app, "/static/styles.css")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), ".masthead")
}

func TestFeedAndSitemap(t *testing.T) {
	app := setupTestApp(t)
	ctx := context.Background()
	_, err := app.Store.Create(ctx, sampleFields())
	require.NoError(t, err)
	f := sampleFields()
	f.Title = "Second & Last"
	_, err = app.Store.Create(ctx, f)
	require.NoError(t, err)

	rec := get(app, "/feed.xml")
	assert.Equal(t, http.StatusOK, rec.Code)
	feed := rec.Body.String()
	assert.Contains(t, feed, `<rss version="2.0">`)
	assert.Contains(t, feed, "<link>http://blog.test/post/1</link>")
	assert.Contains(t, feed, "Second &amp; Last")
	assert.Contains(t, feed, "<pubDate>Fri, 05 Apr 2024 00:00:00 +0000</pubDate>")
	assert.Less(t, strings.Index(feed, "Second &amp; Last"), strings.Index(feed, "<title>Hello</title>"), "newest first")

	rec = get(app, "/sitemap.xml")
	assert.Equal(t, http.StatusOK, rec.Code)
	sitemap := rec.Body.String()
	assert.Contains(t, sitemap, "<loc>http://blog.test/about</loc>")
	assert.Contains(t, sitemap, "<loc>http://blog.test/post/2</loc>")
	assert.Contains(t, sitemap, "<lastmod>2024-04-05</lastmod>")
}

func TestServerErrorRendered(t *testing.T) {
	app := setupTestApp(t)
	require.NoError(t, app.Store.Close())

	rec := get(app, "/")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "server error", rec.Body.String())
}
