package cleanblog

import (
	"net/url"
	"strconv"
	"strings"
)

// DateLayout formats a post's creation date, e.g. "April 05, 2024".
const DateLayout = "January 02, 2006"

// Post is the blog entry stored in SQLite and rendered by templates.
type Post struct {
	ID       int64
	Title    string
	Subtitle string
	Date     string
	Body     string
	Author   string
	ImageURL string
}

// Link returns the site-relative path of the post page.
func (p Post) Link() string {
	return "/post/" + strconv.FormatInt(p.ID, 10)
}

// Fields returns the caller-editable part of the post.
func (p Post) Fields() PostFields {
	return PostFields{
		Title:    p.Title,
		Subtitle: p.Subtitle,
		Author:   p.Author,
		ImageURL: p.ImageURL,
		Body:     p.Body,
	}
}

// PostFields is the field set submitted by both the create and edit forms.
type PostFields struct {
	Title    string
	Subtitle string
	Author   string
	ImageURL string
	Body     string
}

// Normalize returns a copy with surrounding whitespace removed from every
// field except the body.
func (f PostFields) Normalize() PostFields {
	return PostFields{
		Title:    strings.TrimSpace(f.Title),
		Subtitle: strings.TrimSpace(f.Subtitle),
		Author:   strings.TrimSpace(f.Author),
		ImageURL: strings.TrimSpace(f.ImageURL),
		Body:     f.Body,
	}
}

// Validate reports every missing or malformed field. It returns nil when the
// field set can be stored.
func (f PostFields) Validate() error {
	verr := &ValidationError{}
	if f.Title == "" {
		verr.Add(FieldTitle, "Title is required.")
	}
	if f.Subtitle == "" {
		verr.Add(FieldSubtitle, "Subtitle is required.")
	}
	if f.Author == "" {
		verr.Add(FieldAuthor, "Author is required.")
	}
	if f.ImageURL == "" {
		verr.Add(FieldImageURL, "Image URL is required.")
	} else if !IsValidURL(f.ImageURL) {
		verr.Add(FieldImageURL, "Image URL must be a valid http or https URL.")
	}
	if strings.TrimSpace(f.Body) == "" {
		verr.Add(FieldBody, "Body is required.")
	}
	if verr.Empty() {
		return nil
	}
	return verr
}

// IsValidURL reports whether s is an absolute http(s) URL with a host.
func IsValidURL(s string) bool {
	u, err := url.ParseRequestURI(s)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != "" && !strings.ContainsAny(s, " \t\n")
}

// Form field names shared by handlers, validation errors, and templates.
const (
	FieldTitle    = "title"
	FieldSubtitle = "subtitle"
	FieldAuthor   = "author"
	FieldImageURL = "img_url"
	FieldBody     = "body"
	FieldImage    = "image"
)

// PostForm is the view model for the shared create/edit form.
type PostForm struct {
	ID      int64
	Editing bool
	Fields  PostFields
	Errors  map[string]string
}

// Action returns the path the form submits to.
func (f PostForm) Action() string {
	if f.Editing {
		return "/edit-post/" + strconv.FormatInt(f.ID, 10)
	}
	return "/make-post"
}

// Error returns the error message for a field, or "".
func (f PostForm) Error(field string) string {
	return f.Errors[field]
}

// PageMeta carries per-page title and description into the layout.
type PageMeta struct {
	Title       string
	Description string
	URL         string
}
