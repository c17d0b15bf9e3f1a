package views

import (
	"context"

	"github.com/a-h/templ"

	"github.com/eringen/cleanblog"
)

type formField struct {
	name     string
	label    string
	kind     string
	value    func(cleanblog.PostFields) string
	textarea bool
}

var postFormFields = []formField{
	{name: cleanblog.FieldTitle, label: "Blog Post Title", kind: "text", value: func(f cleanblog.PostFields) string { return f.Title }},
	{name: cleanblog.FieldSubtitle, label: "Subtitle", kind: "text", value: func(f cleanblog.PostFields) string { return f.Subtitle }},
	{name: cleanblog.FieldAuthor, label: "Your Name", kind: "text", value: func(f cleanblog.PostFields) string { return f.Author }},
	{name: cleanblog.FieldImageURL, label: "Blog Image URL", kind: "url", value: func(f cleanblog.PostFields) string { return f.ImageURL }},
	{name: cleanblog.FieldBody, label: "Blog Content (Markdown)", textarea: true, value: func(f cleanblog.PostFields) string { return f.Body }},
}

// PostForm renders the shared create/edit form. form.Editing selects the
// heading, submit label, and action.
func PostForm(cfg cleanblog.SiteConfig, form cleanblog.PostForm, csrfToken string) templ.Component {
	heading, submit := "New Post", "Submit Post"
	if form.Editing {
		heading, submit = "Edit Post", "Save Changes"
	}
	content := component(func(ctx context.Context, h *html) error {
		h.raw(`<form method="post" enctype="multipart/form-data" novalidate`)
		h.attr("action", form.Action())
		h.raw(`><input type="hidden" name="_csrf"`)
		h.attr("value", csrfToken)
		h.raw(`>`)
		for _, f := range postFormFields {
			h.raw(`<label`)
			h.attr("for", f.name)
			h.raw(`>`)
			h.text(f.label)
			h.raw(`</label>`)
			if f.textarea {
				h.raw(`<textarea`)
				h.attr("id", f.name)
				h.attr("name", f.name)
				h.raw(` required>`)
				h.text(f.value(form.Fields))
				h.raw(`</textarea>`)
			} else {
				h.raw(`<input`)
				h.attr("type", f.kind)
				h.attr("id", f.name)
				h.attr("name", f.name)
				h.attr("value", f.value(form.Fields))
				h.raw(` required>`)
			}
			fieldError(h, form.Error(f.name))
		}
		h.raw(`<label for="image">Or upload an image</label><input type="file" id="image" name="image" accept="image/*">`)
		fieldError(h, form.Error(cleanblog.FieldImage))
		h.raw(`<p><button class="btn" type="submit">`)
		h.text(submit)
		h.raw(`</button></p></form>`)
		return nil
	})
	return layout(cfg, cleanblog.PageMeta{Title: heading}, masthead{
		Heading:    heading,
		Subheading: "You're going to make a great blog post!",
	}, content)
}

func fieldError(h *html, msg string) {
	if msg == "" {
		return
	}
	h.raw(`<p class="field-error">`)
	h.text(msg)
	h.raw(`</p>`)
}
