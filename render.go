package main

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/nikolalohinski/gonja/v2"
	"github.com/nikolalohinski/gonja/v2/exec"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Renderer renders a page template into the shared layout.
type Renderer struct {
	layout *exec.Template
	pages  map[string]*exec.Template
}

func NewRenderer(fsys fs.FS) (*Renderer, error) {
	names, err := fs.Glob(fsys, "templates/*.html")
	if err != nil {
		return nil, err
	}

	rd := &Renderer{pages: make(map[string]*exec.Template, len(names))}
	for _, name := range names {
		src, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, err
		}
		tpl, err := gonja.FromString(string(src))
		if err != nil {
			return nil, fmt.Errorf("parse template %s failed: %w", name, err)
		}
		base := strings.TrimSuffix(path.Base(name), ".html")
		if base == "layout" {
			rd.layout = tpl
			continue
		}
		rd.pages[base] = tpl
	}
	if rd.layout == nil {
		return nil, fmt.Errorf("templates/layout.html missing")
	}
	return rd, nil
}

// Render executes page with data and wraps the result in the layout.
func (rd *Renderer) Render(name string, data map[string]interface{}) ([]byte, error) {
	page, ok := rd.pages[name]
	if !ok {
		return nil, fmt.Errorf("unknown template %q", name)
	}
	var content bytes.Buffer
	if err := page.Execute(&content, exec.NewContext(data)); err != nil {
		return nil, fmt.Errorf("render %s failed: %w", name, err)
	}
	data["content"] = content.String()

	var out bytes.Buffer
	if err := rd.layout.Execute(&out, exec.NewContext(data)); err != nil {
		return nil, fmt.Errorf("render layout failed: %w", err)
	}
	return out.Bytes(), nil
}

// render fills in the per-request layout data and writes the page.
func (a *App) render(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]interface{}) {
	if data == nil {
		data = map[string]interface{}{}
	}
	user := currentUser(r)
	data["logged_in"] = user != nil
	if user != nil {
		data["current_user"] = userView(user)
	} else {
		data["current_user"] = map[string]interface{}{}
	}
	data["flashes"] = flashViews(a.popFlashes(w, r))
	if _, ok := data["title"]; !ok {
		data["title"] = "Warbler"
	}

	body, err := a.renderer.Render(name, data)
	if err != nil {
		a.logRequest(r).WithError(err).Error("render failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(body)
}

// --- Template helpers ---

func datetimeformat(m *Message) string {
	return m.Timestamp.Format("2 January 2006 @ 15:04")
}

func userView(u *User) map[string]interface{} {
	return map[string]interface{}{
		"id":               u.ID,
		"username":         u.Username,
		"email":            u.Email,
		"image_url":        u.ImageURL,
		"header_image_url": u.HeaderImageURL,
		"bio":              u.Bio,
		"location":         u.Location,
	}
}

func userViews(users []User) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(users))
	for i := range users {
		out = append(out, userView(&users[i]))
	}
	return out
}

// messageView flattens a warble for templates. liked marks warbles the
// viewer has liked.
func messageView(m *Message, liked map[uint]bool) map[string]interface{} {
	view := map[string]interface{}{
		"id":        m.ID,
		"text":      m.Text,
		"timestamp": datetimeformat(m),
		"user_id":   m.UserID,
		"liked":     liked[m.ID],
	}
	if m.User != nil {
		view["user"] = userView(m.User)
	} else {
		view["user"] = map[string]interface{}{"id": m.UserID}
	}
	return view
}

func messageViews(msgs []Message, liked map[uint]bool) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(msgs))
	for i := range msgs {
		out = append(out, messageView(&msgs[i], liked))
	}
	return out
}

func flashViews(flashes []Flash) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(flashes))
	for _, f := range flashes {
		out = append(out, map[string]interface{}{
			"category": f.Category,
			"message":  f.Message,
		})
	}
	return out
}
