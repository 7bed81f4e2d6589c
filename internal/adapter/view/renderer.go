// Package view renders the server-side HTML pages.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templateFS embed.FS

// Template names.
const (
	DeniedTemplate    = "denied"
	SignInTemplate    = "sign_in"
	SignUpTemplate    = "sign_up"
	FestivalsTemplate = "festivals"
	ManageTemplate    = "manage"
)

// DeniedPage feeds the access-denial view. It has no field for
// the role that was required.
type DeniedPage struct {
	HomePath    string
	LandingPath string
}

// AuthPage feeds the sign-in and sign-up pages.
type AuthPage struct {
	FlowURL string
	AltPath string
}

// FestivalsPage feeds the protected landing page.
type FestivalsPage struct {
	Email      string
	CanManage  bool
	ManagePath string
}

// ManagePage feeds the organizer page.
type ManagePage struct {
	Email       string
	LandingPath string
}

// Renderer implements echo.Renderer over the embedded templates.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses every page together with the base layout.
func NewRenderer() (*Renderer, error) {
	names := []string{DeniedTemplate, SignInTemplate, SignUpTemplate, FestivalsTemplate, ManageTemplate}
	pages := make(map[string]*template.Template, len(names))
	for _, name := range names {
		t, err := template.ParseFS(templateFS, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = t
	}
	return &Renderer{pages: pages}, nil
}

// Render writes the named page.
func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown template %q", name)
	}
	return t.ExecuteTemplate(w, "base", data)
}
