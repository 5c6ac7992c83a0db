package web

import (
	"bytes"
	"embed"
	"html/template"

	"github.com/gofiber/fiber/v2"

	"github.com/stayease/stayease-web/internal/app"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type formValues struct {
	Email      string
	FirstName  string
	LastName   string
	Role       string
	RequestKey string
}

type page struct {
	Title         string
	Authenticated bool
	Name          string
	Landlord      bool
	Tenant        bool
	Notice        string
	Error         string
	Fields        map[string]string
	Form          formValues
	Redirect      string
	ID            string
}

// newPage fills the session-derived fields from the current session.
func newPage(a *app.App, title string) page {
	p := page{Title: title}
	if id, ok := a.Sessions.Current().Identity(); ok {
		p.Authenticated = true
		p.Name = id.DisplayName()
		p.Landlord = a.Roles.IsLandlord()
		p.Tenant = a.Roles.IsTenant()
	}
	return p
}

func render(c *fiber.Ctx, status int, name string, p page) error {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, p); err != nil {
		return err
	}
	c.Type("html", "utf-8")
	return c.Status(status).Send(buf.Bytes())
}
