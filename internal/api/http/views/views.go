// Package views renders the dashboard's HTML pages.
package views

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"

	"github.com/spec-kit/clinic-admin/internal/domain"
)

//go:embed templates static
var assets embed.FS

// Layouts.
const (
	ShellLayout  = "layouts/shell"
	PublicLayout = "layouts/public"
)

// NewEngine loads the embedded templates.
func NewEngine(reload bool) *html.Engine {
	engine := html.NewFileSystem(subFS("templates"), ".html")
	engine.Reload(reload)
	return engine
}

// Static serves the stylesheet and other assets.
func Static() http.FileSystem {
	return subFS("static")
}

func subFS(dir string) http.FileSystem {
	sub, err := fs.Sub(assets, dir)
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

// Crumb is one breadcrumb entry.
type Crumb struct {
	Label string
	Href  string
}

// Nav is a sidebar entry.
type Nav struct {
	Label string
	Href  string
}

// Sidebar lists the dashboard sections.
var Sidebar = []Nav{
	{Label: "Dashboard", Href: "/"},
	{Label: "Appointments", Href: "/appointments"},
	{Label: "Doctors", Href: "/doctors"},
	{Label: "Patients", Href: "/patients"},
	{Label: "Pharmacies", Href: "/pharmacies"},
	{Label: "Orders", Href: "/orders"},
	{Label: "Subscriptions", Href: "/subscriptions"},
	{Label: "Chat", Href: "/chat"},
}

// Page is the data every template receives.
type Page struct {
	Title       string
	Path        string
	User        *domain.Identity
	Breadcrumbs []Crumb
	Sidebar     []Nav
	Error       string
	Notice      string
	Form        map[string]string
	Data        any
}

// Table is the generic list page body.
type Table struct {
	Columns []string
	Rows    [][]string
	Total   int
	Page    int
	Empty   string
}

// RenderShell renders page inside the authenticated shell.
func RenderShell(c *fiber.Ctx, status int, name string, p Page) error {
	p.Path = c.Path()
	p.Sidebar = Sidebar
	if len(p.Breadcrumbs) == 0 {
		p.Breadcrumbs = []Crumb{{Label: "Home", Href: "/"}}
		if p.Title != "" && p.Path != "/" {
			p.Breadcrumbs = append(p.Breadcrumbs, Crumb{Label: p.Title})
		}
	}
	return c.Status(status).Render(name, p, ShellLayout)
}

// RenderPublic renders a sign-in style page without the shell.
func RenderPublic(c *fiber.Ctx, status int, name string, p Page) error {
	p.Path = c.Path()
	return c.Status(status).Render(name, p, PublicLayout)
}
