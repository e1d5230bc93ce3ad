package httpx

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	domainauth "github.com/epharmacy/locator-web/internal/domain/auth"
)

// PageData is the data every page template receives.
type PageData struct {
	Page        string // template name under pages/, without extension
	Title       string
	User        *domainauth.User
	RedirectURI string // for the login and signup pages
	CSRFToken   string
	Now         time.Time
}

// TemplateRenderer renders HTML pages: "layout" for full navigations and
// "content" for htmx requests.
type TemplateRenderer struct {
	fsys    fs.FS
	devMode bool
	logger  *slog.Logger

	mu    sync.RWMutex
	pages map[string]*template.Template
}

// TemplateRendererConfig holds configuration for creating a TemplateRenderer.
type TemplateRendererConfig struct {
	TemplateFS fs.FS        // Filesystem containing layout.tmpl, partials/ and pages/ (required)
	DevMode    bool         // Re-parse templates on every render
	Logger     *slog.Logger // Optional
}

// NewTemplateRenderer parses every page against the shared layout and partials.
func NewTemplateRenderer(cfg TemplateRendererConfig) (*TemplateRenderer, error) {
	if cfg.TemplateFS == nil {
		return nil, errors.New("TemplateFS is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	r := &TemplateRenderer{fsys: cfg.TemplateFS, devMode: cfg.DevMode, logger: logger}
	pages, err := parsePages(cfg.TemplateFS)
	if err != nil {
		logger.Error("template parsing failed", slog.Any("error", err), slog.String("phase", "initialization"))
		return nil, err
	}
	r.pages = pages
	return r, nil
}

var templateFuncs = template.FuncMap{
	"roleLabel": roleLabel,
	"homePath":  domainauth.HomePath,
	"year":      func(t time.Time) int { return t.Year() },
}

func parsePages(fsys fs.FS) (map[string]*template.Template, error) {
	base, err := template.New("root").Funcs(templateFuncs).ParseFS(fsys, "layout.tmpl", "partials/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	files, err := fs.Glob(fsys, "pages/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	pages := make(map[string]*template.Template, len(files))
	for _, f := range files {
		t, cloneErr := base.Clone()
		if cloneErr != nil {
			return nil, fmt.Errorf("clone layout for %s: %w", f, cloneErr)
		}
		if _, err = t.ParseFS(fsys, f); err != nil {
			return nil, fmt.Errorf("parse %s: %w", f, err)
		}
		pages[strings.TrimSuffix(path.Base(f), ".tmpl")] = t
	}
	return pages, nil
}

func (r *TemplateRenderer) page(name string) (*template.Template, error) {
	if r.devMode {
		pages, err := parsePages(r.fsys)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.pages = pages
		r.mu.Unlock()
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.pages[name]
	if !ok {
		return nil, fmt.Errorf("unknown page %q", name)
	}
	return t, nil
}

// Render writes the page named by data.Page with the given status, as a full
// document or, for htmx requests, just its content block.
func (r *TemplateRenderer) Render(w http.ResponseWriter, req *http.Request, data PageData) error {
	return r.RenderStatus(w, req, http.StatusOK, data)
}

// RenderStatus is Render with an explicit status code.
func (r *TemplateRenderer) RenderStatus(w http.ResponseWriter, req *http.Request, status int, data PageData) error {
	t, err := r.page(data.Page)
	if err != nil {
		r.logger.Error("template lookup failed", slog.String("page", data.Page), slog.Any("error", err))
		return err
	}
	if data.Now.IsZero() {
		data.Now = time.Now()
	}

	name := "layout"
	if WantsPartial(req) {
		name = "content"
	}

	var buf bytes.Buffer
	if err = t.ExecuteTemplate(&buf, name, data); err != nil {
		r.logger.Error("template execution failed",
			slog.String("page", data.Page),
			slog.String("template", name),
			slog.Any("error", err),
		)
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err = buf.WriteTo(w); err != nil {
		r.logger.Error("failed to write rendered template", slog.String("page", data.Page), slog.Any("error", err))
		return err
	}
	return nil
}

func roleLabel(role domainauth.Role) string {
	switch role {
	case domainauth.RoleAdmin:
		return "Administrator"
	case domainauth.RolePharmacyOwner:
		return "Pharmacy owner"
	case domainauth.RoleCustomer:
		return "Customer"
	default:
		return "Member"
	}
}
