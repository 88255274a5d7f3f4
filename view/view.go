// Package view renders HTML pages from the templates directory. Every page
// template is wrapped in layout.html; parsed templates are cached outside
// dev mode. Flash messages travel in a short-lived cookie set by handlers
// and consumed here on the next render.
package view

import (
	"html/template"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Pedrom2002/airline-satisfaction-webapp/auth"
)

const flashCookieName = "flash"

var (
	baseDir  string
	once     sync.Once
	tplCache = struct {
		sync.RWMutex
		m map[string]*template.Template
	}{m: map[string]*template.Template{}}
)

func detectBase() {
	candidates := []string{"templates", "../templates", "../../templates", "../../../templates"}
	for _, c := range candidates {
		if fi, err := os.Stat(filepath.Clean(c)); err == nil && fi.IsDir() {
			baseDir = filepath.Clean(c)
			return
		}
	}
	baseDir = "templates"
}

// SetBaseDir overrides the template base directory (useful for tests).
func SetBaseDir(path string) {
	if path == "" {
		return
	}
	baseDir = filepath.Clean(path)
	once = sync.Once{}
	tplCache.Lock()
	tplCache.m = map[string]*template.Template{}
	tplCache.Unlock()
}

// Flash queues a one-shot message for the next rendered page.
func Flash(w http.ResponseWriter, msg string) {
	http.SetCookie(w, &http.Cookie{Name: flashCookieName, Value: url.QueryEscape(msg), Path: "/"})
}

func popFlash(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie(flashCookieName)
	if err != nil || c.Value == "" {
		return ""
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookieName, Value: "", Path: "/", Expires: time.Unix(0, 0), MaxAge: -1})
	if dec, derr := url.QueryUnescape(c.Value); derr == nil {
		return dec
	}
	return c.Value
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"year": func() int { return time.Now().Year() },
		"title": func(s string) string {
			if s == "" {
				return s
			}
			return strings.ToUpper(s[:1]) + s[1:]
		},
		"pct": func(f float64) float64 { return f * 100 },
	}
}

// Render parses and executes a page template wrapped in the shared layout.
// name is relative to the templates dir (e.g. "login.html", "admin/table.html").
func Render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) error {
	if baseDir == "" {
		once.Do(detectBase)
	}
	if data == nil {
		data = map[string]any{}
	}
	if _, exists := data["Year"]; !exists {
		data["Year"] = time.Now().Year()
	}
	if _, exists := data["Identity"]; !exists {
		if id, ok := auth.IdentityFromContext(r.Context()); ok {
			data["Identity"] = id
		}
	}
	if _, exists := data["Flash"]; !exists {
		if msg := popFlash(w, r); msg != "" {
			data["Flash"] = msg
		}
	}

	devMode := os.Getenv("DEV") == "1"
	if !devMode {
		tplCache.RLock()
		t, ok := tplCache.m[name]
		tplCache.RUnlock()
		if ok && t != nil {
			return t.ExecuteTemplate(w, "layout.html", data)
		}
	}

	mainPath := filepath.Join(baseDir, name)
	layoutPath := filepath.Join(baseDir, "layout.html")
	t, err := template.New("layout.html").Funcs(funcs()).ParseFiles(layoutPath, mainPath)
	if err != nil {
		return err
	}
	if !devMode {
		tplCache.Lock()
		tplCache.m[name] = t
		tplCache.Unlock()
	}
	return t.ExecuteTemplate(w, "layout.html", data)
}
