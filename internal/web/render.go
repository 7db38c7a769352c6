package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"strings"
	"time"

	"cex-withdraw-go/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

const htmlContentType = "text/html; charset=utf-8"

type page struct {
	Title        string
	User         *models.User
	Organization *models.Organization
	Content      template.HTML
}

// alert is the data of the "alert" fragment
type alert struct {
	Kind    string
	Message string
	Reload  bool
}

func (r *Router) loadTemplates() (*template.Template, error) {
	funcs := template.FuncMap{
		"exchangeName": r.svc.DisplayName,
		"upper":        strings.ToUpper,
		"add":          func(a, b int) int { return a + b },
		"sub":          func(a, b int) int { return a - b },
		"positive":     func(d decimal.Decimal) bool { return d.IsPositive() },
		"formatTime": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.UTC().Format("2006-01-02 15:04")
		},
		"formatTimePtr": func(t *time.Time) string {
			if t == nil {
				return "Never"
			}
			return t.UTC().Format("2006-01-02 15:04")
		},
		"shortId": func(id string) string {
			if len(id) > 8 {
				return id[:8]
			}
			return id
		},
	}
	return template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
}

// render writes the named fragment, wrapped in the layout unless the request
// came from htmx.
func (r *Router) render(c *gin.Context, status int, title, name string, data interface{}) {
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		zap.L().Error("Template rendering failed", zap.String("template", name), zap.Error(err))
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}

	if isHTMX(c) {
		c.Data(status, htmlContentType, buf.Bytes())
		return
	}

	c.HTML(status, "layout", page{
		Title:        "TransNet - " + title,
		User:         currentUser(c),
		Organization: currentOrganization(c),
		Content:      template.HTML(buf.String()),
	})
}

// fragment writes a partial that is never wrapped in the layout.
func (r *Router) fragment(c *gin.Context, status int, name string, data interface{}) {
	c.HTML(status, name, data)
}

// fail reports message as a toast to htmx and as an error page otherwise.
func (r *Router) fail(c *gin.Context, status int, message string) {
	if isHTMX(c) {
		toastText(c, status, message)
		return
	}
	r.render(c, status, "Error", "alert", alert{Kind: toastError, Message: message})
}
