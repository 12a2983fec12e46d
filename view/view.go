// Package view renders the embedded HTML templates: printable invoices and the
// bodies of outgoing e-mail.
package view

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"io"
	"sync"
	texttemplate "text/template"
	"time"

	"github.com/diewo77/go-lawfirm/i18n"
	"github.com/diewo77/go-lawfirm/internal/billing"
)

//go:embed templates
var files embed.FS

var (
	tplCache = struct {
		sync.RWMutex
		html map[string]*htmltemplate.Template
		text map[string]*texttemplate.Template
	}{html: map[string]*htmltemplate.Template{}, text: map[string]*texttemplate.Template{}}
)

// Funcs returns the helpers shared by every template, bound to lang.
func Funcs(lang string) map[string]any {
	return map[string]any{
		"t":    func(code string) string { return i18n.T(lang, code) },
		"lang": func() string { return lang },
		"money": func(v any, currency string) string {
			f, _ := toFloat64(v)
			return billing.FormatMoney(f, currency)
		},
		"qty": func(v float64) string { return fmt.Sprintf("%g", v) },
		"percent": func(rate float64) string {
			return billing.VATPercent(rate)
		},
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02.01.2006")
		},
		"year": func() int { return time.Now().Year() },
		// dict builds a map from key-value pairs for sub-templates.
		"dict": func(values ...any) map[string]any {
			if len(values)%2 != 0 {
				return nil
			}
			m := make(map[string]any, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					continue
				}
				m[key] = values[i+1]
			}
			return m
		},
	}
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func htmlTemplate(name, lang string) (*htmltemplate.Template, error) {
	key := lang + ":" + name
	tplCache.RLock()
	t, ok := tplCache.html[key]
	tplCache.RUnlock()
	if ok {
		return t, nil
	}
	t, err := htmltemplate.New("").Funcs(Funcs(lang)).ParseFS(files, "templates/"+name, "templates/email/layout.html")
	if err != nil {
		return nil, err
	}
	tplCache.Lock()
	tplCache.html[key] = t
	tplCache.Unlock()
	return t, nil
}

func textTemplate(name, lang string) (*texttemplate.Template, error) {
	key := lang + ":" + name
	tplCache.RLock()
	t, ok := tplCache.text[key]
	tplCache.RUnlock()
	if ok {
		return t, nil
	}
	t, err := texttemplate.New("").Funcs(Funcs(lang)).ParseFS(files, "templates/"+name)
	if err != nil {
		return nil, err
	}
	tplCache.Lock()
	tplCache.text[key] = t
	tplCache.Unlock()
	return t, nil
}

// RenderInvoice writes the printable HTML invoice for s.
func RenderInvoice(w io.Writer, s billing.Statement) error {
	lang := s.Lang
	if !i18n.Supported(lang) {
		lang = i18n.DefaultLang
	}
	t, err := htmlTemplate("invoice.html", lang)
	if err != nil {
		return err
	}
	return t.ExecuteTemplate(w, "invoice", s)
}

// Email is a rendered outgoing message.
type Email struct {
	Subject string
	Text    string
	HTML    string
}

// RenderEmail renders the e-mail named name (reset_password, message_reply,
// reminder, message) with data. Each e-mail has a text template defining
// "subject" and "text" blocks and an HTML template defining "content".
func RenderEmail(name, lang string, data any) (Email, error) {
	if !i18n.Supported(lang) {
		lang = i18n.DefaultLang
	}
	var out Email
	tt, err := textTemplate("email/"+name+".txt", lang)
	if err != nil {
		return out, err
	}
	var b bytes.Buffer
	if err := tt.ExecuteTemplate(&b, "subject", data); err != nil {
		return out, err
	}
	out.Subject = string(bytes.TrimSpace(b.Bytes()))
	b.Reset()
	if err := tt.ExecuteTemplate(&b, "text", data); err != nil {
		return out, err
	}
	out.Text = string(bytes.TrimSpace(b.Bytes()))

	ht, err := htmlTemplate("email/"+name+".html", lang)
	if err != nil {
		return out, err
	}
	b.Reset()
	if err := ht.ExecuteTemplate(&b, "layout", data); err != nil {
		return out, err
	}
	out.HTML = b.String()
	return out, nil
}

// Data of the e-mail templates.
type (
	ResetPasswordEmail struct {
		Name string
		Link string
	}
	MessageReplyEmail struct {
		Name    string
		Subject string
		Reply   string
		Link    string
	}
	ReminderEmail struct {
		Title   string
		Message string
	}
	MessageEmail struct {
		Subject string
		Body    string
	}
)
