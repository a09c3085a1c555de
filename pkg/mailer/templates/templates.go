package templates

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	htmpl "html/template"
	"reflect"
	"strings"
	texttpl "text/template"
	"time"
)

//go:embed *.tmpl
var FS embed.FS

// EmailData defines the fields the universal template understands.
type EmailData struct {
	Name           string `json:"Name"`
	Email          string `json:"Email"`
	RecipientEmail string `json:"RecipientEmail"`
	Type           string `json:"Type"`

	CompanyName string `json:"CompanyName"`
	AppName     string `json:"AppName"`
	LogoURL     string `json:"LogoURL"`
	SupportURL  string `json:"SupportURL"`

	// ActionURL is the primary button target; ActionText its label.
	ActionURL  string `json:"ActionURL"`
	ActionText string `json:"ActionText"`

	ExpiresAt     time.Time `json:"ExpiresAt"`
	ExpiresAtText string    `json:"ExpiresAtText"`

	ListingTitle string `json:"ListingTitle"`
	ListingID    string `json:"ListingID"`
	Reason       string `json:"Reason"`
	Amount       string `json:"Amount"`
	Reference    string `json:"Reference"`
	Detail       string `json:"Detail"`
}

// ToMap converts EmailData to a map[string]any for EmailJob.Data
func ToMap(d EmailData) map[string]any {
	b, _ := json.Marshal(d)
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	return m
}

// defaultFn supports pipe usage: {{ .Value | default "Fallback" }}
func defaultFn(fallback any, value any) any {
	switch x := value.(type) {
	case string:
		if strings.TrimSpace(x) == "" {
			return fallback
		}
		return x
	case nil:
		return fallback
	default:
		rv := reflect.ValueOf(value)
		if !rv.IsValid() {
			return fallback
		}
		if reflect.DeepEqual(value, reflect.Zero(rv.Type()).Interface()) {
			return fallback
		}
		return value
	}
}

func baseFuncs() map[string]any {
	return map[string]any{
		"now":     func() time.Time { return time.Now().UTC() },
		"upper":   strings.ToUpper,
		"default": defaultFn,
	}
}

var (
	htmlFuncMap = htmpl.FuncMap(baseFuncs())
	textFuncMap = texttpl.FuncMap(baseFuncs())
)

// Email types rendered by the universal template.
const (
	VerifyEmail      = "verify_email"
	ResetPassword    = "reset_password"
	ListingApproved  = "listing_approved"
	ListingRejected  = "listing_rejected"
	SyncIntervention = "sync_intervention"
	PayoutSent       = "payout_sent"
)

// Subject picks the subject line from data["Type"].
func Subject(data map[string]any) string {
	switch strings.ToLower(fmt.Sprintf("%v", data["Type"])) {
	case VerifyEmail:
		return "Verify your email address"
	case ResetPassword:
		return "Reset your password"
	case ListingApproved:
		return "Your listing is live"
	case ListingRejected:
		return "Your listing was not approved"
	case SyncIntervention:
		return "Action needed: listing sync failed"
	case PayoutSent:
		return "Your payout is on its way"
	default:
		return "Notification"
	}
}

func renderFile(filename string, isHTML bool, data any) (string, error) {
	var (
		buf bytes.Buffer
		err error
	)
	if isHTML {
		tpl, e := htmpl.New(filename).Funcs(htmlFuncMap).ParseFS(FS, filename)
		if e != nil {
			return "", fmt.Errorf("parse html %q: %w", filename, e)
		}
		err = tpl.Execute(&buf, data)
	} else {
		tpl, e := texttpl.New(filename).Funcs(textFuncMap).ParseFS(FS, filename)
		if e != nil {
			return "", fmt.Errorf("parse text %q: %w", filename, e)
		}
		err = tpl.Execute(&buf, data)
	}
	if err != nil {
		return "", fmt.Errorf("exec %q: %w", filename, err)
	}
	return buf.String(), nil
}

// RenderUniversal renders subject, text and html for one of the email types.
func RenderUniversal(data map[string]any) (subject, text, html string, err error) {
	text, err = renderFile("universal.text.tmpl", false, data)
	if err != nil {
		return "", "", "", err
	}
	html, err = renderFile("universal.html.tmpl", true, data)
	if err != nil {
		return "", "", "", err
	}
	return Subject(data), text, html, nil
}
