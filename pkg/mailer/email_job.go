package mailer

import (
	"fmt"
	"strings"
)

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// Either Template+Data or Subject with Text/HTML must be set.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"` // "universal" or a per-type name such as "listing_approved"
	Data     map[string]any `json:"data,omitempty"`
}

// Normalize fills recipient fields and folds per-type template names into
// the universal template with Data["Type"] set.
func (j *EmailJob) Normalize() {
	if j.Data == nil {
		j.Data = map[string]any{}
	}
	for _, k := range []string{"Email", "RecipientEmail"} {
		if v, ok := j.Data[k]; !ok || fmt.Sprintf("%v", v) == "" {
			j.Data[k] = j.To
		}
	}
	name := strings.ToLower(strings.TrimSpace(j.Template))
	if name == "" || name == "universal" {
		return
	}
	if t, ok := j.Data["Type"]; !ok || fmt.Sprintf("%v", t) == "" {
		j.Data["Type"] = name
	}
	j.Template = "universal"
}
