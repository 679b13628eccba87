// Package notify posts per-recipe Slack webhook messages.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"autopkgwrapper/internal/logging"
	"autopkgwrapper/internal/recipe"
)

// suppressed failures are expected noise and never posted.
var suppressed = []string{"No releases found for repo"}

// Attachment is a legacy Slack message attachment.
type Attachment struct {
	Username string   `json:"username"`
	AsUser   bool     `json:"as_user"`
	Title    string   `json:"title"`
	Color    string   `json:"color"`
	Text     string   `json:"text"`
	MrkdwnIn []string `json:"mrkdwn_in"`
}

// Payload is the webhook body.
type Payload struct {
	Attachments []Attachment `json:"attachments"`
}

// Slack implements scheduler.Notifier over an incoming webhook.
type Slack struct {
	WebhookURL string
	HTTP       *http.Client
}

// NewSlack creates a notifier. An empty webhook makes Notify a no-op.
func NewSlack(webhookURL string) *Slack {
	return &Slack{WebhookURL: webhookURL, HTTP: &http.Client{Timeout: 30 * time.Second}}
}

// Message builds the attachment for a recipe, or returns false when the
// recipe's outcome is not worth a message.
func Message(r *recipe.Recipe) (Attachment, bool) {
	a := Attachment{Username: "Autopkg", AsUser: true, MrkdwnIn: []string{"text"}}

	switch {
	case r.Trust == recipe.TrustFailed:
		a.Title = fmt.Sprintf("%s failed trust verification", r.Name())
		a.Text = r.Results.Message
	case r.Failed():
		a.Title = fmt.Sprintf("Failed to import %s", r.Name())
		if len(r.Results.Failures) == 0 {
			a.Text = "Unknown error"
			if r.Results.Message != "" {
				a.Text = r.Results.Message
			}
		} else {
			f := r.Results.Failures[0]
			a.Text = fmt.Sprintf("Error: %s \nTraceback: %s \n", f.Message, f.Traceback)
			for _, s := range suppressed {
				if strings.Contains(a.Text, s) {
					return Attachment{}, false
				}
			}
		}
	case r.Updated:
		a.Title = fmt.Sprintf("%s has been uploaded to Jamf", r.Name())
		a.Text = fmt.Sprintf("It's time to test %s!", r.Name())
	default:
		return Attachment{}, false
	}
	a.Color = color(r)
	return a, true
}

// color is warning for anything not verified, else good or danger by error.
func color(r *recipe.Recipe) string {
	switch {
	case r.Trust != recipe.TrustVerified:
		return "warning"
	case !r.Error:
		return "good"
	default:
		return "danger"
	}
}

// Notify implements scheduler.Notifier.
func (s *Slack) Notify(ctx context.Context, r *recipe.Recipe) error {
	if s.WebhookURL == "" {
		logging.NotifyDebug("Skipping Slack notification as no webhook is configured")
		return nil
	}
	att, ok := Message(r)
	if !ok {
		return nil
	}

	body, err := json.Marshal(Payload{Attachments: []Attachment{att}})
	if err != nil {
		return fmt.Errorf("failed to marshal slack payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("slack request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("request to slack returned an error %d, the response is:\n%s", resp.StatusCode, text)
	}
	logging.Notify("Sent Slack notification for %s: %s", r.Identifier(), att.Title)
	return nil
}
