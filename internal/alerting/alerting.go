// Package alerting posts background job failures to a chat or generic
// webhook.
package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bher20/ecoenergy/internal/config"
)

const (
	TypeSlack   = "slack"
	TypeDiscord = "discord"
	TypeGeneric = "generic"
)

// Alerter sends alerts to the configured webhook.
type Alerter struct {
	url         string
	kind        string
	minFailures int
	client      *http.Client
	log         *zap.Logger
}

// NewAlerter builds an alerter from cfg. The webhook type is detected from
// the URL when unset. An empty URL disables alerting.
func NewAlerter(cfg config.AlertConfig, log *zap.Logger) *Alerter {
	if log == nil {
		log = zap.NewNop()
	}
	kind := strings.ToLower(cfg.WebhookType)
	if kind == "" {
		switch {
		case strings.Contains(cfg.WebhookURL, "slack.com"):
			kind = TypeSlack
		case strings.Contains(cfg.WebhookURL, "discord.com"):
			kind = TypeDiscord
		default:
			kind = TypeGeneric
		}
	}
	minFailures := cfg.MinFailures
	if minFailures < 1 {
		minFailures = 1
	}
	return &Alerter{
		url:         cfg.WebhookURL,
		kind:        kind,
		minFailures: minFailures,
		client:      &http.Client{Timeout: 10 * time.Second},
		log:         log,
	}
}

// Enabled reports whether a webhook is configured.
func (a *Alerter) Enabled() bool { return a.url != "" }

// SnapshotAlert summarizes a snapshot run that had failures.
type SnapshotAlert struct {
	JobName       string
	TotalCount    int
	SuccessCount  int
	FailedCount   int
	Duration      time.Duration
	FailedDetails []AccountFailure
	Timestamp     time.Time
}

// AccountFailure is one account the job could not process.
type AccountFailure struct {
	Username string `json:"username"`
	Error    string `json:"error"`
}

// SendSnapshotAlert posts alert unless alerting is disabled or the failure
// count is below the threshold.
func (a *Alerter) SendSnapshotAlert(ctx context.Context, alert SnapshotAlert) error {
	if !a.Enabled() {
		a.log.Debug("alerts disabled, skipping")
		return nil
	}
	if alert.FailedCount < a.minFailures {
		a.log.Debug("failures below alert threshold",
			zap.Int("failed", alert.FailedCount), zap.Int("threshold", a.minFailures))
		return nil
	}

	var payload []byte
	var err error
	switch a.kind {
	case TypeSlack:
		payload, err = buildSlackPayload(alert)
	case TypeDiscord:
		payload, err = buildDiscordPayload(alert)
	default:
		payload, err = buildGenericPayload(alert)
	}
	if err != nil {
		return fmt.Errorf("build payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	a.log.Info("alert sent", zap.String("job", alert.JobName), zap.Int("failed", alert.FailedCount))
	return nil
}

func failureList(alert SnapshotAlert, bold string) string {
	var b strings.Builder
	for _, f := range alert.FailedDetails {
		fmt.Fprintf(&b, "• %s%s%s: %s\n", bold, f.Username, bold, f.Error)
	}
	return b.String()
}

func buildSlackPayload(alert SnapshotAlert) ([]byte, error) {
	emoji := ":warning:"
	if alert.FailedCount == alert.TotalCount {
		emoji = ":x:"
	}
	payload := map[string]any{
		"blocks": []map[string]any{
			{
				"type": "header",
				"text": map[string]string{
					"type": "plain_text",
					"text": fmt.Sprintf("%s Job Alert: %s", emoji, alert.JobName),
				},
			},
			{
				"type": "section",
				"fields": []map[string]string{
					{"type": "mrkdwn", "text": fmt.Sprintf("*Status:*\n%d/%d failed", alert.FailedCount, alert.TotalCount)},
					{"type": "mrkdwn", "text": fmt.Sprintf("*Duration:*\n%s", alert.Duration.Round(time.Millisecond))},
					{"type": "mrkdwn", "text": fmt.Sprintf("*Success:*\n%d", alert.SuccessCount)},
					{"type": "mrkdwn", "text": fmt.Sprintf("*Timestamp:*\n%s", alert.Timestamp.Format(time.RFC3339))},
				},
			},
			{
				"type": "section",
				"text": map[string]string{
					"type": "mrkdwn",
					"text": "*Failed Accounts:*\n" + failureList(alert, "*"),
				},
			},
		},
	}
	return json.Marshal(payload)
}

func buildDiscordPayload(alert SnapshotAlert) ([]byte, error) {
	color := 16776960 // yellow
	if alert.FailedCount == alert.TotalCount {
		color = 16711680 // red
	}
	payload := map[string]any{
		"embeds": []map[string]any{
			{
				"title":       "Job Alert: " + alert.JobName,
				"description": fmt.Sprintf("%d/%d accounts failed", alert.FailedCount, alert.TotalCount),
				"color":       color,
				"fields": []map[string]any{
					{"name": "Success", "value": fmt.Sprintf("%d", alert.SuccessCount), "inline": true},
					{"name": "Failed", "value": fmt.Sprintf("%d", alert.FailedCount), "inline": true},
					{"name": "Duration", "value": alert.Duration.Round(time.Millisecond).String(), "inline": true},
					{"name": "Failed Accounts", "value": failureList(alert, "**"), "inline": false},
				},
				"timestamp": alert.Timestamp.Format(time.RFC3339),
			},
		},
	}
	return json.Marshal(payload)
}

func buildGenericPayload(alert SnapshotAlert) ([]byte, error) {
	payload := map[string]any{
		"alert_type":     "job_failure",
		"job_name":       alert.JobName,
		"total_count":    alert.TotalCount,
		"success_count":  alert.SuccessCount,
		"failed_count":   alert.FailedCount,
		"duration_ms":    alert.Duration.Milliseconds(),
		"timestamp":      alert.Timestamp.Format(time.RFC3339),
		"failed_details": alert.FailedDetails,
	}
	return json.Marshal(payload)
}
