package sync

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	embedColorGreen  = 0x00FF00
	embedColorBlue   = 0x0099FF
	embedColorOrange = 0xFF9900
	embedColorRed    = 0xFF0000

	// Discord caps embeds per message; larger syncs are summarised.
	maxEmbedLines = 10
)

// Notifier posts sync outcomes to a Discord webhook. Delivery is best effort:
// failures are logged and never propagated to the sync pass.
type Notifier struct {
	webhookURL string
	http       *http.Client
	logger     *zap.Logger
}

// NewNotifier creates a notifier for the given webhook URL. An empty URL
// produces a disabled notifier.
func NewNotifier(webhookURL string, logger *zap.Logger) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		http:       &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// Enabled reports whether a webhook URL is configured.
func (n *Notifier) Enabled() bool {
	return n.webhookURL != ""
}

type webhookPayload struct {
	Embeds []embed `json:"embeds"`
}

type embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color"`
	Fields      []embedField `json:"fields,omitempty"`
	Timestamp   string       `json:"timestamp"`
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// SyncCompleted announces the outcome of a finished sync pass. Passes with no
// changes are announced quietly with a stats-only embed.
func (n *Notifier) SyncCompleted(result *Result) {
	if !n.Enabled() || result == nil {
		return
	}

	color := embedColorBlue
	if result.Stats.Added > 0 || result.Stats.RankChanges > 0 {
		color = embedColorGreen
	}
	if result.Stats.Errors > 0 {
		color = embedColorOrange
	}

	fields := []embedField{
		{Name: "Remote members", Value: fmt.Sprintf("%d (%d eligible)", result.Stats.TotalRemote, result.Stats.EligibleRemote), Inline: true},
		{Name: "Added", Value: fmt.Sprintf("%d", result.Stats.Added), Inline: true},
		{Name: "Updated", Value: fmt.Sprintf("%d", result.Stats.Updated), Inline: true},
		{Name: "Rank changes", Value: fmt.Sprintf("%d", result.Stats.RankChanges), Inline: true},
		{Name: "Skipped", Value: fmt.Sprintf("%d", result.Stats.Skipped), Inline: true},
		{Name: "Errors", Value: fmt.Sprintf("%d", result.Stats.Errors), Inline: true},
	}

	if list := formatNewMembers(result.NewMembers); list != "" {
		fields = append(fields, embedField{Name: "New members", Value: list})
	}
	if list := formatRankChanges(result.RankChanges); list != "" {
		fields = append(fields, embedField{Name: "Rank changes", Value: list})
	}
	if list := formatDepartures(result.PotentialDepartures); list != "" {
		fields = append(fields, embedField{Name: "Potential departures", Value: list})
	}

	n.send(webhookPayload{Embeds: []embed{{
		Title:     "Roster sync completed",
		Color:     color,
		Fields:    fields,
		Timestamp: result.FinishedAt.UTC().Format(time.RFC3339),
	}}})
}

// SyncFailed announces a sync pass that could not complete.
func (n *Notifier) SyncFailed(message string) {
	if !n.Enabled() {
		return
	}
	n.send(webhookPayload{Embeds: []embed{{
		Title:       "Roster sync failed",
		Description: message,
		Color:       embedColorRed,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}}})
}

func formatNewMembers(members []NewMember) string {
	if len(members) == 0 {
		return ""
	}
	lines := make([]string, 0, len(members))
	for i, m := range members {
		if i == maxEmbedLines {
			lines = append(lines, fmt.Sprintf("...and %d more", len(members)-maxEmbedLines))
			break
		}
		lines = append(lines, fmt.Sprintf("**%s** joined as %s", m.Username, m.Rank))
	}
	return strings.Join(lines, "\n")
}

func formatRankChanges(changes []RankChange) string {
	if len(changes) == 0 {
		return ""
	}
	lines := make([]string, 0, len(changes))
	for i, c := range changes {
		if i == maxEmbedLines {
			lines = append(lines, fmt.Sprintf("...and %d more", len(changes)-maxEmbedLines))
			break
		}
		lines = append(lines, fmt.Sprintf("**%s**: %s to %s", c.Handle, c.FromRank, c.ToRank))
	}
	return strings.Join(lines, "\n")
}

func formatDepartures(departures []Departure) string {
	if len(departures) == 0 {
		return ""
	}
	lines := make([]string, 0, len(departures))
	for i, d := range departures {
		if i == maxEmbedLines {
			lines = append(lines, fmt.Sprintf("...and %d more", len(departures)-maxEmbedLines))
			break
		}
		lines = append(lines, fmt.Sprintf("**%s** (%s) no longer in the group", d.Handle, d.RobloxUsername))
	}
	return strings.Join(lines, "\n")
}

func (n *Notifier) send(payload webhookPayload) {
	body, err := json.Marshal(payload)
	if err != nil {
		n.logger.Error("failed to encode webhook payload", zap.Error(err))
		return
	}

	resp, err := n.http.Post(n.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		n.logger.Warn("webhook delivery failed", zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		n.logger.Warn("webhook delivery rejected", zap.Int("status", resp.StatusCode))
	}
}
