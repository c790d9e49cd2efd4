// Package whatsapp formats the article digest and delivers it over the
// Twilio WhatsApp API.
package whatsapp

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/deusflow/meternews/internal/metrics"
	"github.com/deusflow/meternews/internal/news"
)

const twilioAPIBase = "https://api.twilio.com/2010-04-01"

const maxSendRetries = 3

// Delivery statuses.
const (
	StatusOK          = "ok"
	StatusPartialFail = "partial_fail"
	StatusSkipped     = "skipped"
)

// Sender formats digests and ships them chunk by chunk to every configured
// recipient.
type Sender struct {
	accountSID string
	authToken  string
	fromNumber string
	recipients []string
	maxChars   int
	apiBase    string
	client     *http.Client
	now        func() time.Time
	retryDelay time.Duration
}

// DeliveryDetail records the outcome of one chunk to one recipient.
type DeliveryDetail struct {
	To    string
	Chunk int
	SID   string
	Error string
}

// DeliveryResult is the per-recipient, per-chunk report of a Send call.
type DeliveryResult struct {
	Status  string
	Reason  string
	Sent    int
	Details []DeliveryDetail
}

// NewSender builds a sender. Missing credentials or recipients are allowed;
// Send then reports a skipped delivery instead of failing.
func NewSender(accountSID, authToken, fromNumber, recipientsRaw string, maxChars int) *Sender {
	return &Sender{
		accountSID: strings.TrimSpace(accountSID),
		authToken:  strings.TrimSpace(authToken),
		fromNumber: strings.TrimSpace(fromNumber),
		recipients: parseRecipients(recipientsRaw),
		maxChars:   maxChars,
		apiBase:    twilioAPIBase,
		client:     &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
		retryDelay: time.Second,
	}
}

func parseRecipients(raw string) []string {
	var recipients []string
	for _, part := range strings.Split(raw, ",") {
		if addr := toWhatsAppAddr(part); addr != "" {
			recipients = append(recipients, addr)
		}
	}
	return recipients
}

func toWhatsAppAddr(number string) string {
	number = strings.TrimSpace(number)
	if number == "" {
		return ""
	}
	if strings.HasPrefix(number, "whatsapp:") {
		return number
	}
	return "whatsapp:" + number
}

// FormatMessage builds the human-readable digest: header with generation
// timestamp, one numbered block per article, and an optional trailing
// analysis section.
func (s *Sender) FormatMessage(articles []news.Article, analysis string) string {
	var b strings.Builder
	b.WriteString("Electricity Meters & Grid News Digest\n")
	b.WriteString("Generated: " + s.now().Format("2006-01-02 15:04") + "\n\n")

	if len(articles) == 0 {
		b.WriteString("No new news items found for the selected period.")
		if a := strings.TrimSpace(analysis); a != "" {
			b.WriteString("\n\nAI Notes:\n" + a)
		}
		return strings.TrimSpace(b.String())
	}

	for i, a := range articles {
		title := strings.TrimSpace(a.Title)
		if title == "" {
			title = "Untitled"
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, title)

		var metaParts []string
		for _, p := range []string{strings.TrimSpace(a.Source), strings.TrimSpace(a.FetchedFrom), formatDate(a.PublishedAt)} {
			if p != "" {
				metaParts = append(metaParts, p)
			}
		}
		if len(metaParts) > 0 {
			b.WriteString("   " + strings.Join(metaParts, " | ") + "\n")
		}
		if u := strings.TrimSpace(a.URL); u != "" {
			b.WriteString("   " + u + "\n")
		}
		b.WriteString("\n")
	}

	if a := strings.TrimSpace(analysis); a != "" {
		b.WriteString("AI Notes:\n" + a + "\n")
	}

	return strings.TrimSpace(b.String())
}

// formatDate reformats an ISO-8601-ish publish date for display. Anything
// unparseable passes through untouched.
func formatDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02 15:04")
		}
	}
	return s
}

// SplitMessage cuts a message into chunks within the character budget,
// preferring line boundaries. A single line longer than the budget is kept
// intact rather than split mid-line.
func (s *Sender) SplitMessage(message string) []string {
	if len(message) <= s.maxChars {
		return []string{message}
	}

	var chunks []string
	var current []string
	currentLen := 0

	for _, line := range strings.Split(message, "\n") {
		addLen := len(line) + 1 // newline
		if len(current) > 0 && currentLen+addLen > s.maxChars {
			chunks = append(chunks, strings.TrimSpace(strings.Join(current, "\n")))
			current = []string{line}
			currentLen = len(line) + 1
		} else {
			current = append(current, line)
			currentLen += addLen
		}
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.TrimSpace(strings.Join(current, "\n")))
	}

	nonEmpty := chunks[:0]
	for _, c := range chunks {
		if c != "" {
			nonEmpty = append(nonEmpty, c)
		}
	}
	if len(nonEmpty) == 0 {
		return []string{message[:s.maxChars]}
	}
	return nonEmpty
}

// Send splits the message and delivers every chunk to every recipient.
// Individual delivery failures are recorded, never raised; the overall
// status degrades to partial_fail when any chunk fails.
func (s *Sender) Send(message string) DeliveryResult {
	if len(s.recipients) == 0 {
		return DeliveryResult{Status: StatusSkipped, Reason: "no WHATSAPP_PHONE_NUMBERS configured"}
	}
	if missing := s.missingCredentials(); len(missing) > 0 {
		return DeliveryResult{Status: StatusSkipped, Reason: "Twilio not configured: " + strings.Join(missing, ", ")}
	}

	fromAddr := toWhatsAppAddr(s.fromNumber)
	chunks := s.SplitMessage(message)
	result := DeliveryResult{Status: StatusOK}

	for _, toAddr := range s.recipients {
		for i, chunk := range chunks {
			body := chunk
			if len(chunks) > 1 {
				body = fmt.Sprintf("(%d/%d)\n%s", i+1, len(chunks), chunk)
			}

			sid, err := s.sendChunk(fromAddr, toAddr, body)
			if err != nil {
				slog.Warn("WhatsApp delivery failed", "to", toAddr, "chunk", i+1, "error", err)
				metrics.Global.IncrementMessagesFailed()
				result.Status = StatusPartialFail
				result.Details = append(result.Details, DeliveryDetail{To: toAddr, Chunk: i + 1, Error: err.Error()})
				continue
			}

			metrics.Global.IncrementMessagesSent()
			result.Sent++
			result.Details = append(result.Details, DeliveryDetail{To: toAddr, Chunk: i + 1, SID: sid})
		}
	}

	return result
}

func (s *Sender) missingCredentials() []string {
	var missing []string
	if s.accountSID == "" {
		missing = append(missing, "TWILIO_ACCOUNT_SID")
	}
	if s.authToken == "" {
		missing = append(missing, "TWILIO_AUTH_TOKEN")
	}
	if s.fromNumber == "" {
		missing = append(missing, "TWILIO_WHATSAPP_NUMBER")
	}
	return missing
}

// sendChunk posts one message to the Twilio API, retrying transient
// failures with exponential backoff. Client errors (4xx) are permanent and
// fail immediately.
func (s *Sender) sendChunk(fromAddr, toAddr, body string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= maxSendRetries; attempt++ {
		sid, status, err := s.sendOnce(fromAddr, toAddr, body)
		if err == nil {
			return sid, nil
		}
		if status >= 400 && status < 500 {
			return "", err
		}
		lastErr = err
		slog.Warn("Twilio send attempt failed", "attempt", attempt, "max", maxSendRetries, "error", err)

		if attempt < maxSendRetries {
			time.Sleep(time.Duration(1<<attempt) * s.retryDelay)
		}
	}
	return "", fmt.Errorf("can't send message after %d tries: %w", maxSendRetries, lastErr)
}

func (s *Sender) sendOnce(fromAddr, toAddr, body string) (string, int, error) {
	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", s.apiBase, s.accountSID)

	form := url.Values{}
	form.Set("From", fromAddr)
	form.Set("To", toAddr)
	form.Set("Body", body)

	req, err := http.NewRequest(http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, fmt.Errorf("error building request: %w", err)
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("error HTTP request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", resp.StatusCode, fmt.Errorf("twilio API error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var created struct {
		SID string `json:"sid"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		// Delivery succeeded; the SID is informational only.
		return "", resp.StatusCode, nil
	}
	return created.SID, resp.StatusCode, nil
}
