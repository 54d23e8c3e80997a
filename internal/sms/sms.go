// Package sms sends outbound text messages through the Twilio REST API and
// builds TwiML reply documents for the inbound webhook.
package sms

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Transport delivers one cycle's message batch. Delivery is best-effort:
// per-message failures are logged and never fail the cycle.
type Transport interface {
	SendBatch(ctx context.Context, messages []string, recipients []string)
}

// TwilioTransport posts to the Twilio Messages endpoint with basic auth.
// Sends are paced with a rate limiter; Twilio throttles long-code senders
// to about one message per second.
type TwilioTransport struct {
	accountSID string
	authToken  string
	fromNumber string
	apiBase    string
	client     *http.Client
	limiter    *rate.Limiter
	log        *zap.Logger
}

const defaultAPIBase = "https://api.twilio.com"

func NewTwilioTransport(accountSID, authToken, fromNumber string, log *zap.Logger) *TwilioTransport {
	return &TwilioTransport{
		accountSID: accountSID,
		authToken:  authToken,
		fromNumber: fromNumber,
		apiBase:    defaultAPIBase,
		client:     &http.Client{Timeout: 20 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(time.Second), 1),
		log:        log,
	}
}

// WithAPIBase overrides the API host, for tests.
func (t *TwilioTransport) WithAPIBase(base string) *TwilioTransport {
	t.apiBase = strings.TrimRight(base, "/")
	return t
}

// SendBatch delivers every message to every recipient (cross product).
func (t *TwilioTransport) SendBatch(ctx context.Context, messages []string, recipients []string) {
	if len(messages) == 0 || len(recipients) == 0 {
		return
	}
	for _, msg := range messages {
		for _, to := range recipients {
			if err := t.limiter.Wait(ctx); err != nil {
				t.log.Warn("send batch interrupted", zap.Error(err))
				return
			}
			if err := t.send(ctx, msg, to); err != nil {
				t.log.Error("sms send failed", zap.String("to", to), zap.Error(err))
			}
		}
	}
}

func (t *TwilioTransport) send(ctx context.Context, body, to string) error {
	form := url.Values{}
	form.Set("To", to)
	form.Set("From", t.fromNumber)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", t.apiBase, t.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.SetBasicAuth(t.accountSID, t.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

// twiml is the markup reply document Twilio expects from the webhook.
type twiml struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message"`
}

// Reply renders the TwiML document carrying the given reply text.
func Reply(text string) string {
	b, _ := xml.Marshal(twiml{Message: text})
	return xml.Header + string(b)
}
