package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Dune005/syfte/internal/metrics"
	"github.com/Dune005/syfte/internal/model"
	webpush "github.com/SherClockHolmes/webpush-go"
)

// ErrGone is returned when the push service reports the subscription as
// expired (404/410). The subscription should be deleted.
var ErrGone = errors.New("push subscription is gone")

// Message is the JSON payload the service worker renders.
type Message struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
	Tag   string `json:"tag,omitempty"`
}

type Sender interface {
	Send(ctx context.Context, sub *model.PushSubscription, msg Message) error
}

type WebPushConfig struct {
	PublicKey  string
	PrivateKey string
	Subject    string // mailto: address or https URL identifying the sender
	TTL        int    // seconds the push service keeps undelivered messages
}

type WebPush struct {
	cfg    WebPushConfig
	client *http.Client
}

func NewWebPush(cfg WebPushConfig) (*WebPush, error) {
	if cfg.PublicKey == "" || cfg.PrivateKey == "" {
		return nil, errors.New("vapid keys are not configured")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 86400
	}

	return &WebPush{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
	}, nil
}

func (w *WebPush) Send(ctx context.Context, sub *model.PushSubscription, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode push message: %w", err)
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		HTTPClient:      w.client,
		Subscriber:      strings.TrimPrefix(w.cfg.Subject, "mailto:"),
		VAPIDPublicKey:  w.cfg.PublicKey,
		VAPIDPrivateKey: w.cfg.PrivateKey,
		TTL:             w.cfg.TTL,
		Urgency:         webpush.UrgencyNormal,
	})
	if err != nil {
		metrics.PushSent.WithLabelValues("failed").Inc()
		return fmt.Errorf("failed to send push: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		metrics.PushSent.WithLabelValues("gone").Inc()
		return ErrGone
	case resp.StatusCode >= 400:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		metrics.PushSent.WithLabelValues("failed").Inc()
		return fmt.Errorf("push service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	metrics.PushSent.WithLabelValues("sent").Inc()
	return nil
}

// GenerateVAPIDKeys returns a new base64url key pair.
func GenerateVAPIDKeys() (publicKey, privateKey string, err error) {
	privateKey, publicKey, err = webpush.GenerateVAPIDKeys()
	return publicKey, privateKey, err
}
