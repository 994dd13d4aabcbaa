package openai

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Webhook signature headers (Standard Webhooks).
const (
	HeaderWebhookID        = "webhook-id"
	HeaderWebhookTimestamp = "webhook-timestamp"
	HeaderWebhookSignature = "webhook-signature"

	secretPrefix     = "whsec_"
	signatureVersion = "v1"
)

// WebhookTolerance is how far a webhook timestamp may drift from now.
const WebhookTolerance = 5 * time.Minute

var (
	ErrMissingSignature = errors.New("missing webhook signature")
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrStaleTimestamp   = errors.New("stale webhook timestamp")
)

// VerifyWebhook checks the signature headers of a webhook delivery against
// the signing secret.
func VerifyWebhook(secret string, h http.Header, body []byte, now time.Time) error {
	id := h.Get(HeaderWebhookID)
	timestamp := h.Get(HeaderWebhookTimestamp)
	signatures := h.Get(HeaderWebhookSignature)
	if id == "" || timestamp == "" || signatures == "" {
		return ErrMissingSignature
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrInvalidSignature
	}
	sent := time.Unix(ts, 0)
	if now.Sub(sent) > WebhookTolerance || sent.Sub(now) > WebhookTolerance {
		return ErrStaleTimestamp
	}

	expected := Sign(secret, id, timestamp, body)
	for _, candidate := range strings.Fields(signatures) {
		version, sig, ok := strings.Cut(candidate, ",")
		if !ok || version != signatureVersion {
			continue
		}
		if hmac.Equal([]byte(sig), []byte(expected)) {
			return nil
		}
	}
	return ErrInvalidSignature
}

// Sign computes the base64 v1 signature of a webhook delivery.
func Sign(secret, id, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, signingKey(secret))
	_, _ = mac.Write([]byte(id + "." + timestamp + "."))
	_, _ = mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// signingKey decodes a whsec_ prefixed secret; anything else is used verbatim.
func signingKey(secret string) []byte {
	if raw, ok := strings.CutPrefix(secret, secretPrefix); ok {
		if key, err := base64.StdEncoding.DecodeString(raw); err == nil {
			return key
		}
	}
	return []byte(secret)
}
