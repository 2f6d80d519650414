// Package slackauth verifies Slack request signatures (version v0).
package slackauth

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

// Header names Slack uses for signed requests.
const (
	HeaderTimestamp = "X-Slack-Request-Timestamp"
	HeaderSignature = "X-Slack-Signature"
)

// MaxSkew is the symmetric replay window around the current time.
const MaxSkew = 300 * time.Second

const version = "v0"

// Rejection reasons.
const (
	ReasonMissingTimestamp  = "missing timestamp"
	ReasonMissingSignature  = "missing signature"
	ReasonInvalidTimestamp  = "invalid timestamp"
	ReasonTimestampOutRange = "timestamp out of range"
	ReasonSignatureMismatch = "signature mismatch"
)

// ErrMissingSecret means no signing secret was configured. It is a
// configuration fault, not a property of the request.
var ErrMissingSecret = errors.New("slack signing secret is not configured")

// VerifyError is returned when a request fails authentication.
type VerifyError struct {
	Reason string
}

func (e *VerifyError) Error() string { return "slack signature: " + e.Reason }

// IsVerifyError reports whether err is a request authentication failure and returns its reason.
func IsVerifyError(err error) (string, bool) {
	var ve *VerifyError
	if errors.As(err, &ve) {
		return ve.Reason, true
	}
	return "", false
}

// VerifyParams holds the inputs to Verify. Body must be the exact bytes received.
type VerifyParams struct {
	Secret    string
	Timestamp string
	Signature string
	Body      []byte
	Now       time.Time
}

// Verify checks the request signature and freshness.
func Verify(p VerifyParams) error {
	if p.Secret == "" {
		return ErrMissingSecret
	}
	if p.Timestamp == "" {
		return &VerifyError{Reason: ReasonMissingTimestamp}
	}
	if p.Signature == "" {
		return &VerifyError{Reason: ReasonMissingSignature}
	}

	ts, err := strconv.ParseFloat(strings.TrimSpace(p.Timestamp), 64)
	if err != nil || math.IsNaN(ts) || math.IsInf(ts, 0) {
		return &VerifyError{Reason: ReasonInvalidTimestamp}
	}
	if math.Abs(float64(p.Now.Unix())-ts) > MaxSkew.Seconds() {
		return &VerifyError{Reason: ReasonTimestampOutRange}
	}

	expected := Sign(p.Secret, p.Timestamp, p.Body)
	if len(expected) != len(p.Signature) ||
		subtle.ConstantTimeCompare([]byte(expected), []byte(p.Signature)) != 1 {
		return &VerifyError{Reason: ReasonSignatureMismatch}
	}
	return nil
}

// Sign returns the "v0=<hex>" signature for a timestamp and body.
func Sign(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(version + ":" + timestamp + ":"))
	mac.Write(body)
	return version + "=" + hex.EncodeToString(mac.Sum(nil))
}
