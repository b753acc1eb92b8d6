package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SignatureHeader is the HTTP header carrying the provider signature.
const SignatureHeader = "Payment-Signature"

// DefaultTolerance bounds how far a signed timestamp may drift from now
// before the notification is rejected as a possible replay.
const DefaultTolerance = 5 * time.Minute

// ErrUnauthenticated is returned for any signature failure: missing or
// malformed header, digest mismatch, or a timestamp outside the tolerance
// window. Callers must not run business logic after receiving it.
var ErrUnauthenticated = errors.New("webhook authentication failed")

// Authenticator verifies inbound notifications against the shared secret
// before they are parsed. The digest covers the exact raw bytes that were
// signed, so a re-encoded body does not verify.
type Authenticator struct {
	secret    []byte
	tolerance time.Duration
	now       func() time.Time
}

// NewAuthenticator builds an Authenticator for the given shared secret.
// A non-positive tolerance falls back to DefaultTolerance.
func NewAuthenticator(secret string, tolerance time.Duration) *Authenticator {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Authenticator{
		secret:    []byte(secret),
		tolerance: tolerance,
		now:       time.Now,
	}
}

// Authenticate recomputes the keyed digest over the signed timestamp and the
// raw body, compares it in constant time, and only then decodes the payload.
// Any failure is terminal for the request and never for the process.
func (a *Authenticator) Authenticate(rawBody []byte, header string) (*Event, error) {
	ts, sig, err := parseSignatureHeader(header)
	if err != nil {
		return nil, err
	}

	signedAt := time.Unix(ts, 0)
	drift := a.now().Sub(signedAt)
	if drift < 0 {
		drift = -drift
	}
	if drift > a.tolerance {
		return nil, fmt.Errorf("%w: timestamp outside tolerance", ErrUnauthenticated)
	}

	expected := computeSignature(a.secret, ts, rawBody)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(sig)) != 1 {
		return nil, fmt.Errorf("%w: signature mismatch", ErrUnauthenticated)
	}

	return DecodeEvent(rawBody)
}

// Sign produces a signature header value for the payload at the given time.
// The fake provider and tests use it to produce deliveries that verify.
func Sign(secret string, signedAt time.Time, payload []byte) string {
	ts := signedAt.Unix()
	return fmt.Sprintf("t=%d,v1=%s", ts, computeSignature([]byte(secret), ts, payload))
}

// parseSignatureHeader splits "t=<unix>,v1=<hex>" into its parts. Unknown
// elements are ignored so providers can add schemes without breaking us.
func parseSignatureHeader(header string) (ts int64, sig string, err error) {
	if strings.TrimSpace(header) == "" {
		return 0, "", fmt.Errorf("%w: missing signature header", ErrUnauthenticated)
	}

	var haveTS bool
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			parsed, perr := strconv.ParseInt(value, 10, 64)
			if perr != nil {
				return 0, "", fmt.Errorf("%w: invalid timestamp", ErrUnauthenticated)
			}
			ts = parsed
			haveTS = true
		case "v1":
			sig = value
		}
	}

	if !haveTS || sig == "" {
		return 0, "", fmt.Errorf("%w: malformed signature header", ErrUnauthenticated)
	}
	return ts, sig, nil
}

func computeSignature(secret []byte, ts int64, payload []byte) string {
	mac := hmac.New(sha256.New, secret)
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
