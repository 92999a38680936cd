package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Webhook signature scheme: the processor sends a header of the form
// "t=<unix>,v1=<hex hmac>" where the HMAC-SHA256 is computed over
// "<unix>.<raw body>" with the endpoint's shared secret. Verification must
// happen on the raw body before any event parsing.

var ErrInvalidSignature = errors.New("invalid webhook signature")

const signatureTolerance = 5 * time.Minute

// VerifySignature checks the signature header against the raw payload.
// A stale timestamp outside the tolerance window is rejected to limit replay.
func VerifySignature(payload []byte, header, secret string) error {
	timestamp, signatures, err := parseSignatureHeader(header)
	if err != nil {
		return err
	}

	if d := time.Since(time.Unix(timestamp, 0)); d > signatureTolerance || d < -signatureTolerance {
		return ErrInvalidSignature
	}

	expected := computeSignature(payload, secret, timestamp)
	for _, sig := range signatures {
		decoded, err := hex.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(decoded, expected) {
			return nil
		}
	}
	return ErrInvalidSignature
}

// BuildSignatureHeader produces a header the verifier accepts. The processor
// does this on its side; it also keeps webhook tests honest.
func BuildSignatureHeader(payload []byte, secret string, at time.Time) string {
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(computeSignature(payload, secret, at.Unix())))
}

func computeSignature(payload []byte, secret string, timestamp int64) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(payload)
	return mac.Sum(nil)
}

func parseSignatureHeader(header string) (int64, []string, error) {
	var timestamp int64 = -1
	var signatures []string

	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			ts, err := strconv.ParseInt(kv[1], 10, 64)
			if err != nil {
				return 0, nil, ErrInvalidSignature
			}
			timestamp = ts
		case "v1":
			signatures = append(signatures, kv[1])
		}
	}

	if timestamp < 0 || len(signatures) == 0 {
		return 0, nil, ErrInvalidSignature
	}
	return timestamp, signatures, nil
}
