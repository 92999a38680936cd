package payments

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const testWebhookSecret = "whsec_test_secret"

func TestVerifySignatureRoundTrip(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded"}`)
	header := BuildSignatureHeader(payload, testWebhookSecret, time.Now())

	assert.NoError(t, VerifySignature(payload, header, testWebhookSecret))
}

func TestVerifySignatureRejectsTamperedPayload(t *testing.T) {
	payload := []byte(`{"id":"evt_1","amount":1000}`)
	header := BuildSignatureHeader(payload, testWebhookSecret, time.Now())

	tampered := []byte(`{"id":"evt_1","amount":999999}`)
	assert.ErrorIs(t, VerifySignature(tampered, header, testWebhookSecret), ErrInvalidSignature)
}

func TestVerifySignatureRejectsWrongSecret(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	header := BuildSignatureHeader(payload, "whsec_other", time.Now())

	assert.ErrorIs(t, VerifySignature(payload, header, testWebhookSecret), ErrInvalidSignature)
}

func TestVerifySignatureRejectsStaleTimestamp(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	header := BuildSignatureHeader(payload, testWebhookSecret, time.Now().Add(-10*time.Minute))

	assert.ErrorIs(t, VerifySignature(payload, header, testWebhookSecret), ErrInvalidSignature)
}

func TestVerifySignatureRejectsMalformedHeaders(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)

	headers := []string{
		"",
		"garbage",
		"t=abc,v1=deadbeef",
		"v1=deadbeef",
		"t=1700000000",
	}
	for _, header := range headers {
		assert.ErrorIs(t, VerifySignature(payload, header, testWebhookSecret), ErrInvalidSignature, "header %q", header)
	}
}

func TestVerifySignatureAcceptsExtraSignatures(t *testing.T) {
	// Processors include older scheme signatures alongside v1; any matching v1
	// entry is enough.
	payload := []byte(`{"id":"evt_1"}`)
	valid := BuildSignatureHeader(payload, testWebhookSecret, time.Now())
	header := valid + ",v1=0000000000000000000000000000000000000000000000000000000000000000"

	assert.NoError(t, VerifySignature(payload, header, testWebhookSecret))
}
