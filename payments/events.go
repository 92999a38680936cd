package payments

import "encoding/json"

// Processor event names this system reconciles. Anything else is acknowledged
// and ignored.
const (
	EventPaymentIntentSucceeded = "payment_intent.succeeded"
	EventPaymentIntentFailed    = "payment_intent.payment_failed"
	EventChargeRefunded         = "charge.refunded"
)

// Event is the envelope the processor posts to the webhook endpoint.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// IntentEventObject is the payment_intent payload inside intent events.
type IntentEventObject struct {
	ID               string `json:"id"`
	Amount           int64  `json:"amount"`
	LatestCharge     string `json:"latest_charge"`
	LastPaymentError *struct {
		Message string `json:"message"`
	} `json:"last_payment_error"`
}

// ChargeEventObject is the charge payload inside charge.refunded events.
type ChargeEventObject struct {
	ID             string `json:"id"`
	PaymentIntent  string `json:"payment_intent"`
	AmountRefunded int64  `json:"amount_refunded"`
}
