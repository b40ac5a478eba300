package dto

// PaymentWebhook is the envelope the payment provider posts to us.
type PaymentWebhook struct {
	Event PaymentEvent `json:"event"`
}

// PaymentEvent describes a billing outcome for one subscription.
// CHARGE_FAILED is the only type the engine acts on; everything else
// is acknowledged and dropped.
type PaymentEvent struct {
	Type             string `json:"type"`
	SubscriptionUUID string `json:"subscription_uuid"`
	PlanUUID         string `json:"plan_uuid"`
	OccurredAtMs     int64  `json:"occurred_at_ms"`
}
