package models

import "time"

// AlertLog is an immutable audit record of one alert evaluation that
// triggered. WebhookStatus is nil when the webhook call itself could not
// be completed; the failure reason is then recorded in WebhookBody.
type AlertLog struct {
	ID             string    `json:"id"`
	AlertID        string    `json:"alert_id"`
	ThresholdValue float64   `json:"threshold_value"`
	ActualValue    float64   `json:"actual_value"`
	WebhookStatus  *int      `json:"webhook_response_status"`
	WebhookBody    string    `json:"webhook_response_body,omitempty"`
	TriggeredAt    time.Time `json:"triggered_at"`
}
