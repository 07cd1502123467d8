package alerts

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/slatedeck/slatedeck/internal/models"
)

const maxNameLength = 200

// ValidateName checks that an alert name is present and within limits.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("name is required")
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("name must be at most %d characters", maxNameLength)
	}
	return nil
}

// ValidateOperator parses and validates a threshold operator.
func ValidateOperator(s string) (models.Operator, error) {
	op := models.Operator(s)
	if !op.Valid() {
		return "", fmt.Errorf("invalid threshold operator: %q (expected less_than, greater_than or equal_to)", s)
	}
	return op, nil
}

// ValidateQuerySource checks that an alert has exactly one source to
// execute: a saved question reference or an embedded query.
func ValidateQuerySource(questionID, query string) error {
	hasQuestion := questionID != ""
	hasQuery := strings.TrimSpace(query) != ""
	if hasQuestion == hasQuery {
		return fmt.Errorf("exactly one of question_id or query is required")
	}
	return nil
}

// ValidateThreshold checks that a threshold value is non-negative.
func ValidateThreshold(v float64) error {
	if v < 0 {
		return fmt.Errorf("threshold_value must not be negative")
	}
	return nil
}

// ValidateWebhookURL checks that a webhook destination is an absolute
// http or https URL.
func ValidateWebhookURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("webhook_url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid webhook_url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("webhook_url must use http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("webhook_url must be an absolute URL")
	}
	return nil
}
