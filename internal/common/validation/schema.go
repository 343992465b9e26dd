package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// NotificationRequestSchema describes the body accepted by the manual
// notification trigger and the send-push-notification job.
const NotificationRequestSchema = `{
  "type": "object",
  "required": ["type"],
  "properties": {
    "type": {
      "type": "string",
      "enum": [
        "new_application", "new_request",
        "application_accepted", "application_rejected",
        "request_accepted", "request_rejected",
        "date_proposed", "date_accepted",
        "pickup_reminder", "expiring_items"
      ]
    },
    "userId": {"type": "string"},
    "params": {
      "type": "object",
      "properties": {
        "itemCount":     {"type": "integer", "minimum": 0},
        "thresholdDays": {"type": "integer", "minimum": 1},
        "requestId":     {"type": "string"},
        "applicationId": {"type": "string"},
        "proposedDate":  {"type": "string"},
        "badge":         {"type": "integer", "minimum": 0}
      }
    }
  }
}`

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Validate checks document (any JSON-marshalable Go value) against schema.
// An error is returned only when the schema itself is unusable.
func Validate(schema string, document interface{}) (*ValidationResult, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewGoLoader(document),
	)
	if err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, re := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   re.Field(),
			Message: re.Description(),
			Code:    strings.ToUpper(re.Type()),
		})
	}
	return out, nil
}

// Summary joins the errors into one line for logs and error details.
func (r *ValidationResult) Summary() string {
	parts := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return strings.Join(parts, "; ")
}
