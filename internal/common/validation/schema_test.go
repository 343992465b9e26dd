package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_NotificationRequest(t *testing.T) {
	tests := []struct {
		name      string
		doc       map[string]interface{}
		wantValid bool
		wantField string
	}{
		{
			name:      "admin event",
			doc:       map[string]interface{}{"type": "new_request", "params": map[string]interface{}{"requestId": "r1"}},
			wantValid: true,
		},
		{
			name:      "user event",
			doc:       map[string]interface{}{"type": "date_proposed", "userId": "u1"},
			wantValid: true,
		},
		{
			name:      "missing type",
			doc:       map[string]interface{}{"userId": "u1"},
			wantValid: false,
			wantField: "(root)",
		},
		{
			name:      "unknown type",
			doc:       map[string]interface{}{"type": "birthday"},
			wantValid: false,
			wantField: "type",
		},
		{
			name:      "negative item count",
			doc:       map[string]interface{}{"type": "expiring_items", "params": map[string]interface{}{"itemCount": -1}},
			wantValid: false,
			wantField: "params.itemCount",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Validate(NotificationRequestSchema, tt.doc)
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, result.Valid)
			if !tt.wantValid {
				require.NotEmpty(t, result.Errors)
				assert.Equal(t, tt.wantField, result.Errors[0].Field)
				assert.Contains(t, result.Summary(), tt.wantField)
			}
		})
	}
}

func TestValidate_BadSchema(t *testing.T) {
	_, err := Validate(`{"type": 12}`, map[string]interface{}{})
	assert.Error(t, err)
}
