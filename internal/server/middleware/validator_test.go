package middleware

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatorSessionID(t *testing.T) {
	type request struct {
		SessionID string `header:"X-Session-ID" validate:"required,session_id"`
	}
	v := NewValidator()

	valid := []string{"s-1", "b1946ac9-2f0c-4d8e-9a39-1d2c6e1f0a77", "A.b_C", strings.Repeat("x", 128)}
	for _, id := range valid {
		assert.NoError(t, v.Validate(&request{SessionID: id}), id)
		assert.True(t, ValidSessionID(id), id)
	}

	invalid := []string{"", "has space", "slash/id", "émoji", strings.Repeat("x", 129)}
	for _, id := range invalid {
		assert.False(t, ValidSessionID(id), id)
		err := v.Validate(&request{SessionID: id})
		if assert.Error(t, err, id) {
			// field names come from the binding tag
			assert.Contains(t, err.Error(), "X-Session-ID")
		}
	}
}
