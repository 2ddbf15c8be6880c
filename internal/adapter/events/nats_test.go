package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSubjectFor(t *testing.T) {
	assert.Equal(t, "payments.order.paid", subjectFor("payments", "order.paid"))
	assert.Equal(t, "order.paid", subjectFor("", "order.paid"))
}

func TestNewEnvelope(t *testing.T) {
	before := time.Now().UTC()

	env := newEnvelope("wallet.credited", map[string]any{"userId": "user_1"})

	assert.NotEmpty(t, env.ID)
	assert.Equal(t, "wallet.credited", env.Type)
	assert.False(t, env.Timestamp.Before(before))
	assert.NotNil(t, env.Data)

	other := newEnvelope("wallet.credited", nil)
	assert.NotEqual(t, env.ID, other.ID, "each envelope gets its own id")
}
