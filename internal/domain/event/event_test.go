package event

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestType_IsValid(t *testing.T) {
	tests := []struct {
		eventType Type
		want      bool
	}{
		{TypeSnapshotReconciled, true},
		{TypeReportRecorded, true},
		{TypeReferenceInvalidated, true},
		{TypeReferenceRefreshFailed, true},
		{Type("instance.created"), false},
		{Type(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.eventType.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.eventType.IsValid())
		})
	}
}

func TestNewEvent(t *testing.T) {
	evt := NewEvent(TypeReportRecorded, "report-1", map[string]interface{}{"buckets": 17})

	assert.NotEmpty(t, evt.ID)
	assert.Equal(t, evt.ID, evt.CorrelationID)
	assert.Equal(t, "report-1", evt.Subject)
	assert.False(t, evt.Timestamp.IsZero())

	other := NewEvent(TypeReportRecorded, "report-2", nil)
	assert.NotEqual(t, evt.ID, other.ID)
}

func TestEvent_Follow(t *testing.T) {
	root := NewEvent(TypeReferenceInvalidated, "homeowners", nil)
	child := root.Follow(TypeReferenceRefreshFailed, "homeowners", map[string]interface{}{"error": "boom"})

	assert.NotEqual(t, root.ID, child.ID)
	assert.Equal(t, root.CorrelationID, child.CorrelationID)
	assert.Equal(t, "boom", child.GetPayloadString("error"))
}

func TestEvent_WithPayloadIsImmutable(t *testing.T) {
	original := NewEvent(TypeSnapshotReconciled, "", map[string]interface{}{"a": 1})
	updated := original.WithPayload("b", true)

	assert.NotContains(t, original.Payload, "b")
	assert.True(t, updated.GetPayloadBool("b"))
	assert.Equal(t, int64(1), updated.GetPayloadInt("a"))
	assert.Equal(t, original.ID, updated.ID)
}

func TestEvent_PayloadAccessors(t *testing.T) {
	evt := NewEvent(TypeSnapshotReconciled, "", map[string]interface{}{
		"name":    "x",
		"int":     7,
		"int64":   int64(8),
		"float":   9.0,
		"flag":    true,
		"notbool": "true",
	})

	assert.Equal(t, "x", evt.GetPayloadString("name"))
	assert.Equal(t, "", evt.GetPayloadString("int"))
	assert.Equal(t, int64(7), evt.GetPayloadInt("int"))
	assert.Equal(t, int64(8), evt.GetPayloadInt("int64"))
	assert.Equal(t, int64(9), evt.GetPayloadInt("float"))
	assert.Equal(t, int64(0), evt.GetPayloadInt("missing"))
	assert.True(t, evt.GetPayloadBool("flag"))
	assert.False(t, evt.GetPayloadBool("notbool"))
}

func TestEvent_JSONRoundTripKeepsIntegers(t *testing.T) {
	evt := NewEvent(TypeReportRecorded, "r", map[string]interface{}{"total_cents": int64(12345)})
	b, err := json.Marshal(evt)
	require.NoError(t, err)

	var decoded Event
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, int64(12345), decoded.GetPayloadInt("total_cents"))
	assert.Equal(t, TypeReportRecorded, decoded.Type)
}
