package repository

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"academy_app_echo/internal/models"
)

func TestMarshalMetadataPatch(t *testing.T) {
	patch, err := marshalMetadataPatch(nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", patch, "empty patch must concat as a no-op")

	patch, err = marshalMetadataPatch(map[string]interface{}{
		models.MetaGatewayPaymentID: "ord-1",
		models.MetaStatusDetail:     "settlement",
	})
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(patch), &decoded))
	assert.Equal(t, "ord-1", decoded[models.MetaGatewayPaymentID])
	assert.Equal(t, "settlement", decoded[models.MetaStatusDetail])

	_, err = marshalMetadataPatch(map[string]interface{}{"bad": make(chan int)})
	assert.Error(t, err)
}

func TestMetadataPatchExpr(t *testing.T) {
	expr, err := metadataPatchExpr(map[string]interface{}{"k": "v"})
	require.NoError(t, err)
	assert.Equal(t, "COALESCE(metadata, '{}'::jsonb) || ?::jsonb", expr.SQL,
		"merge must happen inside the UPDATE, not read-then-write in Go")
	require.Len(t, expr.Vars, 1)
	assert.JSONEq(t, `{"k":"v"}`, expr.Vars[0].(string))
}

func TestFilterByEventRejectsInactive(t *testing.T) {
	subs := []models.WebhookSubscription{
		{ID: 1, Events: []string{"payment.succeeded"}, IsActive: true},
		{ID: 2, Events: []string{"payment.succeeded"}, IsActive: false},
		{ID: 3, Events: []string{"course.created"}, IsActive: true},
	}

	matched := FilterByEvent(subs, "payment.succeeded")
	require.Len(t, matched, 1)
	assert.Equal(t, uint(1), matched[0].ID)
}
