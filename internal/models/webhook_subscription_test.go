package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubscribes(t *testing.T) {
	sub := WebhookSubscription{Events: []string{"payment.succeeded", "course.created"}}

	assert.True(t, sub.Subscribes("payment.succeeded"))
	assert.True(t, sub.Subscribes("course.created"))
	assert.False(t, sub.Subscribes("payment.failed"))
	assert.False(t, sub.Subscribes(""))

	empty := WebhookSubscription{}
	assert.False(t, empty.Subscribes("payment.succeeded"))
}
