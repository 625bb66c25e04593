package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewAlwaysReturnsUsableLogger(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "not-a-level", ""} {
		l := New(level)
		assert.NotNil(t, l, "level %q", level)
		assert.NotPanics(t, func() { l.Infow("ok", "level", level) })
	}
}
