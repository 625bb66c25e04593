package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"academy_app_echo/internal/config"
)

func TestEmailServiceConfigured(t *testing.T) {
	assert.False(t, NewEmailService(config.SMTPConfig{}).Configured())
	assert.False(t, NewEmailService(config.SMTPConfig{Host: "smtp.example.com", Port: "587"}).Configured())
	assert.True(t, NewEmailService(config.SMTPConfig{
		Host: "smtp.example.com", Port: "587", User: "mailer", Password: "secret",
	}).Configured())
}

func TestSendEmailUnconfigured(t *testing.T) {
	svc := NewEmailService(config.SMTPConfig{})
	assert.Error(t, svc.SendEmail([]string{"user@example.com"}, "subject", "body"))
}

func TestBuildMessage(t *testing.T) {
	msg := string(buildMessage("noreply@example.com", []string{"a@example.com", "b@example.com"}, "Welcome", "Hi there"))

	assert.Equal(t,
		"From: noreply@example.com\r\n"+
			"To: a@example.com, b@example.com\r\n"+
			"Subject: Welcome\r\n"+
			"\r\n"+
			"Hi there\r\n",
		msg)
}
