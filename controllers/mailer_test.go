package controllers

import (
	"strings"
	"testing"
)

func TestSendResetMail_DevModeWithoutSMTP(t *testing.T) {
	t.Setenv("SMTP_HOST", "")
	t.Setenv("SMTP_USERNAME", "")
	t.Setenv("SMTP_FROM", "")

	sent, err := sendResetMail("mario@laba.edu", "http://localhost/reset-password?token=x")
	if err != nil {
		t.Fatalf("err = %v, want nil", err)
	}
	if sent {
		t.Fatal("sent = true without SMTP config, want false")
	}
}

func TestBuildMIMEWithFromName(t *testing.T) {
	msg := buildMIMEWithFromName("Equipment Lending", "no-reply@laba.edu",
		"mario@laba.edu", "Password Reset", "<p>hi</p>")

	for _, want := range []string{
		"From: Equipment Lending <no-reply@laba.edu>",
		"To: mario@laba.edu",
		"Subject: Password Reset",
		"Content-Type: text/html; charset=UTF-8",
		"\r\n\r\n<p>hi</p>",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message missing %q:\n%s", want, msg)
		}
	}
}
