package gmailclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildMessage(t *testing.T) {
	msg := string(BuildMessage("board@example.com", "alice@example.com", "Your placement", "You are in Tango"))

	assert.Equal(t, "From: board@example.com\r\n"+
		"To: alice@example.com\r\n"+
		"Subject: Your placement\r\n"+
		"MIME-Version: 1.0\r\n"+
		"Content-Type: text/plain; charset=\"UTF-8\"\r\n"+
		"\r\n"+
		"You are in Tango", msg)
}

func TestBuildMessage_NoSenderEncodedSubject(t *testing.T) {
	msg := string(BuildMessage("", "alice@example.com", "Café Tango", "body"))

	assert.NotContains(t, msg, "From:")
	assert.Contains(t, msg, "Subject: =?utf-8?q?Caf=C3=A9_Tango?=\r\n")
}
