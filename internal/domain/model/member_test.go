package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContactState_UnmarshalText(t *testing.T) {
	var s ContactState
	assert.NoError(t, s.UnmarshalText([]byte(" Closed ")))
	assert.Equal(t, ContactStateClosed, s)
	assert.Error(t, s.UnmarshalText([]byte("archived")))
}

func TestCreateOutboundMessageRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateOutboundMessageRequest
		wantErr string
	}{
		{"ok", CreateOutboundMessageRequest{MemberID: "m1", Body: "hello"}, ""},
		{"missing member", CreateOutboundMessageRequest{Body: "hello"}, "member_id is required"},
		{"blank body", CreateOutboundMessageRequest{MemberID: "m1", Body: "   "}, "body is required"},
		{"too long", CreateOutboundMessageRequest{MemberID: "m1", Body: strings.Repeat("a", 4001)}, "exceeds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestCronRunStatus(t *testing.T) {
	assert.True(t, CronRunStatusSuccess.Terminal())
	assert.False(t, CronRunStatusStarted.Terminal())
	var s CronRunStatus
	assert.Error(t, s.UnmarshalText([]byte("done")))
}
