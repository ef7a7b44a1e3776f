package domain

import (
	"strings"
	"testing"
	"time"
)

func TestRole_IsValid(t *testing.T) {
	if !RoleUser.IsValid() || !RoleAssistant.IsValid() {
		t.Error("expected user and assistant to be valid")
	}
	if Role("system").IsValid() {
		t.Error("expected system to be invalid")
	}
}

func TestConversationTurn_Format(t *testing.T) {
	turn := NewTurn(RoleUser, "What is the refund policy?")
	if got := turn.Format(); got != "user: What is the refund policy?" {
		t.Errorf("unexpected format %q", got)
	}
	if turn.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
}

func TestStoredMessage_Turn(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	msg := &StoredMessage{Role: RoleAssistant, Content: "hello", CreatedAt: created}

	turn := msg.Turn()
	if turn.Role != RoleAssistant || turn.Content != "hello" || !turn.Timestamp.Equal(created) {
		t.Errorf("unexpected turn %+v", turn)
	}
}

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", "Refund Policy Questions", "Refund Policy Questions"},
		{"quoted", `  "Quarterly Revenue Review"  `, "Quarterly Revenue Review"},
		{"single quoted", "'Travel Budget'", "Travel Budget"},
		{"exactly fifty", strings.Repeat("a", 50), strings.Repeat("a", 50)},
		{"too long", strings.Repeat("b", 60), strings.Repeat("b", 47) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanTitle(tt.raw); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
