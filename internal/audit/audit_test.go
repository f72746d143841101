package audit

import (
	"context"
	"testing"

	"go.uber.org/zap"
)

func TestLogWithoutStore(t *testing.T) {
	logger := NewLogger(nil, zap.NewNop())
	logger.Log(context.Background(), "guild", "user", ActionWarn, "target", "details")
	logger.Punish(context.Background(), "guild", "user", "mod", ActionBan, "reason")
}

func TestActionTags(t *testing.T) {
	if ActionAutomodInvite == ActionAutomodPhrase {
		t.Fatalf("invite and phrase removals must be distinguishable")
	}
	if ActionAutomodInvite != "automod_invite" {
		t.Fatalf("unexpected invite tag: %s", ActionAutomodInvite)
	}
	if ActionAutomodPhrase != "automod_phrase" {
		t.Fatalf("unexpected phrase tag: %s", ActionAutomodPhrase)
	}
	if ActionKick != "kick" || ActionTimeoutRemoved != "timeout_removed" {
		t.Fatalf("unexpected moderation tags: %s, %s", ActionKick, ActionTimeoutRemoved)
	}
}
