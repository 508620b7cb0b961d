package merge

import (
	"errors"
	"fmt"
	"testing"

	"consensus-bridge/internal/forum"
)

func TestMessage(t *testing.T) {
	tests := []struct {
		action string
		err    error
		want   string
	}{
		{"Merge", ErrLoginRequired, "Merge failed: login required. Sign in first."},
		{"Merge", &forum.PermissionError{Message: "only moderators/topic wiki editors can quick-merge"}, "Merge failed: only moderators/topic wiki editors can quick-merge."},
		{"Vote", &forum.APIError{Status: 401, Message: "token expired"}, "Vote failed: token expired. Sign in again."},
		{"Vote", &forum.APIError{Status: 403, Message: "forbidden"}, "Vote failed: forbidden. You do not have permission for this action."},
		{"Merge", fmt.Errorf("gather: %w", ErrReplyNotFound), "Merge failed: reply not found."},
		{"Apply", &forum.APIError{Status: 504, Message: "API timeout", Err: forum.ErrTimeout}, "Apply failed: API timeout."},
		{"Apply", fmt.Errorf("decode: %w", forum.ErrUnexpectedPayload), "Apply failed: unexpected response from the forum service."},
		{"Apply", errors.New("dial tcp 10.0.0.1:9080: connection refused"), "Apply failed: the forum service is unreachable."},
		{"Apply", fmt.Errorf("GET /x: %w: %w", forum.ErrTransport, errors.New("unexpected EOF")), "Apply failed: the forum service is unreachable."},
		{"Merge", &OrphanJobError{JobID: "j1", Err: &forum.APIError{Status: 500, Message: "wiki locked."}}, "Merge failed: wiki locked. Merge job j1 is still pending; apply it from the pending jobs list."},
		{"Merge", &OrphanJobError{JobID: "j2", Err: &forum.APIError{Status: 500, Message: "wiki locked"}}, "Merge failed: wiki locked. Merge job j2 is still pending; apply it from the pending jobs list."},
	}
	for _, tt := range tests {
		if got := Message(tt.action, tt.err); got != tt.want {
			t.Errorf("Message(%q, %v) = %q, want %q", tt.action, tt.err, got, tt.want)
		}
	}
	if got := Message("Merge", nil); got != "" {
		t.Errorf("Message(nil) = %q", got)
	}
}
