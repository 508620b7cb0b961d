package merge

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"consensus-bridge/internal/forum"
)

// Message renders err as a single line for the end user, e.g.
// "Merge failed: login required. Sign in first." Transport detail is logged,
// never returned.
func Message(action string, err error) string {
	if err == nil {
		return ""
	}
	prefix := action + " failed: "

	var orphan *OrphanJobError
	if errors.As(err, &orphan) {
		d := detail(orphan.Err)
		if !strings.HasSuffix(d, ".") {
			d += "."
		}
		return prefix + d + " Merge job " + orphan.JobID + " is still pending; apply it from the pending jobs list."
	}
	d := detail(err)
	return prefix + d + hint(err, d)
}

func detail(err error) string {
	var (
		validation *forum.ValidationError
		permission *forum.PermissionError
	)
	switch {
	case errors.As(err, &validation):
		return validation.Message
	case errors.As(err, &permission):
		return permission.Message
	case errors.Is(err, ErrParentNotFound):
		return ErrParentNotFound.Error()
	case errors.Is(err, ErrTopicNotFound):
		return ErrTopicNotFound.Error()
	case errors.Is(err, ErrReplyNotFound):
		return ErrReplyNotFound.Error()
	case errors.Is(err, forum.ErrTimeout):
		return forum.ErrTimeout.Error()
	}
	if apiErr, ok := forum.AsAPIError(err); ok {
		if apiErr.Err != nil {
			slog.Warn("merge: upstream failure", "status", apiErr.Status, "err", apiErr.Err)
		}
		return apiErr.Message
	}
	if errors.Is(err, forum.ErrUnexpectedPayload) {
		slog.Warn("merge: upstream payload", "err", err)
		return "unexpected response from the forum service"
	}
	slog.Warn("merge: request failed", "err", err)
	return "the forum service is unreachable"
}

func hint(err error, d string) string {
	if errors.Is(err, ErrLoginRequired) {
		return ". Sign in first."
	}
	if errors.Is(err, ErrParentNotFound) {
		return ". Create a category first."
	}
	var permission *forum.PermissionError
	if errors.As(err, &permission) {
		return "."
	}
	if apiErr, ok := forum.AsAPIError(err); ok {
		switch apiErr.Status {
		case http.StatusUnauthorized:
			return ". Sign in again."
		case http.StatusForbidden:
			return ". You do not have permission for this action."
		}
	}
	if strings.HasSuffix(d, ".") {
		return ""
	}
	return "."
}
