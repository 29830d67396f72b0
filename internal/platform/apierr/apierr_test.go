package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusByKind(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Authentication(CodeInvalidToken, "op", "bad"), http.StatusUnauthorized},
		{Authorization(CodeDeviceNotAllowed, "op", "no"), http.StatusForbidden},
		{NotFound(CodeProfileMissing, "op", "missing"), http.StatusNotFound},
		{Conflict(CodeSlugTaken, "op", "taken"), http.StatusConflict},
		{Validation(CodeFeedbackRequired, "op", "empty"), http.StatusBadRequest},
		{Unavailable(CodeStoreUnavailable, "op", errors.New("down")), http.StatusServiceUnavailable},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Fatalf("%v: want=%d got=%d", tc.err, tc.want, got)
		}
	}
}

func TestCodeSurvivesWrapping(t *testing.T) {
	base := Conflict(CodeIllegalTransition, "workflow.apply", "draft -> published")
	wrapped := fmt.Errorf("transition: %w", base)
	if !IsCode(wrapped, CodeIllegalTransition) {
		t.Fatalf("code lost through wrapping: %v", CodeOf(wrapped))
	}
	if KindOf(wrapped) != KindConflict {
		t.Fatalf("kind: want=%s got=%s", KindConflict, KindOf(wrapped))
	}
}

func TestErrorMessageIncludesOp(t *testing.T) {
	err := NotFound(CodeSessionNotFound, "session.validate", "")
	if err.Error() != "session.validate: session_not_found" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(KindInternal, CodeInternal, "op", nil) != nil {
		t.Fatalf("Wrap(nil) should stay nil")
	}
	if CodeOf(nil) != "" {
		t.Fatalf("CodeOf(nil) should be empty")
	}
}
