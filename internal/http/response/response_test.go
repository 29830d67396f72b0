package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/examprep-backend/internal/platform/apierr"
)

func render(err error) (*httptest.ResponseRecorder, ErrorEnvelope) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	RespondError(c, err)
	var env ErrorEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec, env
}

func TestRespondErrorCarriesCodeAndKind(t *testing.T) {
	rec, env := render(apierr.Conflict(apierr.CodeSlugTaken, "identity.ValidateSlug", "slug is taken"))
	if rec.Code != http.StatusConflict {
		t.Fatalf("status: want=409 got=%d", rec.Code)
	}
	if env.Error.Code != apierr.CodeSlugTaken || env.Error.Kind != "conflict" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestRespondErrorHidesInternalMessages(t *testing.T) {
	rec, env := render(errors.New("pq: password authentication failed"))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status: want=500 got=%d", rec.Code)
	}
	if env.Error.Message != "internal error" {
		t.Fatalf("message leaked: %q", env.Error.Message)
	}
}
