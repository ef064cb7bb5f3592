package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/boardsync/pkg/errors"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type webhookBody struct {
	ModelID string `json:"model_id" validate:"required,trello_id"`
	Mode    string `json:"mode" validate:"omitempty,oneof=single multi"`
}

func TestDecodeJSONBodyValidatesFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"model_id":"nope","mode":"both"}`))
	var body webhookBody
	err := DecodeJSONBody(req, &body)
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "must be a board service id", details["model_id"])
	assert.Equal(t, "must be one of single multi", details["mode"])
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"model_id":"5f1b2c3d4e5f6a7b8c9d0e1f","extra":1}`))
	var body webhookBody
	assert.True(t, pkgerrors.IsCode(DecodeJSONBody(req, &body), pkgerrors.CodeValidation))
}

func TestDecodeJSONBodyAcceptsValidPayload(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"model_id":"5f1b2c3d4e5f6a7b8c9d0e1f"}`))
	var body webhookBody
	require.NoError(t, DecodeJSONBody(req, &body))
	assert.Equal(t, "5f1b2c3d4e5f6a7b8c9d0e1f", body.ModelID)
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=30&bad=x&big=900", nil)

	got, err := ParseQueryInt(req, "limit", 25, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 30, got)

	got, err = ParseQueryInt(req, "missing", 25, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 25, got)

	_, err = ParseQueryInt(req, "bad", 25, 1, 100)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = ParseQueryInt(req, "big", 25, 1, 100)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestPathID(t *testing.T) {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("boardId", " abc ")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	got, err := PathID(req, "boardId")
	require.NoError(t, err)
	assert.Equal(t, "abc", got)

	_, err = PathID(req, "cardId")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "hello", SanitizeString("  hello  ", 0))
	assert.Equal(t, "hel", SanitizeString("hello", 3))
}
