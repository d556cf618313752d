package utils

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"recipehub/media"
	"recipehub/store"
	"recipehub/validation"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondWithError(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondWithError(rec, http.StatusNotFound, "Recipe not found")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":false,"message":"Recipe not found"}`, rec.Body.String())
}

func TestRespondOK(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondOK(rec, M{"count": 3})
	assert.JSONEq(t, `{"status":true,"count":3}`, rec.Body.String())
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"soup"}`))
	require.NoError(t, DecodeJSON(httptest.NewRecorder(), r, &dst))
	assert.Equal(t, "soup", dst.Name)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	assert.Error(t, DecodeJSON(httptest.NewRecorder(), r, &dst))

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))
	assert.Error(t, DecodeJSON(httptest.NewRecorder(), r, &dst))
}

func TestParseObjectID(t *testing.T) {
	_, err := ParseObjectID("nope")
	assert.ErrorIs(t, err, ErrBadID)

	id, err := ParseObjectID(" 64b7f0c2a1b2c3d4e5f60718 ")
	require.NoError(t, err)
	assert.Equal(t, "64b7f0c2a1b2c3d4e5f60718", id.Hex())
}

func TestStringList(t *testing.T) {
	var body struct {
		Categories StringList `json:"categories"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"categories":["vegan","quick"]}`), &body))
	assert.Equal(t, StringList{"vegan", "quick"}, body.Categories)

	require.NoError(t, json.Unmarshal([]byte(`{"categories":"vegan, quick"}`), &body))
	assert.Equal(t, StringList{"vegan", "quick"}, body.Categories)

	assert.Error(t, json.Unmarshal([]byte(`{"categories":5}`), &body))
}

func TestRespondWithErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"validation", &validation.Error{Fields: []validation.FieldError{{Field: "title", Tag: "required"}}}, http.StatusBadRequest, "title is required"},
		{"bad id", fmt.Errorf("parse: %w", ErrBadID), http.StatusBadRequest, "Invalid id"},
		{"not found", store.ErrNotFound, http.StatusNotFound, "Recipe not found"},
		{"no file", media.ErrNoFile, http.StatusBadRequest, "No file uploaded"},
		{"too big", media.ErrTooBig, http.StatusRequestEntityTooLarge, "File too large"},
		{"upload", fmt.Errorf("%w: timeout", media.ErrUpload), http.StatusBadGateway, "Failed to upload image"},
		{"other", errors.New("boom"), http.StatusInternalServerError, "An error occurred"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			RespondWithErr(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err, "Recipe not found")
			assert.Equal(t, tt.code, rec.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, false, body["status"])
			assert.Equal(t, tt.msg, body["message"])
		})
	}
}
