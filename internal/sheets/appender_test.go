package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAppender_RequiresCredentials(t *testing.T) {
	_, err := NewAppender(context.Background(), AppenderConfig{SpreadsheetID: "x"}, nil)
	require.ErrorIs(t, err, ErrNoCredentials)
}

func TestAppender_Append(t *testing.T) {
	var got struct {
		Values [][]string `json:"values"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasPrefix(r.URL.Path, "/v4/spreadsheets/sheet-id/values/"), r.URL.Path)
		assert.True(t, strings.HasSuffix(r.URL.Path, ":append"), r.URL.Path)
		assert.Contains(t, r.URL.Path, "Cobranza")
		assert.Equal(t, "USER_ENTERED", r.URL.Query().Get("valueInputOption"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"spreadsheetId":"sheet-id","updates":{"updatedRange":"Cobranza!A2:F2","updatedRows":1}}`))
	}))
	defer srv.Close()

	a, err := NewAppender(context.Background(), AppenderConfig{
		SpreadsheetID: "sheet-id",
		APIKey:        "test-key",
		Endpoint:      srv.URL + "/",
	}, nil)
	require.NoError(t, err)

	err = a.Append(context.Background(), "Cobranza", []string{"P1", "C1", "115.00"})
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"P1", "C1", "115.00"}}, got.Values)
}

func TestAppender_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"denied"}}`))
	}))
	defer srv.Close()

	a, err := NewAppender(context.Background(), AppenderConfig{
		SpreadsheetID: "sheet-id",
		AccessToken:   "token",
		Endpoint:      srv.URL + "/",
	}, nil)
	require.NoError(t, err)

	err = a.Append(context.Background(), "Clientes", []string{"x"})
	require.ErrorIs(t, err, ErrNetworkFailure)

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, http.StatusForbidden, netErr.StatusCode)
}
