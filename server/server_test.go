package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/eac/internal/config"
)

func testServer(t *testing.T) (*Server, string) {
	t.Helper()
	hash, err := HashAPIKey("s3cret")
	require.NoError(t, err)
	srv := New(config.Default(), nil, []byte("test-signing-secret"), []APIKey{{Name: "ci", Hash: hash}})
	srv.UnauthDelay = 0
	return srv, hash
}

func doJSON(t *testing.T, srv *Server, method, path string, body interface{}, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func Test_CreateToken_validKey(t *testing.T) {
	srv, _ := testServer(t)
	rec := doJSON(t, srv, http.MethodPost, "/v1/tokens", tokenRequest{APIKey: "s3cret"}, "")
	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp tokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
}

func Test_CreateToken_badKey(t *testing.T) {
	srv, _ := testServer(t)
	rec := doJSON(t, srv, http.MethodPost, "/v1/tokens", tokenRequest{APIKey: "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func Test_Compile_requiresAuth(t *testing.T) {
	srv, _ := testServer(t)
	rec := doJSON(t, srv, http.MethodPost, "/v1/compile", compileRequest{Source: "func main() -> i32 { return 0; }"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func Test_Compile_successWithToken(t *testing.T) {
	srv, _ := testServer(t)
	tokRec := doJSON(t, srv, http.MethodPost, "/v1/tokens", tokenRequest{APIKey: "s3cret"}, "")
	require.Equal(t, http.StatusCreated, tokRec.Code)
	var tokResp tokenResponse
	require.NoError(t, json.Unmarshal(tokRec.Body.Bytes(), &tokResp))

	rec := doJSON(t, srv, http.MethodPost, "/v1/compile", compileRequest{Source: "func main() -> i32 { return 0; }"}, tokResp.Token)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp compileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Diagnostics)
	assert.Contains(t, resp.IR, "define")
}

func Test_Compile_reportsDiagnosticsOnBadSource(t *testing.T) {
	srv, _ := testServer(t)
	tokRec := doJSON(t, srv, http.MethodPost, "/v1/tokens", tokenRequest{APIKey: "s3cret"}, "")
	var tokResp tokenResponse
	require.NoError(t, json.Unmarshal(tokRec.Body.Bytes(), &tokResp))

	rec := doJSON(t, srv, http.MethodPost, "/v1/compile", compileRequest{Source: "func main( -> i32 { return 0; }"}, tokResp.Token)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp compileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Diagnostics)
}
