package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	method string
	path   string
	query  string
	body   map[string]any
}

func newTestServer(t *testing.T, status int, response string) (*httptest.Server, *[]recordedRequest) {
	t.Helper()

	var seen []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&rec.body)
		}
		seen = append(seen, rec)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "lon...", truncate("longerstring", 6))
	assert.Equal(t, "lo", truncate("longerstring", 2))
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printJSON(&buf, struct {
		A int `json:"a"`
	}{A: 1}))

	assert.Equal(t, "{\n  \"a\": 1\n}\n", buf.String())
}

func TestConsistencyCommand(t *testing.T) {
	srv, seen := newTestServer(t, http.StatusOK, `{"status":"consistent","consistent":true}`)

	out, err := execute(t, "--url", srv.URL, "ledger", "consistency")
	require.NoError(t, err)
	assert.Contains(t, out, "PASSED")
	assert.Equal(t, "/api/v1/ledger/consistency", (*seen)[0].path)

	srv, _ = newTestServer(t, http.StatusConflict, `{"status":"inconsistent","consistent":false,"message":"ledger is inconsistent"}`)
	_, err = execute(t, "--url", srv.URL, "ledger", "consistency")
	assert.ErrorContains(t, err, "FAILED")
}

func TestOwnerBalanceCommand(t *testing.T) {
	srv, seen := newTestServer(t, http.StatusOK, `{"owner":"branch:B1","entry_kind":"PAYABLE","balance":"400"}`)

	out, err := execute(t, "--url", srv.URL, "owner", "balance", "branch:B1", "--kind", "payable", "--as-of", "2024-06-30")
	require.NoError(t, err)
	assert.Contains(t, out, `"balance": "400"`)

	req := (*seen)[0]
	assert.Equal(t, "/api/v1/owners/branch:B1/balance", req.path)
	assert.Contains(t, req.query, "entry_kind=PAYABLE")
	assert.Contains(t, req.query, "as_of=2024-06-30")

	_, err = execute(t, "--url", srv.URL, "owner", "balance", "parish:9")
	assert.Error(t, err)
	assert.Len(t, *seen, 1, "invalid owners never reach the API")
}

func TestPeriodCloseCommand(t *testing.T) {
	srv, seen := newTestServer(t, http.StatusOK, `{"owner":"branch:B1","period":"2024-06","status":"CLOSED"}`)

	out, err := execute(t, "--url", srv.URL, "period", "close", "branch:B1", "2024", "6", "--actor", "treasurer")
	require.NoError(t, err)
	assert.Contains(t, out, `"status": "CLOSED"`)

	req := (*seen)[0]
	assert.Equal(t, http.MethodPost, req.method)
	assert.Equal(t, "/api/v1/periods/branch:B1/2024/6/close", req.path)
	assert.Equal(t, "treasurer", req.body["actor"])

	_, err = execute(t, "--url", srv.URL, "period", "close", "branch:B1", "2024", "6")
	assert.Error(t, err, "actor flag is required")

	_, err = execute(t, "--url", srv.URL, "period", "reopen", "branch:B1", "2024", "13", "--actor", "bishop")
	assert.Error(t, err)
	assert.Len(t, *seen, 1)
}

func TestPeriodCloseCommand_Conflict(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusConflict, `{"error":"failed to close period","message":"period already closed"}`)

	_, err := execute(t, "--url", srv.URL, "period", "close", "mission", "2024", "6", "--actor", "treasurer")
	assert.ErrorContains(t, err, "period already closed")
}
