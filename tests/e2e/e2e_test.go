//go:build e2e

// Package e2e exercises a running moderation API server over HTTP.
//
// Required environment:
//
//	E2E_API_URL      base URL of the server (e.g. http://localhost:8080)
//	E2E_ADMIN_TOKEN  the bootstrap admin token the server was started with
//
// Run with: go test -tags e2e ./tests/e2e/
package e2e

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func apiURL(t *testing.T) string {
	t.Helper()
	url := os.Getenv("E2E_API_URL")
	if url == "" {
		t.Skip("E2E_API_URL not set")
	}
	return strings.TrimRight(url, "/")
}

func adminToken(t *testing.T) string {
	t.Helper()
	token := os.Getenv("E2E_ADMIN_TOKEN")
	if token == "" {
		t.Skip("E2E_ADMIN_TOKEN not set")
	}
	return token
}

func request(t *testing.T, method, path, token string, body io.Reader, contentType string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, apiURL(t)+path, body)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

// createToken issues a token through the admin API and registers cleanup.
func createToken(t *testing.T, isAdmin bool) string {
	t.Helper()
	body := `{"isAdmin": false}`
	if isAdmin {
		body = `{"isAdmin": true}`
	}
	resp := request(t, http.MethodPost, "/auth/tokens", adminToken(t),
		strings.NewReader(body), "application/json")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		Token string `json:"token"`
	}
	decodeJSON(t, resp, &created)
	require.NotEmpty(t, created.Token)

	t.Cleanup(func() {
		resp := request(t, http.MethodDelete, "/auth/tokens/"+created.Token, adminToken(t), nil, "")
		resp.Body.Close()
	})
	return created.Token
}

func pngMultipart(t *testing.T, field string, count int) (io.Reader, string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 3, 3))
	img.Set(1, 1, color.RGBA{G: 200, A: 255})
	var imgBuf bytes.Buffer
	require.NoError(t, png.Encode(&imgBuf, img))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for i := 0; i < count; i++ {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", `form-data; name="`+field+`"; filename="e2e.png"`)
		hdr.Set("Content-Type", "image/png")
		part, err := mw.CreatePart(hdr)
		require.NoError(t, err)
		_, err = part.Write(imgBuf.Bytes())
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestE2E_Health(t *testing.T) {
	resp := request(t, http.MethodGet, "/health", "", nil, "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestE2E_TokenLifecycle(t *testing.T) {
	// Create a user token
	token := createToken(t, false)

	// It appears in the listing
	resp := request(t, http.MethodGet, "/auth/tokens", adminToken(t), nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var tokens []struct {
		Token   string `json:"token"`
		IsAdmin bool   `json:"isAdmin"`
	}
	decodeJSON(t, resp, &tokens)
	found := false
	for _, entry := range tokens {
		if entry.Token == token {
			found = true
			assert.False(t, entry.IsAdmin)
		}
	}
	assert.True(t, found, "created token missing from listing")

	// It authenticates but cannot administer
	resp = request(t, http.MethodGet, "/moderate/categories", token, nil, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = request(t, http.MethodGet, "/auth/tokens", token, nil, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Deletion revokes it
	resp = request(t, http.MethodDelete, "/auth/tokens/"+token, adminToken(t), nil, "")
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = request(t, http.MethodGet, "/moderate/categories", token, nil, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Double delete reports not found
	resp = request(t, http.MethodDelete, "/auth/tokens/"+token, adminToken(t), nil, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestE2E_Analyze(t *testing.T) {
	token := createToken(t, false)

	body, contentType := pngMultipart(t, "file", 1)
	resp := request(t, http.MethodPost, "/moderate/analyze", token, body, contentType)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var report struct {
		FileInfo struct {
			Format string `json:"format"`
			Hash   string `json:"hash"`
		} `json:"file_info"`
		ModerationResults struct {
			Provider   string                 `json:"provider"`
			Categories map[string]interface{} `json:"categories"`
		} `json:"moderation_results"`
		SafetySummary struct {
			OverallRiskScore float64 `json:"overall_risk_score"`
		} `json:"safety_summary"`
	}
	decodeJSON(t, resp, &report)

	assert.Equal(t, "png", report.FileInfo.Format)
	assert.Len(t, report.FileInfo.Hash, 32)
	assert.NotEmpty(t, report.ModerationResults.Categories)
	assert.Greater(t, report.SafetySummary.OverallRiskScore, 0.0)
}

func TestE2E_BatchAnalyze(t *testing.T) {
	token := createToken(t, false)

	body, contentType := pngMultipart(t, "files", 3)
	resp := request(t, http.MethodPost, "/moderate/batch-analyze", token, body, contentType)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var report struct {
		BatchInfo struct {
			TotalImages int `json:"total_images"`
			Successful  int `json:"successful_analyses"`
		} `json:"batch_info"`
	}
	decodeJSON(t, resp, &report)

	assert.Equal(t, 3, report.BatchInfo.TotalImages)
	assert.Equal(t, 3, report.BatchInfo.Successful)
}

func TestE2E_UsageStats(t *testing.T) {
	token := createToken(t, false)

	// Generate one accountable call
	body, contentType := pngMultipart(t, "file", 1)
	resp := request(t, http.MethodPost, "/moderate/analyze", token, body, contentType)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = request(t, http.MethodGet, "/auth/usage-stats", adminToken(t), nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats struct {
		TotalCalls      int64            `json:"total_calls"`
		UniqueTokens    int64            `json:"unique_tokens"`
		CallsByEndpoint map[string]int64 `json:"calls_by_endpoint"`
		RecentActivity  []struct {
			Endpoint string `json:"endpoint"`
		} `json:"recent_activity"`
	}
	decodeJSON(t, resp, &stats)

	assert.GreaterOrEqual(t, stats.TotalCalls, int64(2))
	assert.GreaterOrEqual(t, stats.UniqueTokens, int64(2))
	assert.GreaterOrEqual(t, stats.CallsByEndpoint["/moderate"], int64(1))
	assert.NotEmpty(t, stats.RecentActivity)
	assert.LessOrEqual(t, len(stats.RecentActivity), 10)
}
