package logging

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestMaskHeader(t *testing.T) {
	tests := []struct {
		name   string
		header string
		value  string
		want   string
	}{
		{"authorization shows last 4", "Authorization", "Bearer deadbeefcafe", "****cafe"},
		{"api key shows last 4", "X-Api-Key", "abcd1234", "****1234"},
		{"short value fully masked", "Authorization", "ab", "****"},
		{"password fully redacted", "X-Admin-Password", "hunter2", "[REDACTED]"},
		{"secret fully redacted", "X-Client-Secret", "shhh", "[REDACTED]"},
		{"other headers unchanged", "Content-Type", "image/png", "image/png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MaskHeader(tt.header, tt.value); got != tt.want {
				t.Errorf("MaskHeader(%q, %q) = %q, want %q", tt.header, tt.value, got, tt.want)
			}
		})
	}
}

func TestMaskTokenValue(t *testing.T) {
	if got := MaskTokenValue("9f2c77aa"); got != "****77aa" {
		t.Errorf("MaskTokenValue = %q, want %q", got, "****77aa")
	}
	if got := MaskTokenValue("ab"); got != "****" {
		t.Errorf("MaskTokenValue short = %q, want %q", got, "****")
	}
}

func TestMaskJSONBody_NilAllowlist(t *testing.T) {
	body := []byte(`{"token":"secret-value"}`)
	got := MaskJSONBody(body, nil)
	if string(got) != string(body) {
		t.Errorf("nil allowlist should pass body through unchanged, got %s", got)
	}
}

// TestMaskJSONBody_RedactsTokenValues covers the case that matters most here:
// a token-create response body passing through debug HTTP logging.
func TestMaskJSONBody_RedactsTokenValues(t *testing.T) {
	body := []byte(`{"token":"9f2c77aa","isAdmin":true,"createdAt":"2026-08-01T00:00:00Z"}`)
	got := MaskJSONBody(body, []string{"isAdmin", "createdAt"})

	var decoded map[string]any
	if err := json.Unmarshal(got, &decoded); err != nil {
		t.Fatalf("masked output is not valid JSON: %v", err)
	}

	if decoded["token"] != "[REDACTED]" {
		t.Errorf("token = %v, want [REDACTED]", decoded["token"])
	}
	if decoded["isAdmin"] != true {
		t.Errorf("isAdmin = %v, want true", decoded["isAdmin"])
	}
	if decoded["createdAt"] == "[REDACTED]" {
		t.Error("createdAt should be preserved by the allowlist")
	}
}

func TestMaskJSONBody_NestedAndArrays(t *testing.T) {
	body := []byte(`[{"token":"aaa","isAdmin":false},{"token":"bbb","isAdmin":true}]`)
	got := MaskJSONBody(body, []string{"isAdmin"})

	if strings.Contains(string(got), "aaa") || strings.Contains(string(got), "bbb") {
		t.Errorf("token values leaked through masking: %s", got)
	}
}

func TestMaskJSONBody_InvalidJSON(t *testing.T) {
	body := []byte(`{not json`)
	got := MaskJSONBody(body, []string{"x"})
	if string(got) != string(body) {
		t.Errorf("unparseable body should be returned unchanged, got %s", got)
	}
}

func TestFormatBinaryData(t *testing.T) {
	if got := FormatBinaryData(make([]byte, 1024)); got != "[BINARY: 1024 bytes]" {
		t.Errorf("FormatBinaryData = %q", got)
	}
}
