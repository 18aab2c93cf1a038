package formutil_test

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/clubhub/internal/app/system/formutil"
)

type payload struct {
	Text string `json:"text"`
}

func decode(body, contentType string, max int64) (payload, error) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	var p payload
	err := formutil.DecodeJSON(httptest.NewRecorder(), req, &p, max)
	return p, err
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		ct      string
		max     int64
		want    string
		wantErr bool
	}{
		{"valid", `{"text":"hi"}`, "application/json", 1024, "hi", false},
		{"charset suffix", `{"text":"hi"}`, "application/json; charset=utf-8", 1024, "hi", false},
		{"no content type", `{"text":"hi"}`, "", 1024, "hi", false},
		{"unknown fields ignored", `{"text":"hi","x":1}`, "application/json", 1024, "hi", false},
		{"empty body", ``, "application/json", 1024, "", false},
		{"malformed", `{"text":`, "application/json", 1024, "", true},
		{"trailing object", `{"text":"a"}{"text":"b"}`, "application/json", 1024, "", true},
		{"wrong content type", `text=hi`, "application/x-www-form-urlencoded", 1024, "", true},
		{"too large", `{"text":"` + strings.Repeat("a", 100) + `"}`, "application/json", 16, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := decode(tt.body, tt.ct, tt.max)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && p.Text != tt.want {
				t.Errorf("text = %q, want %q", p.Text, tt.want)
			}
		})
	}
}
