package responseformat

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

type payload struct {
	Subject string  `json:"subject_id"`
	Minutes float64 `json:"minutes"`
}

func TestWriteResponse(t *testing.T) {
	tests := []struct {
		name        string
		target      string
		contentType string
	}{
		{"default json", "/timeline/A", contentTypeJSON},
		{"unknown format falls back to json", "/timeline/A?format=xml", contentTypeJSON},
		{"msgpack", "/timeline/A?format=msgpack", contentTypeMsgPack},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)

			err := NewFormatter().WriteResponse(rec, req, payload{Subject: "A", Minutes: 42.5}, map[string]string{"Cache-Control": "no-store"})
			if err != nil {
				t.Fatalf("WriteResponse: %v", err)
			}
			if rec.Code != http.StatusOK {
				t.Errorf("status = %d", rec.Code)
			}
			if got := rec.Header().Get("Content-Type"); got != tt.contentType {
				t.Errorf("Content-Type = %q, want %q", got, tt.contentType)
			}
			if rec.Header().Get("Cache-Control") != "no-store" {
				t.Error("extra headers were not applied")
			}

			var got map[string]any
			if tt.contentType == contentTypeMsgPack {
				err = msgpack.Unmarshal(rec.Body.Bytes(), &got)
			} else {
				err = json.Unmarshal(rec.Body.Bytes(), &got)
			}
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got["subject_id"] != "A" {
				t.Errorf("json tags should name the fields, got %v", got)
			}
		})
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/timeline/A?date=bad", nil)

	if err := NewFormatter().WriteError(rec, req, http.StatusBadRequest, "invalid date"); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}

	var body ErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Error != "Bad Request" || body.Message != "invalid date" {
		t.Errorf("unexpected body %+v", body)
	}
}
