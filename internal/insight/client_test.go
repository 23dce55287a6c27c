package insight

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/MikeSquared-Agency/agriform/internal/dialogue"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func str(s string) *string { return &s }

func testRecord() dialogue.Record {
	size := 3.5
	return dialogue.Record{
		District:      str("Nashik"),
		State:         str("Maharashtra"),
		FarmSizeAcres: &size,
		CropType:      str("Rice"),
		SowingDate:    str("2024-06-15"),
	}
}

func TestSubmit_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("expected json content type, got %q", r.Header.Get("Content-Type"))
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		want := map[string]any{
			"district":        "Nashik",
			"state":           "Maharashtra",
			"farm_size_acres": 3.5,
			"crop_type":       "Rice",
			"sowing_date":     "2024-06-15",
		}
		if diff := cmp.Diff(want, body); diff != "" {
			t.Errorf("request body mismatch (-want +got):\n%s", diff)
		}
		w.Write([]byte(`[{"recommendation":"irrigate weekly"}]`))
	}))
	defer server.Close()

	got, err := NewClient(server.URL, discardLogger()).Submit(context.Background(), testRecord())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if string(got) != `[{"recommendation":"irrigate weekly"}]` {
		t.Errorf("expected verbatim body, got %s", got)
	}
}

func TestSubmit_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model unavailable", http.StatusBadGateway)
		}},
		{"not json", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>sleeping</html>"))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			if _, err := NewClient(server.URL, discardLogger()).Submit(context.Background(), testRecord()); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSubmit_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := NewClient(server.URL, discardLogger()).Submit(ctx, testRecord()); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestSubmit_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	if _, err := NewClient(url, discardLogger()).Submit(context.Background(), testRecord()); err == nil {
		t.Fatal("expected error for closed server")
	}
}
