package edgar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const searchFixture = `{
	"hits": {
		"total": {"value": 2},
		"hits": [
			{
				"_id": "0001193125-26-104522:d12345d8k.htm",
				"_source": {
					"ciks": ["0001234567"],
					"display_names": ["Acme Robotics, Inc.  (ACME)  (CIK 0001234567)"],
					"file_type": "8-K",
					"file_date": "2026-08-27",
					"items": ["1.01", "8.01"],
					"adsh": "0001193125-26-104522"
				}
			},
			{
				"_id": "bad-hit",
				"_source": {
					"file_type": "8-K",
					"file_date": "not-a-date"
				}
			}
		]
	}
}`

func TestRecentFilings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Error("request missing User-Agent header")
		}
		if got := r.URL.Query().Get("forms"); got != "8-K" {
			t.Errorf("forms = %q, want 8-K", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(searchFixture))
	}))
	defer srv.Close()

	client := NewClient("test test@example.com", WithSearchURL(srv.URL))

	filings, err := client.RecentFilings(context.Background(), "8-K", 40)
	if err != nil {
		t.Fatalf("RecentFilings failed: %v", err)
	}

	// The malformed hit is skipped
	if len(filings) != 1 {
		t.Fatalf("got %d filings, want 1", len(filings))
	}

	f := filings[0]
	if f.AccessionNo != "0001193125-26-104522" {
		t.Errorf("accession = %q", f.AccessionNo)
	}
	if f.CompanyName != "Acme Robotics, Inc." {
		t.Errorf("company = %q", f.CompanyName)
	}
	if f.CIK != "0001234567" {
		t.Errorf("cik = %q", f.CIK)
	}
	if len(f.ItemCodes) != 2 || f.ItemCodes[0] != "1.01" {
		t.Errorf("items = %v", f.ItemCodes)
	}
	if f.DocumentURL == "" {
		t.Error("expected a document URL")
	}
}

func TestFetchDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>merger agreement</html>"))
	}))
	defer srv.Close()

	client := NewClient("test test@example.com")
	body, err := client.FetchDocument(context.Background(), srv.URL+"/doc.htm")
	if err != nil {
		t.Fatalf("FetchDocument failed: %v", err)
	}
	if body != "<html>merger agreement</html>" {
		t.Errorf("body = %q", body)
	}
}

func TestRecentFilingsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewClient("test test@example.com", WithSearchURL(srv.URL))
	if _, err := client.RecentFilings(context.Background(), "8-K", 10); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}
