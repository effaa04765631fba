package client

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	wire "github.com/mikey-austin/mpdsub/pkg/subsonic"
)

const (
	testUser = "alice"
	testPass = "sekrit"
)

// checkToken verifies the salted token credentials the client sends.
// Errorf only: it also runs inside server handler goroutines.
func checkToken(t *testing.T, q url.Values) {
	t.Helper()
	if got := q.Get("u"); got != testUser {
		t.Errorf("u = %q, want %q", got, testUser)
	}
	salt := q.Get("s")
	if salt == "" {
		t.Error("request carries no salt")
	}
	sum := md5.Sum([]byte(testPass + salt))
	if got := q.Get("t"); got != hex.EncodeToString(sum[:]) {
		t.Errorf("token %q does not match md5(password+salt)", got)
	}
	if got := q.Get("p"); got != "" {
		t.Errorf("password leaked into query: %q", got)
	}
	if got := q.Get("v"); got != wire.Version {
		t.Errorf("v = %q, want %q", got, wire.Version)
	}
	if got := q.Get("c"); got != clientName {
		t.Errorf("c = %q, want %q", got, clientName)
	}
}

func serve(t *testing.T, handler func(endpoint string, q url.Values) *wire.Response) *Client {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		checkToken(t, q)
		if got := q.Get("f"); got != "json" {
			t.Errorf("f = %q, want json", got)
		}
		endpoint := strings.TrimPrefix(r.URL.Path, "/rest/")
		resp := handler(endpoint, q)
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(wire.Envelope{Response: resp}); err != nil {
			t.Errorf("encode reply: %v", err)
		}
	}))
	t.Cleanup(ts.Close)

	c, err := New(Config{Server: ts.URL, Username: testUser, Password: testPass})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestPing(t *testing.T) {
	c := serve(t, func(endpoint string, q url.Values) *wire.Response {
		if endpoint != "ping" {
			t.Errorf("endpoint = %q, want ping", endpoint)
		}
		return wire.NewResponse()
	})

	version, err := c.Ping(context.Background())
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if version != wire.Version {
		t.Fatalf("version = %q, want %q", version, wire.Version)
	}
}

func TestFailedEnvelopeBecomesError(t *testing.T) {
	c := serve(t, func(endpoint string, q url.Values) *wire.Response {
		return wire.NewError(wire.CodeWrongCredentials, "Wrong username or password")
	})

	_, err := c.Ping(context.Background())
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("Ping error = %v, want *Error", err)
	}
	if apiErr.Code != wire.CodeWrongCredentials {
		t.Fatalf("code = %d, want %d", apiErr.Code, wire.CodeWrongCredentials)
	}
	if !strings.Contains(apiErr.Error(), "Wrong username or password") {
		t.Fatalf("error text %q misses the server message", apiErr.Error())
	}
}

func TestSearchDecodesPayload(t *testing.T) {
	c := serve(t, func(endpoint string, q url.Values) *wire.Response {
		if endpoint != "search3" {
			t.Errorf("endpoint = %q, want search3", endpoint)
		}
		if got := q.Get("query"); got != "queen" {
			t.Errorf("query = %q, want queen", got)
		}
		if got := q.Get("songCount"); got != "5" {
			t.Errorf("songCount = %q, want 5", got)
		}
		resp := wire.NewResponse()
		resp.SearchResult3 = &wire.SearchResult3{
			Artist: []wire.ArtistID3{{ID: "ar-1", Name: "Queen", AlbumCount: 1}},
			Song:   []wire.Child{{ID: "tr-1", Title: "Death on Two Legs"}},
		}
		return resp
	})

	res, err := c.Search(context.Background(), "queen", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Artist) != 1 || res.Artist[0].Name != "Queen" {
		t.Fatalf("artists = %+v, want Queen", res.Artist)
	}
	if len(res.Song) != 1 || res.Song[0].Title != "Death on Two Legs" {
		t.Fatalf("songs = %+v", res.Song)
	}
}

func TestEmptyPayloadYieldsEmptyResult(t *testing.T) {
	c := serve(t, func(endpoint string, q url.Values) *wire.Response {
		return wire.NewResponse()
	})

	res, err := c.Search(context.Background(), "nothing", 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Artist) != 0 || len(res.Album) != 0 || len(res.Song) != 0 {
		t.Fatalf("expected an empty result, got %+v", res)
	}
}

func TestScanStatusRoundtrip(t *testing.T) {
	c := serve(t, func(endpoint string, q url.Values) *wire.Response {
		if endpoint != "startScan" {
			t.Errorf("endpoint = %q, want startScan", endpoint)
		}
		resp := wire.NewResponse()
		resp.ScanStatus = &wire.ScanStatus{Scanning: true, Count: 42}
		return resp
	})

	st, err := c.StartScan(context.Background())
	if err != nil {
		t.Fatalf("StartScan: %v", err)
	}
	if !st.Scanning || st.Count != 42 {
		t.Fatalf("status = %+v, want scanning with 42 songs", st)
	}
}

func TestStreamURLCarriesCredentials(t *testing.T) {
	c, err := New(Config{Server: "http://127.0.0.1:3000", Username: testUser, Password: testPass})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	raw := c.StreamURL("tr-1234", "raw")
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	if u.Path != "/rest/stream" {
		t.Fatalf("path = %q, want /rest/stream", u.Path)
	}
	q := u.Query()
	checkToken(t, q)
	if got := q.Get("id"); got != "tr-1234" {
		t.Fatalf("id = %q, want tr-1234", got)
	}
	if got := q.Get("format"); got != "raw" {
		t.Fatalf("format = %q, want raw", got)
	}
}

func TestStreamURLSaltsDiffer(t *testing.T) {
	c, err := New(Config{Server: "http://127.0.0.1:3000", Username: testUser, Password: testPass})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	first, err := url.Parse(c.StreamURL("tr-1", ""))
	if err != nil {
		t.Fatal(err)
	}
	second, err := url.Parse(c.StreamURL("tr-1", ""))
	if err != nil {
		t.Fatal(err)
	}
	if first.Query().Get("s") == second.Query().Get("s") {
		t.Fatal("consecutive URLs reuse the same salt")
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	cases := []Config{
		{},
		{Server: "http://x", Username: "u"},
		{Server: "http://x", Password: "p"},
		{Server: "ftp://x", Username: "u", Password: "p"},
	}
	for _, cfg := range cases {
		if _, err := New(cfg); err == nil {
			t.Fatalf("New(%+v) accepted an invalid config", cfg)
		}
	}
}
