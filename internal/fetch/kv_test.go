package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestKVRequest_URL(t *testing.T) {
	tests := []struct {
		in   KVRequest
		want string
	}{
		{
			in:   KVRequest{AccountID: "acc", NamespaceID: "ns", Key: "data"},
			want: "https://api.cloudflare.com/client/v4/accounts/acc/storage/kv/namespaces/ns/values/data",
		},
		{
			in:   KVRequest{APIBase: "http://127.0.0.1:8787/v4/", AccountID: "acc", NamespaceID: "ns", Key: "a/b c"},
			want: "http://127.0.0.1:8787/v4/accounts/acc/storage/kv/namespaces/ns/values/a%2Fb%20c",
		},
	}
	for _, tt := range tests {
		if got := tt.in.URL(); got != tt.want {
			t.Fatalf("URL()=%q, want %q", got, tt.want)
		}
	}
}

func TestFetchKVValue_SendsBearerToken(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/accounts/acc/storage/kv/namespaces/ns/values/data" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte("proxies:\n  - {name: a, type: ss}\n"))
	}))
	defer ts.Close()

	got, err := FetchKVValue(context.Background(), KVRequest{
		APIBase:     ts.URL,
		AccountID:   "acc",
		NamespaceID: "ns",
		Key:         "data",
		Token:       "tok",
	}, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(got, "proxies:") {
		t.Fatalf("body=%q", got)
	}
}

func TestFetchKVValue_UpstreamErrorHint(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"errors":[{"code":10009,"message":"get: key not found"}],"messages":[],"result":null}`))
	}))
	defer ts.Close()

	_, err := FetchKVValue(context.Background(), KVRequest{APIBase: ts.URL, AccountID: "a", NamespaceID: "n", Key: "missing", Token: "t"}, Options{})
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %T: %v", err, err)
	}
	if fe.AppError.Code != "FETCH_FAILED" {
		t.Fatalf("code=%q, want=%q", fe.AppError.Code, "FETCH_FAILED")
	}
	if fe.Status != http.StatusNotFound {
		t.Fatalf("status=%d, want=%d", fe.Status, http.StatusNotFound)
	}
	if fe.AppError.Hint != "10009: get: key not found" {
		t.Fatalf("hint=%q", fe.AppError.Hint)
	}
}

func TestFetchKVValue_PlainErrorBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer ts.Close()

	_, err := FetchKVValue(context.Background(), KVRequest{APIBase: ts.URL, AccountID: "a", NamespaceID: "n", Key: "k", Token: "t"}, Options{})
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %T: %v", err, err)
	}
	if fe.AppError.Hint != "" {
		t.Fatalf("hint=%q, want empty", fe.AppError.Hint)
	}
}

func TestFetchKVValue_KeepsUpstreamStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	_, err := FetchKVValue(context.Background(), KVRequest{APIBase: ts.URL, AccountID: "a", NamespaceID: "n", Key: "k", Token: "bad"}, Options{})
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %T: %v", err, err)
	}
	if fe.Status != http.StatusUnauthorized {
		t.Fatalf("status=%d, want=%d", fe.Status, http.StatusUnauthorized)
	}
	if !strings.Contains(fe.AppError.Message, "401") {
		t.Fatalf("message=%q, want upstream status", fe.AppError.Message)
	}
}
