package fetch

import (
	"context"
	"net/url"
	"strings"
)

const DefaultAPIBase = "https://api.cloudflare.com/client/v4"

// KVRequest addresses one value in a Workers KV namespace.
type KVRequest struct {
	APIBase     string
	AccountID   string
	NamespaceID string
	Key         string
	Token       string
}

// URL returns the "read key-value pair" endpoint for r.
func (r KVRequest) URL() string {
	base := r.APIBase
	if base == "" {
		base = DefaultAPIBase
	}
	return strings.TrimRight(base, "/") +
		"/accounts/" + url.PathEscape(r.AccountID) +
		"/storage/kv/namespaces/" + url.PathEscape(r.NamespaceID) +
		"/values/" + url.PathEscape(r.Key)
}

// FetchKVValue reads the raw value stored under r.Key with bearer auth.
func FetchKVValue(ctx context.Context, r KVRequest, opt Options) (string, error) {
	opt.Token = r.Token
	return FetchTextWithOptions(ctx, r.URL(), opt)
}
