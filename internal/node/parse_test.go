package node

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleKV = `
port: 7890
proxies:
  - name: "香港 01"
    type: vmess
    server: hk.example.com
    port: 443
    uuid: 7f3c1d8e-0000-4000-8000-000000000001
    alterId: 0
    cipher: auto
    network: ws
    tls: true
    servername: hk.example.com
    ws-opts:
      path: /ray
      headers:
        Host: cdn.example.com
  - {name: jp, type: ss, server: 1.2.3.4, port: 8388, cipher: chacha20-ietf-poly1305, password: 123456}
  - name: us
    type: vless
    server: us.example.com
    port: 443
    uuid: 7f3c1d8e-0000-4000-8000-000000000002
    network: tcp
    tls: true
    flow: xtls-rprx-vision
    reality-opts:
      public-key: pbk0
      short-id: ab
  - name: broken
    type: wireguard
    server: wg.example.com
    port: 51820
`

func TestParseProxies_Document(t *testing.T) {
	records, err := ParseProxies("kv://data", sampleKV)
	require.NoError(t, err)
	require.Len(t, records, 4)

	assert.Equal(t, "香港 01", records[0].Name.Or(""))
	assert.Equal(t, "443", records[0].Port.Or(""))
	assert.Equal(t, "cdn.example.com", records[0].WSOpts.Host())
	assert.Equal(t, "/ray", records[0].WSOpts.PathOr(""))
	assert.True(t, records[0].TLS.Truthy())

	// Numeric passwords keep their literal text.
	assert.Equal(t, "123456", records[1].Password.Or(""))

	assert.True(t, records[2].RealityOpts.Present())
	assert.Equal(t, "pbk0", records[2].RealityOpts.PublicKey.Or(""))

	assert.Equal(t, "wireguard", records[3].Type.Or(""))
}

func TestParseProxies_EmptyOrMissing(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"whitespace", "  \n\t\n"},
		{"bom only", "\uFEFF"},
		{"comment only", "# nothing here\n"},
		{"no proxies key", "mode: rule\nport: 7890\n"},
		{"null proxies", "proxies: ~\n"},
		{"empty proxies", "proxies: []\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := ParseProxies("kv://data", tt.content)
			require.NoError(t, err)
			assert.Empty(t, records)
		})
	}
}

func TestParseProxies_Malformed(t *testing.T) {
	content := "proxies:\n  - name: a\n    type: [unterminated\n"
	_, err := ParseProxies("kv://data", content)

	var pe *ParseError
	require.True(t, errors.As(err, &pe), "expected *ParseError, got %T: %v", err, err)
	assert.Equal(t, "NODES_PARSE_ERROR", pe.AppError.Code)
	assert.Equal(t, "parse_nodes", pe.AppError.Stage)
	assert.Equal(t, "kv://data", pe.AppError.URL)
	assert.NotNil(t, pe.Unwrap())
}

func TestParseProxies_WrongShape(t *testing.T) {
	tests := []string{
		"- just\n- a\n- list\n",
		"proxies: not-a-list\n",
		"proxies:\n  - name: {nested: map}\n    type: ss\n",
	}
	for _, content := range tests {
		_, err := ParseProxies("kv://data", content)
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Fatalf("content=%q: expected *ParseError, got %T: %v", content, err, err)
		}
	}
}

func TestParseProxies_ReportsLine(t *testing.T) {
	content := "proxies:\n  - name: ok\n    type: ss\n  - name: {bad: 1}\n"
	_, err := ParseProxies("kv://data", content)

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 4, pe.AppError.Line)
	assert.Contains(t, pe.AppError.Snippet, "name:")
}

func TestParseProxies_EmptyRealityOptsNotPresent(t *testing.T) {
	records, err := ParseProxies("", "proxies:\n  - type: vless\n    reality-opts: {}\n")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.False(t, records[0].RealityOpts.Present())
}
