// Package link turns classified nodes into subscription URIs understood by
// v2rayN-style clients.
package link

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/John-Robertt/free-servers/internal/node"
)

// EncodeRecord classifies r and encodes it. It returns "" for unsupported types.
func EncodeRecord(r node.Record) string {
	return Encode(node.Classify(r))
}

// Encode returns the subscription URI of n, or "" when n is node.Unknown.
func Encode(n node.Node) string {
	switch v := n.(type) {
	case node.VMess:
		return encodeVMess(v)
	case node.VLESS:
		return encodeVLESS(v)
	case node.Shadowsocks:
		return encodeShadowsocks(v)
	case node.Trojan:
		return encodeTrojan(v)
	case node.Hysteria2:
		return encodeHysteria2(v)
	case node.Unknown:
		return ""
	default:
		return ""
	}
}

// vmessJSON field order is part of the format: some clients read it positionally.
type vmessJSON struct {
	V    string `json:"v"`
	PS   string `json:"ps"`
	Add  string `json:"add"`
	Port string `json:"port"`
	ID   string `json:"id"`
	Aid  string `json:"aid"`
	Net  string `json:"net"`
	Type string `json:"type"`
	Host string `json:"host"`
	Path string `json:"path"`
	TLS  string `json:"tls"`
	SNI  string `json:"sni"`
}

func encodeVMess(v node.VMess) string {
	obj := vmessJSON{
		V:    "2",
		PS:   v.Name,
		Add:  v.Server,
		Port: v.Port,
		ID:   v.UUID,
		Aid:  v.AlterID,
		Net:  v.Network,
		Type: "none",
		Host: v.Host,
		Path: v.Path,
		SNI:  v.SNI,
	}
	if v.TLS {
		obj.TLS = "tls"
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encoding a struct of strings cannot fail.
	_ = enc.Encode(obj)
	payload := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))

	return "vmess://" + base64.StdEncoding.EncodeToString(payload)
}

func encodeVLESS(v node.VLESS) string {
	params := make([]string, 0, 7)
	if v.Network != "" {
		params = append(params, "type="+v.Network)
	}
	if v.SNI != "" {
		params = append(params, "sni="+v.SNI)
	}
	if v.TLS {
		params = append(params, "security=tls")
	}
	if v.Flow != "" {
		params = append(params, "flow="+v.Flow)
	}
	// security may appear twice when both tls and reality-opts are set; clients
	// already consume links in this shape.
	if v.Reality != nil {
		params = append(params,
			"security=reality",
			"pbk="+v.Reality.PublicKey,
			"sid="+v.Reality.ShortID,
		)
	}
	return "vless://" + v.UUID + "@" + hostPort(v.Endpoint) + "?" + strings.Join(params, "&") + "#" + EscapeName(v.Name)
}

func encodeShadowsocks(v node.Shadowsocks) string {
	userinfo := base64.StdEncoding.EncodeToString([]byte(v.Method + ":" + v.Password))
	return "ss://" + userinfo + "@" + hostPort(v.Endpoint) + "#" + EscapeName(v.Name)
}

func encodeTrojan(v node.Trojan) string {
	return "trojan://" + v.Password + "@" + hostPort(v.Endpoint) + "?sni=" + v.SNI + "#" + EscapeName(v.Name)
}

func encodeHysteria2(v node.Hysteria2) string {
	return "hysteria2://" + v.Password + "@" + hostPort(v.Endpoint) + "?sni=" + v.SNI + "#" + EscapeName(v.Name)
}

func hostPort(ep node.Endpoint) string {
	return ep.Server + ":" + ep.Port
}
