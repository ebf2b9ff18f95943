package node

import (
	"gopkg.in/yaml.v3"
)

// Record is one entry of the Clash-style `proxies` sequence as stored in KV.
// Keys that are not listed here are ignored.
type Record struct {
	Type   Scalar `yaml:"type"`
	Name   Scalar `yaml:"name"`
	Server Scalar `yaml:"server"`
	Port   Scalar `yaml:"port"`

	UUID       Scalar `yaml:"uuid"`
	AlterID    Scalar `yaml:"alterId"`
	Network    Scalar `yaml:"network"`
	TLS        Scalar `yaml:"tls"`
	SNI        Scalar `yaml:"sni"`
	ServerName Scalar `yaml:"servername"`
	Flow       Scalar `yaml:"flow"`
	Cipher     Scalar `yaml:"cipher"`
	Password   Scalar `yaml:"password"`

	WSOpts      *WSOpts      `yaml:"ws-opts"`
	RealityOpts *RealityOpts `yaml:"reality-opts"`
}

type WSOpts struct {
	Path    Scalar            `yaml:"path"`
	Headers map[string]Scalar `yaml:"headers"`
}

// Host returns the Host header, or "" when ws-opts or the header is missing.
func (o *WSOpts) Host() string {
	if o == nil {
		return ""
	}
	return o.Headers["Host"].Or("")
}

// PathOr returns ws-opts.path, or fallback when ws-opts or path is missing.
func (o *WSOpts) PathOr(fallback string) string {
	if o == nil {
		return fallback
	}
	return o.Path.Or(fallback)
}

type RealityOpts struct {
	PublicKey Scalar `yaml:"public-key"`
	ShortID   Scalar `yaml:"short-id"`

	nonEmpty bool
}

func (o *RealityOpts) UnmarshalYAML(n *yaml.Node) error {
	var raw struct {
		PublicKey Scalar `yaml:"public-key"`
		ShortID   Scalar `yaml:"short-id"`
	}
	if err := n.Decode(&raw); err != nil {
		return err
	}
	o.PublicKey = raw.PublicKey
	o.ShortID = raw.ShortID
	o.nonEmpty = n.Kind == yaml.MappingNode && len(n.Content) > 0
	return nil
}

// Present reports whether reality-opts was given as a non-empty mapping.
func (o *RealityOpts) Present() bool {
	return o != nil && o.nonEmpty
}

// NewRealityOpts builds a present reality-opts block.
func NewRealityOpts(publicKey, shortID Scalar) *RealityOpts {
	return &RealityOpts{PublicKey: publicKey, ShortID: shortID, nonEmpty: true}
}
