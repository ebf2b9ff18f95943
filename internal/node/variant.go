package node

// Node is the closed set of node variants produced by Classify. Every field of
// a variant is already resolved against its default.
type Node interface {
	Type() string
	isNode()
}

// Endpoint is shared by every known variant.
type Endpoint struct {
	Name   string
	Server string
	Port   string
}

type VMess struct {
	Endpoint
	UUID    string
	AlterID string
	Network string
	Host    string
	Path    string
	TLS     bool
	SNI     string
}

// VLESS keeps empty strings for parameters that must be left out of the link.
type VLESS struct {
	Endpoint
	UUID    string
	Network string
	SNI     string
	TLS     bool
	Flow    string
	Reality *Reality
}

type Reality struct {
	PublicKey string
	ShortID   string
}

type Shadowsocks struct {
	Endpoint
	Method   string
	Password string
}

type Trojan struct {
	Endpoint
	Password string
	SNI      string
}

type Hysteria2 struct {
	Endpoint
	Password string
	SNI      string
}

// Unknown is any record whose type is missing or not supported.
type Unknown struct {
	Tag string
}

const (
	TypeVMess       = "vmess"
	TypeVLESS       = "vless"
	TypeShadowsocks = "ss"
	TypeTrojan      = "trojan"
	TypeHysteria2   = "hysteria2"
	TypeHy2         = "hy2"
)

// Defaults applied when the corresponding key is absent.
const (
	DefaultAlterID  = "0"
	DefaultNetwork  = "tcp"
	DefaultCipher   = "aes-256-gcm"
	DefaultPortText = "0"
)

func (VMess) Type() string       { return TypeVMess }
func (VLESS) Type() string       { return TypeVLESS }
func (Shadowsocks) Type() string { return TypeShadowsocks }
func (Trojan) Type() string      { return TypeTrojan }
func (Hysteria2) Type() string   { return TypeHysteria2 }
func (u Unknown) Type() string   { return u.Tag }

func (VMess) isNode()       {}
func (VLESS) isNode()       {}
func (Shadowsocks) isNode() {}
func (Trojan) isNode()      {}
func (Hysteria2) isNode()   {}
func (Unknown) isNode()     {}

// Classify dispatches on the exact, case-sensitive type tag.
func Classify(r Record) Node {
	ep := Endpoint{
		Name:   r.Name.Or(""),
		Server: r.Server.Or(""),
		Port:   r.Port.Or(DefaultPortText),
	}

	switch r.Type.Or("") {
	case TypeVMess:
		return VMess{
			Endpoint: ep,
			UUID:     r.UUID.Or(""),
			AlterID:  r.AlterID.Or(DefaultAlterID),
			Network:  r.Network.Or(DefaultNetwork),
			Host:     r.WSOpts.Host(),
			Path:     r.WSOpts.PathOr(""),
			TLS:      r.TLS.Flag(),
			SNI:      Either(r.SNI, r.ServerName.Or("")),
		}
	case TypeVLESS:
		v := VLESS{
			Endpoint: ep,
			UUID:     r.UUID.Or(""),
			Network:  Either(r.Network, ""),
			SNI:      Either(r.SNI, Either(r.ServerName, "")),
			TLS:      r.TLS.Flag(),
			Flow:     Either(r.Flow, ""),
		}
		if r.RealityOpts.Present() {
			v.Reality = &Reality{
				PublicKey: r.RealityOpts.PublicKey.Or(""),
				ShortID:   r.RealityOpts.ShortID.Or(""),
			}
		}
		return v
	case TypeShadowsocks:
		return Shadowsocks{
			Endpoint: ep,
			Method:   r.Cipher.Or(DefaultCipher),
			Password: r.Password.Or(""),
		}
	case TypeTrojan:
		return Trojan{
			Endpoint: ep,
			Password: r.Password.Or(""),
			SNI:      r.SNI.Or(""),
		}
	case TypeHysteria2, TypeHy2:
		return Hysteria2{
			Endpoint: ep,
			Password: r.Password.Or(""),
			SNI:      Either(r.SNI, ep.Server),
		}
	default:
		return Unknown{Tag: r.Type.Or("")}
	}
}
