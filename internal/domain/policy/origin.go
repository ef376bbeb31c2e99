package policy

import (
	"fmt"
	"net/netip"
	"strings"
)

// AllowList redes de confianza. Las peticiones desde ellas no generan alertas de vigilancia
// y son las únicas que pueden registrar cuentas administrador.
type AllowList struct {
	prefixes []netip.Prefix
}

// DefaultAllowList loopback IPv4 e IPv6.
func DefaultAllowList() *AllowList {
	l, _ := NewAllowList([]string{"127.0.0.1", "::1"})
	return l
}

// NewAllowList acepta IPs sueltas, CIDRs y el alias "localhost".
func NewAllowList(entries []string) (*AllowList, error) {
	l := &AllowList{}
	for _, e := range entries {
		e = strings.TrimSpace(e)
		switch {
		case e == "":
			continue
		case strings.EqualFold(e, "localhost"):
			l.prefixes = append(l.prefixes,
				netip.MustParsePrefix("127.0.0.0/8"),
				netip.MustParsePrefix("::1/128"))
		case strings.Contains(e, "/"):
			p, err := netip.ParsePrefix(e)
			if err != nil {
				return nil, fmt.Errorf("red de confianza %q: %w", e, err)
			}
			l.prefixes = append(l.prefixes, p.Masked())
		default:
			a, err := netip.ParseAddr(e)
			if err != nil {
				return nil, fmt.Errorf("red de confianza %q: %w", e, err)
			}
			a = a.Unmap()
			l.prefixes = append(l.prefixes, netip.PrefixFrom(a, a.BitLen()))
		}
	}
	return l, nil
}

// Contains indica si la IP de origen pertenece a una red de confianza.
// Las IPv4 mapeadas en IPv6 (::ffff:127.0.0.1) se comparan como IPv4.
func (l *AllowList) Contains(ip string) bool {
	if l == nil {
		return false
	}
	ip = strings.TrimSpace(ip)
	if strings.EqualFold(ip, "localhost") {
		return l.Contains("127.0.0.1")
	}
	a, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	a = a.Unmap()
	for _, p := range l.prefixes {
		if p.Contains(a) {
			return true
		}
	}
	return false
}
