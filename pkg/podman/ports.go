package podman

import (
	"fmt"
	"strings"
)

// PortMapping is a resolved host-to-container port pair. Proto is "udp" for
// UDP mappings and empty for the implied TCP default.
type PortMapping struct {
	Host      string
	Container string
	Proto     string
}

// ResolvePort normalizes a host/container port pair that may carry a
// protocol suffix ("8080/udp") on either side. The host side takes
// precedence when both carry a suffix; suffixes other than udp are dropped,
// leaving the implied TCP default.
func ResolvePort(host, container string) PortMapping {
	if port, proto, ok := splitProto(host); ok {
		container, _, _ = splitProto(container)
		if strings.EqualFold(proto, "udp") {
			return PortMapping{Host: port, Container: container, Proto: "udp"}
		}
		return PortMapping{Host: port, Container: container}
	}

	if port, proto, ok := splitProto(container); ok {
		if strings.EqualFold(proto, "udp") {
			return PortMapping{Host: host, Container: port, Proto: "udp"}
		}
		return PortMapping{Host: host, Container: port}
	}

	return PortMapping{Host: host, Container: container}
}

// Render returns the mapping in podman publish syntax: host:container with
// an optional /udp suffix.
func (m PortMapping) Render() string {
	if m.Proto != "" {
		return fmt.Sprintf("%s:%s/%s", m.Host, m.Container, m.Proto)
	}
	return fmt.Sprintf("%s:%s", m.Host, m.Container)
}

func splitProto(endpoint string) (port, proto string, ok bool) {
	idx := strings.Index(endpoint, "/")
	if idx < 0 {
		return endpoint, "", false
	}
	return endpoint[:idx], endpoint[idx+1:], true
}
