package discovery

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"netdiag/internal/diagerr"
)

// SubnetOf returns the /24 network containing ip, e.g. 192.168.1.0/24.
func SubnetOf(ip string) (string, error) {
	parts := strings.Split(ip, ".")
	if len(parts) != 4 {
		return "", fmt.Errorf("%w: %q is not a dotted-quad IPv4 address", diagerr.ErrInput, ip)
	}
	for _, p := range parts {
		if !isOctet(p) {
			return "", fmt.Errorf("%w: %q is not a dotted-quad IPv4 address", diagerr.ErrInput, ip)
		}
		if n, _ := strconv.Atoi(p); n > 255 {
			return "", fmt.Errorf("%w: %q is not a dotted-quad IPv4 address", diagerr.ErrInput, ip)
		}
	}
	return fmt.Sprintf("%s.%s.%s.0/24", parts[0], parts[1], parts[2]), nil
}

// isOctet reports whether s is one to three ASCII digits. Signs and spaces
// that strconv would otherwise accept are rejected.
func isOctet(s string) bool {
	if len(s) == 0 || len(s) > 3 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// hostsIn lists the host addresses of an IPv4 network, skipping the network
// and broadcast addresses.
func hostsIn(ipNet *net.IPNet) []net.IP {
	base := ipNet.IP.To4()
	if base == nil {
		return nil
	}

	current := make(net.IP, len(base))
	copy(current, base)
	mask := ipNet.Mask
	for i := range current {
		current[i] &= mask[len(mask)-4+i]
	}

	broadcast := make(net.IP, len(current))
	copy(broadcast, current)
	for i := range broadcast {
		broadcast[i] |= ^mask[len(mask)-4+i]
	}

	var hosts []net.IP
	inc(current) // skip network address
	for ; ipNet.Contains(current) && !current.Equal(broadcast); inc(current) {
		ip := make(net.IP, len(current))
		copy(ip, current)
		hosts = append(hosts, ip)
	}
	return hosts
}

func parseSubnet(subnet string) (*net.IPNet, error) {
	_, ipNet, err := net.ParseCIDR(subnet)
	if err != nil || ipNet.IP.To4() == nil {
		return nil, fmt.Errorf("%w: %q is not an IPv4 CIDR", diagerr.ErrInput, subnet)
	}
	return ipNet, nil
}

func inc(ip net.IP) {
	for j := len(ip) - 1; j >= 0; j-- {
		ip[j]++
		if ip[j] > 0 {
			break
		}
	}
}
