// Package autotls issues a locally trusted certificate for the conversion
// service so browsers on the LAN can reach it over HTTPS and WSS.
package autotls

import "net"

var listInterfaces = net.Interfaces

// LANIPs returns the IPv4 addresses of the interfaces that are up,
// excluding loopback.
func LANIPs() ([]string, error) {
	var ips []string

	interfaces, err := listInterfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range interfaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			var ip net.IP
			switch v := addr.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}
			if ip != nil && ip.To4() != nil && !ip.IsLoopback() {
				ips = append(ips, ip.String())
			}
		}
	}

	return ips, nil
}

// Hosts returns the names a certificate must cover: localhost, the
// loopback address and every LAN address. If the interfaces cannot be
// listed, the loopback names are returned along with the error.
func Hosts() ([]string, error) {
	hosts := []string{"localhost", "127.0.0.1"}

	lanIPs, err := LANIPs()
	if err != nil {
		return hosts, err
	}
	return append(hosts, lanIPs...), nil
}
