// Package discovery finds wifistat setup portals on the local network.
//
// A device in setup mode can advertise its portal over mDNS as an
// "_http._tcp" service whose instance name starts with "wifistat-". The
// scanner browses for those instances and returns where each portal can be
// reached, so the provisioning client does not need the address typed in.
//
// # Usage Example
//
//	scanner := discovery.NewScanner()
//	portals, err := scanner.Scan(ctx)
//	if err != nil {
//	    return err
//	}
//	for _, p := range portals {
//	    fmt.Println(p.Instance, p.BaseURL())
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - The host must be joined to the device's setup network
// - Firewall must allow mDNS (UDP port 5353)
package discovery
