// Package discovery finds signflow notification hubs on the local network.
//
// Hubs advertise themselves over multicast DNS as "_signflow._tcp" services in
// the "local." domain. The TXT record carries the websocket path, whether the
// hub uses TLS, and the hub version.
//
// # Advertising
//
//	adv, err := discovery.Advertise("", 8765, map[string]string{
//	    discovery.TxtPath: "/ws",
//	    discovery.TxtTLS:  "0",
//	})
//	defer adv.Shutdown()
//
// # Browsing
//
//	hubs, err := discovery.NewScanner().ScanForHubs(ctx)
//	for _, hub := range hubs {
//	    fmt.Println(hub.Instance, hub.URL())
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Hubs must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
