// Package discovery locates serial bridge daemons on the local network
// via mDNS/DNS-SD.
//
// A daemon advertises one "_serialbridge._tcp" service per host. TXT
// records carry the protocol version, a user-visible daemon name, the
// host platform and the number of serial ports currently attached, so a
// client can pick a daemon without connecting first.
//
// Typical client usage:
//
//	browser, _ := discovery.NewBrowser(discovery.BrowserConfig{})
//	defer browser.Stop()
//	daemons, _ := browser.Browse(ctx)
//	for d := range daemons {
//		fmt.Println(d.InstanceName, d.Addresses, d.Port)
//	}
//
// The Advertiser half is used by daemons and by tests.
package discovery
