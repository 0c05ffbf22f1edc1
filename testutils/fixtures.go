package testutils

// IwScanTwoNetworks is a trimmed but representative `iw dev wlan0 scan`
// report: one WPA2/CCMP network using the DS Parameter set dialect and one
// open hidden network using the HT operation dialect.
const IwScanTwoNetworks = `BSS aa:bb:cc:dd:ee:ff(on wlan0)
	TSF: 2124260520 usec (0d, 00:35:24)
	freq: 2437
	capability: ESS Privacy ShortSlotTime (0x0411)
	signal: -41.00 dBm
	last seen: 180 ms ago
	SSID: HomeNet
	DS Parameter set: channel 6
	RSN:	 * Version: 1
		 * Group cipher: CCMP
		 * Pairwise ciphers: CCMP
		 * Authentication suites: PSK
	WPS:	 * Version: 1.0
		 * Wi-Fi Protected Setup State: 2 (Configured)
BSS 11:22:33:44:55:66(on wlan0)
	freq: 5180
	capability: ESS ShortSlotTime (0x0401)
	signal: -67.00 dBm
	SSID:
	HT operation:
		 * primary channel: 36
		 * secondary channel offset: above
`

// IwScanMixedCiphers carries both CCMP and TKIP suites plus a WPA element,
// for cipher-independence tests.
const IwScanMixedCiphers = `BSS 22:33:44:55:66:77(on wlan0)
	capability: ESS Privacy ShortSlotTime (0x0411)
	signal: -55.00 dBm
	SSID: LegacyMixed
	DS Parameter set: channel 11
	WPA:	 * Version: 1
		 * Group cipher: TKIP
		 * Pairwise ciphers: CCMP TKIP
		 * Authentication suites: PSK
`

// IwScanMalformedBSS starts with a BSS line whose address token is not a
// MAC; its field lines must be discarded, and the following valid block
// must parse normally.
const IwScanMalformedBSS = `BSS not-a-mac-address(on wlan0)
	signal: -30.00 dBm
	SSID: GhostNet
BSS aa:bb:cc:dd:ee:01(on wlan0)
	signal: -62.00 dBm
	SSID: RealNet
	DS Parameter set: channel 1
`

// IpLinkShow is representative `ip link show` output including a VLAN
// subinterface with an @parent suffix.
const IpLinkShow = `1: lo: <LOOPBACK,UP,LOWER_UP> mtu 65536 qdisc noqueue state UNKNOWN mode DEFAULT group default qlen 1000
    link/loopback 00:00:00:00:00:00 brd 00:00:00:00:00:00
2: eth0: <BROADCAST,MULTICAST,UP,LOWER_UP> mtu 1500 qdisc fq_codel state UP mode DEFAULT group default qlen 1000
    link/ether 52:54:00:12:34:56 brd ff:ff:ff:ff:ff:ff
3: wlan0: <BROADCAST,MULTICAST> mtu 1500 qdisc noop state DOWN mode DEFAULT group default qlen 1000
    link/ether aa:bb:cc:dd:ee:ff brd ff:ff:ff:ff:ff:ff
4: eth0.100@eth0: <BROADCAST,MULTICAST,UP,LOWER_UP> mtu 1500 qdisc noqueue state UP mode DEFAULT group default qlen 1000
    link/ether 52:54:00:12:34:56 brd ff:ff:ff:ff:ff:ff
`

// IwDevInfo is representative `iw dev wlan0 info` output.
const IwDevInfo = `Interface wlan0
	ifindex 3
	wdev 0x1
	addr aa:bb:cc:dd:ee:ff
	type managed
	wiphy 0
	channel 6 (2437 MHz), width: 20 MHz, center1: 2437 MHz
	txpower 20.00 dBm
`
