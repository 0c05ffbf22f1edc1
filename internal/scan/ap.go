package scan

// HiddenESSID is the sentinel name used when a scan report carries no SSID
// for a BSS, which is how hidden networks show up in iw output.
const HiddenESSID = "<Hidden>"

// DefaultSignalDBM is assigned when a BSS block carries no signal line so
// that unranked entries sort last.
const DefaultSignalDBM = -100.0

// AccessPoint represents one observed network, keyed by its BSSID.
type AccessPoint struct {
	BSSID     string  `json:"bssid"`
	ESSID     string  `json:"essid"`
	Channel   int     `json:"channel"`
	SignalDBM float64 `json:"signal_dbm"`
	WPA       bool    `json:"wpa"`
	WPA2      bool    `json:"wpa2"`
	WEP       bool    `json:"wep"`
	WPS       bool    `json:"wps"`
	TKIP      bool    `json:"tkip"`
	CCMP      bool    `json:"ccmp"`
}

// newAccessPoint initializes a record with defaults; bssid must already be
// validated and uppercased by the parser.
func newAccessPoint(bssid string) AccessPoint {
	return AccessPoint{
		BSSID:     bssid,
		ESSID:     HiddenESSID,
		SignalDBM: DefaultSignalDBM,
	}
}

// SecurityLabel derives the single presentation label, priority
// WPA2 > WPA > WEP > Open.
func (ap AccessPoint) SecurityLabel() string {
	switch {
	case ap.WPA2:
		return "WPA2"
	case ap.WPA:
		return "WPA"
	case ap.WEP:
		return "WEP"
	default:
		return "Open"
	}
}

// CipherLabel returns "CCMP", "TKIP", "CCMP+TKIP" or "" depending on which
// cipher flags were observed.
func (ap AccessPoint) CipherLabel() string {
	switch {
	case ap.CCMP && ap.TKIP:
		return "CCMP+TKIP"
	case ap.CCMP:
		return "CCMP"
	case ap.TKIP:
		return "TKIP"
	default:
		return ""
	}
}

// Open reports whether the network advertises no encryption at all.
func (ap AccessPoint) Open() bool {
	return !ap.WPA2 && !ap.WPA && !ap.WEP
}
