package scan

import (
	"bufio"
	"regexp"
	"strconv"
	"strings"
)

var (
	reBSSMAC         = regexp.MustCompile(`^([0-9A-Fa-f]{2}[:-]){5}[0-9A-Fa-f]{2}$`)
	reDSChannel      = regexp.MustCompile(`DS Parameter set: channel (\d+)`)
	rePrimaryChannel = regexp.MustCompile(`\* primary channel: (\d+)`)
)

// ParseScan converts raw `iw dev <iface> scan` output into access point
// records in encounter order. It is a pure function of its input and never
// fails: iw output varies slightly by driver and firmware, so malformed
// lines are skipped rather than reported.
func ParseScan(raw string) []AccessPoint {
	var (
		records []AccessPoint
		current *AccessPoint
	)

	scanner := bufio.NewScanner(strings.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		tokens := strings.Fields(line)

		if tokens[0] == "BSS" {
			// Any BSS line ends the open record. A new one starts only if
			// the address token is a plain MAC; iw appends annotations like
			// "(on wlan0)" after the address, so strip the parenthetical
			// before validating. Field lines after a rejected BSS are
			// discarded, never attached to the prior record.
			if current != nil {
				records = append(records, *current)
				current = nil
			}
			if len(tokens) > 1 {
				candidate, _, _ := strings.Cut(tokens[1], "(")
				if reBSSMAC.MatchString(candidate) {
					ap := newAccessPoint(strings.ToUpper(candidate))
					current = &ap
				}
			}
			continue
		}

		if current == nil {
			// Preamble before the first valid BSS line, or trailing
			// fields of a rejected BSS block.
			continue
		}

		switch {
		case strings.HasPrefix(line, "SSID:"):
			if ssid := strings.TrimSpace(line[len("SSID:"):]); ssid != "" {
				current.ESSID = ssid
			}
		case strings.Contains(line, "DS Parameter set: channel"):
			if m := reDSChannel.FindStringSubmatch(line); m != nil {
				if ch, err := strconv.Atoi(m[1]); err == nil {
					current.Channel = ch
				}
			}
		case strings.Contains(line, "primary channel:"):
			if m := rePrimaryChannel.FindStringSubmatch(line); m != nil {
				if ch, err := strconv.Atoi(m[1]); err == nil {
					current.Channel = ch
				}
			}
		case strings.HasPrefix(line, "signal:"):
			if len(tokens) > 1 {
				if dbm, err := strconv.ParseFloat(tokens[1], 64); err == nil {
					current.SignalDBM = dbm
				}
			}
		case strings.HasPrefix(line, "WPA:"):
			current.WPA = true
		case strings.HasPrefix(line, "RSN:"):
			current.WPA2 = true
		case strings.HasPrefix(line, "capability:"):
			if strings.Contains(line, "Privacy") {
				current.WEP = true
			}
		case strings.Contains(line, "WPS:"):
			current.WPS = true
		}

		// Cipher suites appear on pairwise/group lines under either the
		// WPA or RSN element; check every line of an open record.
		if strings.Contains(line, "CCMP") {
			current.CCMP = true
		}
		if strings.Contains(line, "TKIP") {
			current.TKIP = true
		}
	}

	if current != nil {
		records = append(records, *current)
	}

	return records
}
