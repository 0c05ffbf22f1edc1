package render

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/zzmio78/wrdrv/internal/scan"
)

var openStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))

// Table writes the ranked access point list as a fixed-width table. The
// ranked slice is printed in the order given; callers wanting reverse display
// pass a reversed ranking. Open networks are highlighted.
func Table(w io.Writer, ranked []scan.RankedAP) {
	fmt.Fprintf(w, "\nNetworks found: %d\n", len(ranked))
	fmt.Fprintf(w, "%-4s %-18s %-22s %-4s %-7s %-6s %-10s %-5s\n",
		"#", "BSSID", "ESSID", "CH", "PWR", "Enc", "Cipher", "WPS")

	for _, entry := range ranked {
		fmt.Fprintln(w, Row(entry))
	}
}

// Row renders one ranked entry as a table line.
func Row(entry scan.RankedAP) string {
	ap := entry.AP

	line := fmt.Sprintf("%-4s %-18s %-22s %-4d %-7d %-6s %-10s %-5v",
		fmt.Sprintf("%d)", entry.Index),
		truncate(ap.BSSID, 18),
		truncate(ap.ESSID, 22),
		ap.Channel,
		int(ap.SignalDBM),
		ap.SecurityLabel(),
		ap.CipherLabel(),
		ap.WPS)

	if ap.Open() {
		return openStyle.Render(line)
	}
	return line
}

func truncate(s string, length int) string {
	if len(s) > length {
		return s[:length-1] + " "
	}
	return s
}
