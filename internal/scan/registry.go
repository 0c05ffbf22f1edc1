package scan

import "sort"

// Registry accumulates access points across repeated scans, keyed by BSSID.
// A re-observed BSSID overwrites the prior record wholesale: every field is
// re-read per scan, so the registry keeps no memory of earlier values.
// Entries are never pruned; the registry lives for one monitoring session.
//
// The registry is owned by a single session and is not safe for concurrent
// mutation.
type Registry struct {
	networks map[string]AccessPoint
}

// NewRegistry creates an empty registry for a monitoring session
func NewRegistry() *Registry {
	return &Registry{networks: make(map[string]AccessPoint)}
}

// Merge applies one scan's parse output, last write wins per BSSID.
func (r *Registry) Merge(records []AccessPoint) {
	for _, rec := range records {
		r.networks[rec.BSSID] = rec
	}
}

// Len returns the number of distinct access points seen so far.
func (r *Registry) Len() int {
	return len(r.networks)
}

// Get looks up a single access point by its canonical uppercase BSSID.
func (r *Registry) Get(bssid string) (AccessPoint, bool) {
	ap, ok := r.networks[bssid]
	return ap, ok
}

// RankedAP is one entry of a ranked result. Index is 1-based and assigned in
// strength order; it stays attached to its record even when the display
// order is reversed.
type RankedAP struct {
	Index int         `json:"index"`
	AP    AccessPoint `json:"ap"`
}

// Ranked returns the registry sorted by signal strength, strongest first,
// ties broken by BSSID so the order is reproducible. The reverse flag flips
// the already-indexed list for display; it does not re-rank.
func (r *Registry) Ranked(reverse bool) []RankedAP {
	aps := make([]AccessPoint, 0, len(r.networks))
	for _, ap := range r.networks {
		aps = append(aps, ap)
	}

	sort.SliceStable(aps, func(i, j int) bool {
		if aps[i].SignalDBM != aps[j].SignalDBM {
			return aps[i].SignalDBM > aps[j].SignalDBM
		}
		return aps[i].BSSID < aps[j].BSSID
	})

	ranked := make([]RankedAP, len(aps))
	for i, ap := range aps {
		ranked[i] = RankedAP{Index: i + 1, AP: ap}
	}

	if reverse {
		for i, j := 0, len(ranked)-1; i < j; i, j = i+1, j-1 {
			ranked[i], ranked[j] = ranked[j], ranked[i]
		}
	}

	return ranked
}
