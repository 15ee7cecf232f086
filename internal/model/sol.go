package model

import "strconv"

// Sol identifies one mission day on Mars.
//
// Sols are non-negative. The LatestSol sentinel asks the resolver to look up
// the most recent sol that has images in the feed.
//
// Example:
//
//	sol := model.LatestSol
//	if sol.IsLatest() {
//	    // resolve via the feed
//	}
type Sol int

// LatestSol is the "unspecified" sentinel. It is also the CLI default.
const LatestSol Sol = -1

// IsLatest reports whether the sol is the LatestSol sentinel.
func (s Sol) IsLatest() bool {
	return s == LatestSol
}

// Valid reports whether the sol is either the sentinel or a real mission day.
func (s Sol) Valid() bool {
	return s == LatestSol || s >= 0
}

// String returns "latest" for the sentinel and the decimal sol otherwise.
func (s Sol) String() string {
	if s.IsLatest() {
		return "latest"
	}
	return strconv.Itoa(int(s))
}
