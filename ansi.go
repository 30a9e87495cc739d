package linerun

import "regexp"

// colorPattern matches ESC[K or a lazy run from ESC[ to the first "m". It is
// intentionally narrow: SGR colour/style codes and erase-to-end-of-line only.
var colorPattern = regexp.MustCompile("\x1b\\[(K|.*?m)")

// StripColor removes ANSI colour/style sequences and ESC[K from s. Other
// escape sequences are left in place.
func StripColor(s string) string {
	return colorPattern.ReplaceAllString(s, "")
}

// StripColorBytes is the []byte form of StripColor.
func StripColorBytes(b []byte) []byte {
	return colorPattern.ReplaceAll(b, nil)
}
