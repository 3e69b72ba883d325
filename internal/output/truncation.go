package output

// ValuePlaceholder is displayed in place of an absent or redacted value.
const ValuePlaceholder = "-"

// Clip truncates s to at most max runes. Truncation is silent: the report
// formats already document their fixed column widths.
func Clip(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
