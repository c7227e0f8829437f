package utils

// TruncateRunes cuts s to at most limit code points. The second result reports
// whether anything was dropped.
func TruncateRunes(s string, limit int) (string, bool) {
	if limit < 0 {
		limit = 0
	}
	count := 0
	for i := range s {
		if count == limit {
			return s[:i], true
		}
		count++
	}
	return s, false
}
