package util

// Fingerprint derives a stable request identity from the client IP and
// User-Agent. The newline separator keeps ("ab", "c") and ("a", "bc") from
// colliding.
func Fingerprint(ip, userAgent string) string {
	return SHA256Hex(ip + "\n" + userAgent)
}
