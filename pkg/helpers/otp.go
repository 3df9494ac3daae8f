package helpers

import (
	"crypto/rand"
)

// GenOTPCode generates a secure random n-digit OTP code. Each digit is drawn
// independently with rejection sampling: bytes >= 250 are discarded so the
// mod-10 reduction stays uniform.
func GenOTPCode(n int) (string, error) {
	out := make([]byte, 0, n)
	buf := make([]byte, 1)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		if buf[0] >= 250 {
			continue
		}
		out = append(out, '0'+buf[0]%10)
	}
	return string(out), nil
}
