package server

import "crypto/rand"

// newJoinCode returns a short shareable code. Ambiguous characters are left
// out of the alphabet; uniqueness among live sessions is the store's job.
func newJoinCode() string {
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "AAAA"
	}
	for i := range buf {
		buf[i] = alphabet[int(buf[i])%len(alphabet)]
	}
	return string(buf)
}
