package lock

import (
	"crypto/rand"
	"io"
)

const tokenAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Bytes at or above this are skipped so every character is equally likely.
const tokenByteLimit = 256 - 256%len(tokenAlphabet)

// NewToken returns key followed by "_" and n random alphanumeric characters.
func NewToken(key string, n int) (string, error) {
	return newToken(rand.Reader, key, n)
}

func newToken(random io.Reader, key string, n int) (string, error) {
	suffix := make([]byte, 0, n)
	buf := make([]byte, n+n/4+1)
	for len(suffix) < n {
		if _, err := io.ReadFull(random, buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= tokenByteLimit {
				continue
			}
			suffix = append(suffix, tokenAlphabet[int(b)%len(tokenAlphabet)])
			if len(suffix) == n {
				break
			}
		}
	}
	return key + "_" + string(suffix), nil
}
