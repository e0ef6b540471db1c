package room

import (
	"crypto/rand"
)

// codeAlphabet drops characters that read ambiguously when shared out
// loud or scrawled on paper: no 0/O, no 1/I. 32 characters, so a random
// byte maps onto it without modulo bias.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// CodeLength is the length of a shareable room code.
const CodeLength = 5

// NewCode generates a random room code via crypto/rand. Uniqueness is
// enforced by the store's unique index; callers retry on ErrCodeTaken.
func NewCode() string {
	buf := make([]byte, CodeLength)
	if _, err := rand.Read(buf); err != nil {
		panic("crypto/rand failure: " + err.Error())
	}
	out := make([]byte, CodeLength)
	for i, b := range buf {
		out[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(out)
}
