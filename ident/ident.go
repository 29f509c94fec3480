// Package ident generates the short opaque ids used for rooms and transcript
// messages. These are share-with-a-friend codes, not a security boundary, so a
// plain math/rand source is enough; callers guard against the rare collision.
package ident

import (
	"math/rand"
	"strings"
)

const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// DefaultLength matches the historical 6-character base-36 room codes.
const DefaultLength = 6

// New returns a random base-36 id of the given length.
func New(length int) string {
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		b.WriteByte(alphabet[rand.Intn(len(alphabet))])
	}
	return b.String()
}

// NewRoomID returns a room id of the default length.
func NewRoomID() string {
	return New(DefaultLength)
}

// NewMessageID returns a transcript message id of the default length.
func NewMessageID() string {
	return New(DefaultLength)
}
