package utils

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

// codeAlphabet omits characters easy to misread (0/O, 1 is kept, I/l are not).
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ123456789"

const (
	codeHalfLen     = 3
	maxCodeAttempts = 10
)

// ErrCodeExhausted is returned when no unused room code could be generated
// within the retry bound.
var ErrCodeExhausted = errors.New("could not generate a unique room code")

// NewRoomCode returns a readable room code in XXX-XXX form. Characters are
// drawn uniformly from the alphabet.
func NewRoomCode() (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	buf := make([]byte, codeHalfLen*2)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf[:codeHalfLen]) + "-" + string(buf[codeHalfLen:]), nil
}

// UniqueRoomCode generates a room code that exists reports as unused,
// retrying up to a fixed bound. Returns ErrCodeExhausted when every attempt
// collided.
func UniqueRoomCode(ctx context.Context, exists func(context.Context, string) (bool, error)) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := NewRoomCode()
		if err != nil {
			return "", err
		}
		taken, err := exists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check room code: %w", err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", ErrCodeExhausted
}
