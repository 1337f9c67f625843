// Package codec converts document payloads between their JSON transport form
// (standard base64 text) and raw bytes.
package codec

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"docmerge/internal/domain"
)

var errIncorrectPadding = errors.New("incorrect padding")

// Decode parses standard base64. Characters outside the alphabet are
// skipped and decoding stops at the first complete padding. Input that ends
// in a partial quantum without padding is an error.
func Decode(s string) ([]byte, error) {
	var clean strings.Builder
	clean.Grow(len(s))

	n, pads := 0, 0
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch == '=' {
			if q := n % 4; q >= 2 {
				pads++
				if q+pads >= 4 {
					return decodeRaw(clean.String())
				}
			}
			continue
		}
		if !isAlphabet(ch) {
			continue
		}
		clean.WriteByte(ch)
		n++
		pads = 0
	}

	if n%4 != 0 {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidBase64, errIncorrectPadding)
	}
	return decodeRaw(clean.String())
}

func decodeRaw(s string) ([]byte, error) {
	b, err := base64.RawStdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidBase64, err)
	}
	return b, nil
}

func isAlphabet(ch byte) bool {
	switch {
	case ch >= 'A' && ch <= 'Z', ch >= 'a' && ch <= 'z', ch >= '0' && ch <= '9':
		return true
	}
	return ch == '+' || ch == '/'
}

// Encode returns the standard, padded base64 form of b.
func Encode(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}
