// Package token генерирует случайные токены для подтверждения почты.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// New возвращает криптографически случайный токен из 2*n hex-символов.
func New(n int) (string, error) {
	const op = "token.New"
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return hex.EncodeToString(buf), nil
}
