package utils

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// GenerateNanoIDWithPrefix returns a prefixed nanoid, e.g. "acct_x7f2...".
func GenerateNanoIDWithPrefix(prefix string, length int) string {
	id, err := gonanoid.Generate(idAlphabet, length)
	if err != nil {
		// gonanoid only fails on a broken entropy source
		panic(fmt.Sprintf("nanoid generation failed: %v", err))
	}
	return fmt.Sprintf("%s_%s", prefix, id)
}
