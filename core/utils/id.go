package utils

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const idAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// GenerateID returns a short id used to correlate log lines of one computation.
func GenerateID() string {
	id, err := gonanoid.Generate(idAlphabet, 10)
	if err != nil {
		return ""
	}
	return id
}
