package util

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const runIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewRunID generates a short URL-safe identifier for an analysis run.
func NewRunID() (string, error) {
	return gonanoid.Generate(runIDAlphabet, 16)
}
