package utils

import (
	"github.com/mogaika/diesel_model_tool/config"

	"golang.org/x/text/transform"
)

// EncodeName converts a UTF-8 name into the engine 8-bit encoding.
// Runes missing from the charmap are kept as their UTF-8 bytes.
func EncodeName(s string) []byte {
	b, _, err := transform.Bytes(config.GetEncoding().NewEncoder(), []byte(s))
	if err != nil {
		return []byte(s)
	}
	return b
}
