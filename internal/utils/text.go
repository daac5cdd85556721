package utils

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DecodeText converts raw file bytes into valid UTF-8. A UTF-8 or UTF-16 byte
// order mark selects the source encoding; byte sequences that are not valid
// UTF-8 are dropped while decodable runes, U+FFFD included, are kept.
func DecodeText(data []byte) (string, error) {
	decoded, readError := io.ReadAll(transform.NewReader(bytes.NewReader(data), unicode.BOMOverride(transform.Nop)))
	if readError != nil {
		return "", readError
	}
	return strings.ToValidUTF8(string(decoded), ""), nil
}
