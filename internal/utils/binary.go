package utils

import (
	"bytes"
)

// sniffLength defines the maximum number of bytes inspected when detecting binary content.
const sniffLength = 8000

var (
	utf16LittleEndianByteOrderMark = []byte{0xFF, 0xFE}
	utf16BigEndianByteOrderMark    = []byte{0xFE, 0xFF}
)

// IsBinary reports whether the provided byte slice appears to contain binary data.
// Only a NUL byte within the first sniffLength bytes counts; invalid UTF-8 is
// left to lossy decoding. Data opening with a UTF-16 byte order mark is text.
func IsBinary(data []byte) bool {
	if HasUTF16ByteOrderMark(data) {
		return false
	}
	if len(data) > sniffLength {
		data = data[:sniffLength]
	}
	return bytes.IndexByte(data, 0) >= 0
}

// HasUTF16ByteOrderMark reports whether data starts with a UTF-16 byte order mark.
func HasUTF16ByteOrderMark(data []byte) bool {
	return bytes.HasPrefix(data, utf16LittleEndianByteOrderMark) || bytes.HasPrefix(data, utf16BigEndianByteOrderMark)
}
