package rpc

import (
	"fmt"
	"unicode/utf8"
)

const previewLimit = 1024

// preview decodes body for log and error messages.
func preview(body []byte) string {
	if body == nil {
		return "nil"
	}
	if !utf8.Valid(body) {
		return fmt.Sprintf("<%d bytes of binary data>", len(body))
	}
	if len(body) <= previewLimit {
		return string(body)
	}

	cut := previewLimit
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return fmt.Sprintf("%s... (%d bytes)", body[:cut], len(body))
}
