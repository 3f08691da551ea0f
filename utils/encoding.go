package utils

import "encoding/base64"

// EncodeImage encodes raw image bytes into the base64 form the
// verification endpoint expects.
func EncodeImage(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}
