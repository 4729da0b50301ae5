// Package dto provides data transfer objects for HTTP request and response handling.
package dto

// Encrypt endpoints respond with the envelope itself: the envelope struct in
// the domain package is the wire format consumed by foreign decryptors, so
// there is no separate response type to drift from it.

// DecryptResponse contains the recovered plaintext of a decryption operation.
// SECURITY: The Plaintext field contains sensitive data and should be transmitted over HTTPS.
type DecryptResponse struct {
	Plaintext []byte `json:"plaintext"` // Serialized as base64 by encoding/json
}

// MapDecryptResponse converts recovered plaintext to an API response.
// The response aliases the buffer; callers zero it only after the response
// has been written.
func MapDecryptResponse(plaintext []byte) DecryptResponse {
	return DecryptResponse{Plaintext: plaintext}
}
