// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	"time"

	cryptoDomain "github.com/fitvault/fitvault/internal/crypto/domain"
)

// KeyResponse represents master key metadata in API responses.
// It never carries key material: the registry is the only holder of key bytes.
type KeyResponse struct {
	KeyID       string    `json:"key_id"`
	OwnerScope  string    `json:"owner_scope"`
	State       string    `json:"state"`
	Algorithm   string    `json:"algorithm"`
	RotatedFrom string    `json:"rotated_from,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// MapMasterKeyToResponse converts a domain master key to an API response.
func MapMasterKeyToResponse(key *cryptoDomain.MasterKey) KeyResponse {
	return KeyResponse{
		KeyID:       key.KeyID,
		OwnerScope:  key.OwnerScope,
		State:       string(key.State),
		Algorithm:   string(key.Algorithm),
		RotatedFrom: key.RotatedFrom,
		CreatedAt:   key.CreatedAt,
	}
}

// RotationEventResponse represents a key rotation audit record in API responses.
type RotationEventResponse struct {
	UserID    string    `json:"user_id"`
	OldKeyID  string    `json:"old_key_id"`
	NewKeyID  string    `json:"new_key_id"`
	RotatedAt time.Time `json:"rotated_at"`
}

// ListRotationEventsResponse represents a paginated list of rotation events in API responses.
type ListRotationEventsResponse struct {
	Data []RotationEventResponse `json:"data"`
}

// MapRotationEventsToListResponse converts a slice of domain rotation events to a list response.
func MapRotationEventsToListResponse(events []cryptoDomain.RotationEvent) ListRotationEventsResponse {
	data := make([]RotationEventResponse, 0, len(events))
	for _, ev := range events {
		data = append(data, RotationEventResponse{
			UserID:    ev.UserID,
			OldKeyID:  ev.OldKeyID,
			NewKeyID:  ev.NewKeyID,
			RotatedAt: ev.RotatedAt,
		})
	}

	return ListRotationEventsResponse{
		Data: data,
	}
}
