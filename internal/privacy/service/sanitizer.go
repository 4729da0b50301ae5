// Package service implements payload sanitization for fitness data.
//
// Sanitization runs before encryption and is deliberately lossy: pseudonyms
// cannot be reversed, removed fields are gone and coarsened timestamps stay
// coarse. What comes back out of an envelope is therefore never more
// sensitive than what the sanitizer let in.
package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"math"
	"time"

	privacyDomain "github.com/fitvault/fitvault/internal/privacy/domain"
)

// pseudonymLength is the number of hex characters kept from the HMAC digest.
// 16 characters (64 bits) keep pseudonyms short while making collisions
// between distinct user ids negligible.
const pseudonymLength = 16

// PayloadSanitizer redacts high-risk fields from fitness payloads.
//
// It is stateless apart from the pseudonymization salt and safe for
// concurrent use. Input maps are never mutated: every sanitization returns a
// deep copy with the redactions applied.
type PayloadSanitizer struct {
	salt []byte
}

// NewPayloadSanitizer creates a PayloadSanitizer keyed with the given salt.
//
// The salt makes pseudonyms deterministic within a deployment (the same user
// id always maps to the same pseudonym, keeping records joinable) while
// preventing precomputed reversal across deployments.
func NewPayloadSanitizer(salt string) *PayloadSanitizer {
	return &PayloadSanitizer{salt: []byte(salt)}
}

// PseudonymizeID replaces a raw user identifier with a deterministic
// one-way pseudonym.
//
// The pseudonym is the hex form of HMAC-SHA256(salt, id) truncated to 16
// characters. It never equals the raw id and cannot be reversed without the
// salt.
func (p *PayloadSanitizer) PseudonymizeID(id string) string {
	mac := hmac.New(sha256.New, p.salt)
	mac.Write([]byte(id))
	return hex.EncodeToString(mac.Sum(nil))[:pseudonymLength]
}

// SanitizeSession returns a deep copy of a workout session payload with
// identifying fields redacted.
//
// At every nesting level it removes free-text fields (notes, comments) and
// replaces string-valued user identifier fields (user_id, userId) with their
// pseudonyms. Session summaries carry exercise lists whose entries also
// carry notes, so the walk descends into nested maps and lists. The input
// map is not modified.
func (p *PayloadSanitizer) SanitizeSession(session map[string]any) map[string]any {
	if session == nil {
		return nil
	}
	return p.sanitizeSessionMap(session)
}

func (p *PayloadSanitizer) sanitizeSessionMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for key, value := range m {
		if privacyDomain.IsFreeTextField(key) {
			continue
		}
		if privacyDomain.IsIdentifierField(key) {
			if id, ok := value.(string); ok {
				out[key] = p.PseudonymizeID(id)
				continue
			}
		}
		out[key] = p.sanitizeSessionValue(value)
	}
	return out
}

func (p *PayloadSanitizer) sanitizeSessionValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return p.sanitizeSessionMap(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = p.sanitizeSessionValue(item)
		}
		return out
	default:
		return value
	}
}

// SanitizePoseFrame returns a deep copy of a pose estimation frame with
// biometric identifiers redacted.
//
// Facial landmarks are removed both from "keypoints" maps (keyed by landmark
// name) and from "landmarks" lists (entries carrying a "name" field); body
// landmarks pass through. Timestamp fields are coarsened to one-second
// granularity at every nesting level, which defeats re-identification via
// fine-grained frame timing. The input map is not modified.
func (p *PayloadSanitizer) SanitizePoseFrame(frame map[string]any) map[string]any {
	if frame == nil {
		return nil
	}
	return p.sanitizePoseMap(frame)
}

func (p *PayloadSanitizer) sanitizePoseMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for key, value := range m {
		if key == privacyDomain.TimestampField {
			out[key] = coarsenTimestamp(value)
			continue
		}
		if key == "keypoints" {
			if keypoints, ok := value.(map[string]any); ok {
				out[key] = p.dropFacialKeypoints(keypoints)
				continue
			}
		}
		if key == "landmarks" {
			if landmarks, ok := value.([]any); ok {
				out[key] = p.dropFacialLandmarkEntries(landmarks)
				continue
			}
		}
		out[key] = p.sanitizePoseValue(value)
	}
	return out
}

func (p *PayloadSanitizer) sanitizePoseValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return p.sanitizePoseMap(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = p.sanitizePoseValue(item)
		}
		return out
	default:
		return value
	}
}

// dropFacialKeypoints filters a keypoints map keyed by landmark name.
func (p *PayloadSanitizer) dropFacialKeypoints(keypoints map[string]any) map[string]any {
	out := make(map[string]any, len(keypoints))
	for name, coords := range keypoints {
		if privacyDomain.IsFacialLandmark(name) {
			continue
		}
		out[name] = p.sanitizePoseValue(coords)
	}
	return out
}

// dropFacialLandmarkEntries filters a landmarks list whose entries carry a
// "name" field. Entries without a recognizable name are kept.
func (p *PayloadSanitizer) dropFacialLandmarkEntries(landmarks []any) []any {
	out := make([]any, 0, len(landmarks))
	for _, entry := range landmarks {
		if m, ok := entry.(map[string]any); ok {
			if name, ok := m["name"].(string); ok && privacyDomain.IsFacialLandmark(name) {
				continue
			}
		}
		out = append(out, p.sanitizePoseValue(entry))
	}
	return out
}

// coarsenTimestamp truncates a timestamp value to one-second granularity.
//
// Numeric epoch values are treated as seconds and floored. RFC 3339 strings
// are re-rendered with sub-second precision removed. Values that are neither
// pass through unchanged.
func coarsenTimestamp(value any) any {
	switch ts := value.(type) {
	case float64:
		return math.Floor(ts)
	case string:
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return ts
		}
		return t.Truncate(time.Second).Format(time.RFC3339)
	default:
		return value
	}
}
