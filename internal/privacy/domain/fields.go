// Package domain defines the field classification tables for payload
// sanitization.
//
// Sanitization is driven entirely by field names: free-text fields are
// removed, user identifiers are pseudonymized, timestamps are coarsened and
// facial landmarks are dropped. The tables here name those fields once so
// the sanitizer and its tests agree on what gets redacted.
package domain

// facialLandmarkNames lists the pose landmarks that can identify a face.
//
// They are the first eleven landmarks of the standard 33-point pose model.
// Body landmarks (shoulders, elbows, hips and below) are not listed and pass
// through sanitization untouched.
var facialLandmarkNames = map[string]struct{}{
	"nose":            {},
	"left_eye_inner":  {},
	"left_eye":        {},
	"left_eye_outer":  {},
	"right_eye_inner": {},
	"right_eye":       {},
	"right_eye_outer": {},
	"left_ear":        {},
	"right_ear":       {},
	"mouth_left":      {},
	"mouth_right":     {},
}

// freeTextFieldNames lists fields that may carry arbitrary user-written text.
// Free text cannot be selectively redacted, so these fields are removed
// entirely at every nesting level.
var freeTextFieldNames = map[string]struct{}{
	"notes":    {},
	"comments": {},
}

// identifierFieldNames lists the spellings under which payloads carry the
// raw user identifier.
var identifierFieldNames = map[string]struct{}{
	"user_id": {},
	"userId":  {},
}

// TimestampField is the field name whose values are coarsened to one-second
// granularity in pose frames.
const TimestampField = "timestamp"

// IsFacialLandmark reports whether the landmark name identifies a face.
func IsFacialLandmark(name string) bool {
	_, ok := facialLandmarkNames[name]
	return ok
}

// IsFreeTextField reports whether the field carries free-form user text and
// must be removed.
func IsFreeTextField(name string) bool {
	_, ok := freeTextFieldNames[name]
	return ok
}

// IsIdentifierField reports whether the field carries the raw user
// identifier and must be pseudonymized.
func IsIdentifierField(name string) bool {
	_, ok := identifierFieldNames[name]
	return ok
}

// FacialLandmarkCount returns the number of landmark names classified as
// facial.
func FacialLandmarkCount() int {
	return len(facialLandmarkNames)
}
