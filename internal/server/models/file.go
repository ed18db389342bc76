// Package models defines server-side data models persisted in the database.
package models

import "time"

// StoredFile describes metadata for one uploaded blob. The payload itself
// lives in object storage under ObjectKey; this row is the only record of
// who owns it.
type StoredFile struct {
	// ID is assigned once at creation and never reused.
	ID string
	// Filename is the original client-supplied name; not unique across files.
	Filename string
	// SizeBytes is the total payload length, set at upload completion.
	SizeBytes int64
	// ContentType is the MIME type, client-provided or inferred.
	ContentType string
	// ObjectKey is the object-storage key of the blob.
	ObjectKey string

	// OwnerID / OwnerEmail / OwnerName describe the uploader as resolved at
	// upload time. At least one is set; listing matches against them in
	// priority order.
	OwnerID    string
	OwnerEmail string
	OwnerName  string

	// UploadedAt is set at creation and never mutated.
	UploadedAt time.Time
}

// Identity is the set of attributes describing an authenticated caller,
// as resolved from a session token.
type Identity struct {
	ID    string
	Email string
	Name  string
}

// IsZero reports whether no identity attribute is present.
func (i Identity) IsZero() bool {
	return i.ID == "" && i.Email == "" && i.Name == ""
}
