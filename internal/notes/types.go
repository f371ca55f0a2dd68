package notes

import (
	"bytes"
	"encoding/json"
	"time"
)

// Note represents a note or folder in a user's hierarchy. Folders and
// documents share the table; IsFolder distinguishes them. A nil ParentID
// means the note sits at the root level.
type Note struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	IsFolder   bool       `json:"is_folder"`
	ParentID   *string    `json:"parent_id"`
	CoverImage *string    `json:"cover_image"`
	OwnerID    string     `json:"owner_id"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at"`
}

// CreateNoteParams contains parameters for creating a note or folder.
type CreateNoteParams struct {
	Title      string  `json:"title"`
	Content    string  `json:"content"`
	IsFolder   bool    `json:"is_folder"`
	ParentID   *string `json:"parent_id"`
	CoverImage *string `json:"cover_image"`
}

// UpdateNoteParams contains parameters for a partial note update. All fields
// are optional. Title and Content use pointers to distinguish omitted from
// provided. ParentID and CoverImage need three states (omitted, explicit
// null, value), so they use OptionalString: an explicit null parent promotes
// the note to root, an explicit null cover clears the image.
type UpdateNoteParams struct {
	Title      *string        `json:"title"`
	Content    *string        `json:"content"`
	ParentID   OptionalString `json:"parent_id"`
	CoverImage OptionalString `json:"cover_image"`
}

// OptionalString is a JSON field that records whether it appeared in the
// payload at all. Set is false when the key was absent, true otherwise;
// Value is nil for an explicit null.
type OptionalString struct {
	Set   bool
	Value *string
}

var jsonNull = []byte("null")

func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

func (o OptionalString) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return jsonNull, nil
	}
	return json.Marshal(*o.Value)
}
