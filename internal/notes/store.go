package notes

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sshadulla22/SyntaxVerse-Backend/internal/db"
)

// noteColumns is the canonical column list scanned by scanNote.
const noteColumns = "id, title, content, is_folder, parent_id, cover_image, owner_id, created_at, updated_at"

// Store runs note queries against a DBTX, so the same code serves both
// direct reads and service-level transactions. Every owner-scoped query
// takes the owner id explicitly; there is no ambient current user.
type Store struct {
	q db.DBTX
}

// NewStore creates a Store over the given DBTX (sql.DB or sql.Tx).
func NewStore(q db.DBTX) *Store {
	return &Store{q: q}
}

// GetByID fetches a single note owned by ownerID. Returns sql.ErrNoRows when
// the note does not exist or belongs to someone else; callers cannot tell
// the two apart.
func (s *Store) GetByID(ctx context.Context, ownerID, id string) (*Note, error) {
	row := s.q.QueryRowContext(ctx,
		"SELECT "+noteColumns+" FROM notes WHERE id = ? AND owner_id = ?",
		id, ownerID)
	return scanNote(row)
}

// GetRoots lists ownerID's notes with no parent.
func (s *Store) GetRoots(ctx context.Context, ownerID string) ([]Note, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT "+noteColumns+" FROM notes WHERE owner_id = ? AND parent_id IS NULL ORDER BY created_at, id",
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query root notes: %w", err)
	}
	return scanNotes(rows)
}

// GetChildren lists the direct children of parentID. Ownership of the parent
// is checked by the service before this runs; children always share the
// parent's owner.
func (s *Store) GetChildren(ctx context.Context, parentID string) ([]Note, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT "+noteColumns+" FROM notes WHERE parent_id = ? ORDER BY created_at, id",
		parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query children: %w", err)
	}
	return scanNotes(rows)
}

// Search finds ownerID's notes whose title or content contains query as a
// case-insensitive substring, newest first by last modification. LIKE
// metacharacters in the query are escaped so they match literally.
func (s *Store) Search(ctx context.Context, ownerID, query string, limit int) ([]Note, error) {
	pattern := "%" + escapeLike(query) + "%"
	rows, err := s.q.QueryContext(ctx,
		"SELECT "+noteColumns+` FROM notes
		 WHERE owner_id = ? AND (title LIKE ? ESCAPE '\' OR content LIKE ? ESCAPE '\')
		 ORDER BY COALESCE(updated_at, created_at) DESC, id
		 LIMIT ?`,
		ownerID, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search notes: %w", err)
	}
	return scanNotes(rows)
}

// Insert writes a fully populated note row.
func (s *Store) Insert(ctx context.Context, n *Note) error {
	var updatedAt any
	if n.UpdatedAt != nil {
		updatedAt = n.UpdatedAt.Unix()
	}
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO notes (id, title, content, is_folder, parent_id, cover_image, owner_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.Title, n.Content, boolToInt(n.IsFolder), n.ParentID, n.CoverImage,
		n.OwnerID, n.CreatedAt.Unix(), updatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert note: %w", err)
	}
	return nil
}

// ApplyPatch updates only the fields present in params, plus updated_at.
// An absent field leaves the column untouched. parent_id and cover_image
// accept explicit NULL. Returns sql.ErrNoRows when no owned row matched.
func (s *Store) ApplyPatch(ctx context.Context, ownerID, id string, params UpdateNoteParams, now time.Time) error {
	sets := []string{"updated_at = ?"}
	args := []any{now.Unix()}

	if params.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *params.Title)
	}
	if params.Content != nil {
		sets = append(sets, "content = ?")
		args = append(args, *params.Content)
	}
	if params.ParentID.Set {
		sets = append(sets, "parent_id = ?")
		args = append(args, params.ParentID.Value)
	}
	if params.CoverImage.Set {
		sets = append(sets, "cover_image = ?")
		args = append(args, params.CoverImage.Value)
	}

	args = append(args, id, ownerID)
	res, err := s.q.ExecContext(ctx,
		"UPDATE notes SET "+strings.Join(sets, ", ")+" WHERE id = ? AND owner_id = ?",
		args...)
	if err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteOne deletes a single owned note without cascading. Returns
// sql.ErrNoRows when no owned row matched.
func (s *Store) DeleteOne(ctx context.Context, ownerID, id string) error {
	res, err := s.q.ExecContext(ctx,
		"DELETE FROM notes WHERE id = ? AND owner_id = ?", id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func scanNote(row *sql.Row) (*Note, error) {
	var n Note
	var isFolder int64
	var parentID, coverImage sql.NullString
	var createdAt int64
	var updatedAt sql.NullInt64
	err := row.Scan(&n.ID, &n.Title, &n.Content, &isFolder, &parentID, &coverImage,
		&n.OwnerID, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	fillNote(&n, isFolder, parentID, coverImage, createdAt, updatedAt)
	return &n, nil
}

func scanNotes(rows *sql.Rows) ([]Note, error) {
	defer rows.Close()
	result := []Note{}
	for rows.Next() {
		var n Note
		var isFolder int64
		var parentID, coverImage sql.NullString
		var createdAt int64
		var updatedAt sql.NullInt64
		if err := rows.Scan(&n.ID, &n.Title, &n.Content, &isFolder, &parentID, &coverImage,
			&n.OwnerID, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		fillNote(&n, isFolder, parentID, coverImage, createdAt, updatedAt)
		result = append(result, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notes: %w", err)
	}
	return result, nil
}

func fillNote(n *Note, isFolder int64, parentID, coverImage sql.NullString, createdAt int64, updatedAt sql.NullInt64) {
	n.IsFolder = isFolder != 0
	if parentID.Valid {
		v := parentID.String
		n.ParentID = &v
	}
	if coverImage.Valid {
		v := coverImage.String
		n.CoverImage = &v
	}
	n.CreatedAt = time.Unix(createdAt, 0).UTC()
	if updatedAt.Valid {
		t := time.Unix(updatedAt.Int64, 0).UTC()
		n.UpdatedAt = &t
	}
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
