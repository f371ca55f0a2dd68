package notes

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/sshadulla22/SyntaxVerse-Backend/internal/db"
	"github.com/sshadulla22/SyntaxVerse-Backend/internal/errs"
)

// SearchLimit caps the number of search results per query.
const SearchLimit = 10

// Service implements the note and folder operations on top of the store.
// Every method takes the calling user's id; a note owned by someone else is
// reported as missing, never as forbidden.
type Service struct {
	db *db.DB
}

// NewService creates a notes service over the application database.
func NewService(database *db.DB) *Service {
	return &Service{db: database}
}

// ListRoots returns the caller's notes and folders with no parent.
func (s *Service) ListRoots(ctx context.Context, ownerID string) ([]Note, error) {
	roots, err := NewStore(s.db.SQL()).GetRoots(ctx, ownerID)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to list notes", err)
	}
	return roots, nil
}

// Get returns a single owned note.
func (s *Service) Get(ctx context.Context, ownerID, id string) (*Note, error) {
	note, err := NewStore(s.db.SQL()).GetByID(ctx, ownerID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.New(errs.NotFound, "Note not found")
	}
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to read note", err)
	}
	return note, nil
}

// ListChildren returns the direct children of an owned folder.
func (s *Service) ListChildren(ctx context.Context, ownerID, id string) ([]Note, error) {
	store := NewStore(s.db.SQL())
	parent, err := store.GetByID(ctx, ownerID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.New(errs.NotFound, "Parent note not found")
	}
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to read parent", err)
	}
	if !parent.IsFolder {
		return nil, errs.New(errs.InvalidArgument, "Note is not a folder")
	}
	children, err := store.GetChildren(ctx, id)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to list children", err)
	}
	return children, nil
}

// Search returns up to SearchLimit of the caller's notes whose title or
// content contains query, most recently modified first.
func (s *Service) Search(ctx context.Context, ownerID, query string) ([]Note, error) {
	results, err := NewStore(s.db.SQL()).Search(ctx, ownerID, query, SearchLimit)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to search notes", err)
	}
	return results, nil
}

// Create creates a note or folder. A non-nil parent must exist, belong to
// the caller, and be a folder.
func (s *Service) Create(ctx context.Context, ownerID string, params CreateNoteParams) (*Note, error) {
	if params.Title == "" {
		return nil, errs.New(errs.InvalidArgument, "title is required")
	}

	note := &Note{
		ID:         uuid.NewString(),
		Title:      params.Title,
		Content:    params.Content,
		IsFolder:   params.IsFolder,
		ParentID:   params.ParentID,
		CoverImage: params.CoverImage,
		OwnerID:    ownerID,
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
	}

	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		store := NewStore(tx)
		if params.ParentID != nil {
			if err := s.validateParent(ctx, store, ownerID, *params.ParentID); err != nil {
				return err
			}
		}
		return store.Insert(ctx, note)
	})
	if err != nil {
		return nil, serviceErr("failed to create note", err)
	}
	return note, nil
}

// Update applies a partial update to an owned note. The parent field is
// tri-state: omitted leaves the parent alone, explicit null promotes the
// note to root, and a value reparents under a validated folder. A move that
// would place a folder inside its own subtree is rejected.
func (s *Service) Update(ctx context.Context, ownerID, id string, params UpdateNoteParams) (*Note, error) {
	var updated *Note
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		store := NewStore(tx)
		if _, err := store.GetByID(ctx, ownerID, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errs.New(errs.NotFound, "Note not found")
			}
			return err
		}

		if params.ParentID.Set && params.ParentID.Value != nil {
			newParent := *params.ParentID.Value
			if err := s.validateParent(ctx, store, ownerID, newParent); err != nil {
				return err
			}
			if err := s.checkNoCycle(ctx, store, ownerID, id, newParent); err != nil {
				return err
			}
		}

		if err := store.ApplyPatch(ctx, ownerID, id, params, time.Now().UTC()); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errs.New(errs.NotFound, "Note not found")
			}
			return err
		}

		note, err := store.GetByID(ctx, ownerID, id)
		if err != nil {
			return err
		}
		updated = note
		return nil
	})
	if err != nil {
		return nil, serviceErr("failed to update note", err)
	}
	return updated, nil
}

// Delete removes an owned note. Deleting a folder removes its entire
// subtree. The whole cascade runs in one transaction.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		store := NewStore(tx)
		target, err := store.GetByID(ctx, ownerID, id)
		if errors.Is(err, sql.ErrNoRows) {
			return errs.New(errs.NotFound, "Note not found")
		}
		if err != nil {
			return err
		}

		if target.IsFolder {
			descendants, err := collectDescendants(ctx, store, id)
			if err != nil {
				return err
			}
			// Children before parents, so the self-referencing foreign key
			// never sees a dangling parent.
			for i := len(descendants) - 1; i >= 0; i-- {
				if err := store.DeleteOne(ctx, ownerID, descendants[i]); err != nil {
					return err
				}
			}
		}
		return store.DeleteOne(ctx, ownerID, id)
	})
	if err != nil {
		return serviceErr("failed to delete note", err)
	}
	return nil
}

// validateParent checks that a proposed parent exists, is owned by the
// caller, and is a folder.
func (s *Service) validateParent(ctx context.Context, store *Store, ownerID, parentID string) error {
	parent, err := store.GetByID(ctx, ownerID, parentID)
	if errors.Is(err, sql.ErrNoRows) {
		return errs.New(errs.NotFound, "Parent note not found")
	}
	if err != nil {
		return err
	}
	if !parent.IsFolder {
		return errs.New(errs.InvalidArgument, "Parent must be a folder")
	}
	return nil
}

// checkNoCycle walks the ancestor chain of newParent and rejects the move
// if it passes through the note being moved. The visited set stops a walk
// over an already corrupted parent graph.
func (s *Service) checkNoCycle(ctx context.Context, store *Store, ownerID, id, newParent string) error {
	visited := map[string]bool{}
	cur := newParent
	for {
		if cur == id {
			return errs.New(errs.InvalidArgument, "A note cannot be moved into its own subtree")
		}
		if visited[cur] {
			return nil
		}
		visited[cur] = true
		node, err := store.GetByID(ctx, ownerID, cur)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		if node.ParentID == nil {
			return nil
		}
		cur = *node.ParentID
	}
}

// collectDescendants gathers every descendant of rootID in parent-first
// order using an explicit worklist. The visited set guards against loops in
// a corrupted parent graph.
func collectDescendants(ctx context.Context, store *Store, rootID string) ([]string, error) {
	var order []string
	visited := map[string]bool{rootID: true}
	stack := []string{rootID}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		children, err := store.GetChildren(ctx, cur)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			if visited[child.ID] {
				continue
			}
			visited[child.ID] = true
			order = append(order, child.ID)
			stack = append(stack, child.ID)
		}
	}
	return order, nil
}

// serviceErr passes coded errors through and wraps everything else as an
// internal storage failure.
func serviceErr(msg string, err error) error {
	var coded *errs.Error
	if errors.As(err, &coded) {
		return err
	}
	return errs.Wrap(errs.Internal, msg, err)
}
