package notes

import (
	"context"
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"github.com/sshadulla22/SyntaxVerse-Backend/internal/errs"
	"github.com/sshadulla22/SyntaxVerse-Backend/internal/testdb"
)

// newTestServiceRapid is the property-test variant of newTestService.
// rapid.T has no Cleanup, so the caller defers the returned close func.
func newTestServiceRapid(t *rapid.T) (*Service, string, string, func()) {
	database, err := testdb.NewInMemory("")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	owner, err := testdb.CreateUser(database, "owner@example.com")
	if err != nil {
		t.Fatalf("failed to create owner: %v", err)
	}
	other, err := testdb.CreateUser(database, "other@example.com")
	if err != nil {
		t.Fatalf("failed to create other user: %v", err)
	}
	return NewService(database), owner, other, func() { database.Close() }
}

// buildRandomForest creates a random mix of folders and leaves for owner and
// returns all created notes. Parents are always drawn from already created
// folders, so the structure is a valid forest by construction.
func buildRandomForest(t *rapid.T, svc *Service, owner string, size int) []*Note {
	ctx := context.Background()
	var all []*Note
	var folders []*Note
	for i := 0; i < size; i++ {
		isFolder := rapid.Bool().Draw(t, fmt.Sprintf("isFolder%d", i))
		var parentID *string
		if len(folders) > 0 && rapid.Bool().Draw(t, fmt.Sprintf("nested%d", i)) {
			idx := rapid.IntRange(0, len(folders)-1).Draw(t, fmt.Sprintf("parent%d", i))
			parentID = &folders[idx].ID
		}
		note, err := svc.Create(ctx, owner, CreateNoteParams{
			Title:    fmt.Sprintf("note-%d", i),
			Content:  rapid.StringMatching(`[a-z ]{0,30}`).Draw(t, fmt.Sprintf("content%d", i)),
			IsFolder: isFolder,
			ParentID: parentID,
		})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		all = append(all, note)
		if isFolder {
			folders = append(folders, note)
		}
	}
	return all
}

// subtreeOf returns the ids in root's subtree, root included, computed over
// the in-memory parent pointers independently of the service.
func subtreeOf(all []*Note, rootID string) map[string]bool {
	parent := map[string]string{}
	for _, n := range all {
		if n.ParentID != nil {
			parent[n.ID] = *n.ParentID
		}
	}
	member := map[string]bool{rootID: true}
	changed := true
	for changed {
		changed = false
		for _, n := range all {
			if member[n.ID] {
				continue
			}
			if p, ok := parent[n.ID]; ok && member[p] {
				member[n.ID] = true
				changed = true
			}
		}
	}
	return member
}

func testDeleteRemovesExactlySubtree(t *rapid.T) {
	svc, owner, other, done := newTestServiceRapid(t)
	defer done()
	ctx := context.Background()

	all := buildRandomForest(t, svc, owner, rapid.IntRange(1, 12).Draw(t, "size"))
	foreign, err := svc.Create(ctx, other, CreateNoteParams{Title: "foreign"})
	if err != nil {
		t.Fatalf("Create foreign failed: %v", err)
	}

	idx := rapid.IntRange(0, len(all)-1).Draw(t, "victim")
	victim := all[idx]
	expectGone := subtreeOf(all, victim.ID)

	if err := svc.Delete(ctx, owner, victim.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	for _, n := range all {
		_, err := svc.Get(ctx, owner, n.ID)
		if expectGone[n.ID] {
			if errs.CodeOf(err) != errs.NotFound {
				t.Fatalf("note %s should be deleted, got %v", n.ID, err)
			}
		} else if err != nil {
			t.Fatalf("note %s should survive, got %v", n.ID, err)
		}
	}
	if _, err := svc.Get(ctx, other, foreign.ID); err != nil {
		t.Fatalf("foreign note should be untouched: %v", err)
	}
}

func TestDeleteRemovesExactlySubtree(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testDeleteRemovesExactlySubtree)
}

func testPatchTouchesOnlyProvidedFields(t *rapid.T) {
	svc, owner, _, done := newTestServiceRapid(t)
	defer done()
	ctx := context.Background()

	folder, err := svc.Create(ctx, owner, CreateNoteParams{Title: "f", IsFolder: true})
	if err != nil {
		t.Fatalf("Create folder failed: %v", err)
	}
	orig, err := svc.Create(ctx, owner, CreateNoteParams{
		Title:    "orig",
		Content:  "orig content",
		ParentID: &folder.ID,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	var params UpdateNoteParams
	if rapid.Bool().Draw(t, "setTitle") {
		v := rapid.StringMatching(`[a-z]{1,10}`).Draw(t, "title")
		params.Title = &v
	}
	if rapid.Bool().Draw(t, "setContent") {
		v := rapid.StringMatching(`[a-z ]{0,20}`).Draw(t, "content")
		params.Content = &v
	}
	if rapid.Bool().Draw(t, "setParent") {
		// Either promote to root or keep the same folder.
		params.ParentID = OptionalString{Set: true}
		if rapid.Bool().Draw(t, "parentValue") {
			params.ParentID.Value = &folder.ID
		}
	}

	got, err := svc.Update(ctx, owner, orig.ID, params)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	wantTitle := orig.Title
	if params.Title != nil {
		wantTitle = *params.Title
	}
	wantContent := orig.Content
	if params.Content != nil {
		wantContent = *params.Content
	}
	if got.Title != wantTitle || got.Content != wantContent {
		t.Fatalf("patched note mismatch: got=%+v", got)
	}

	switch {
	case !params.ParentID.Set:
		if got.ParentID == nil || *got.ParentID != folder.ID {
			t.Fatalf("unset parent field must not change parent: %v", got.ParentID)
		}
	case params.ParentID.Value == nil:
		if got.ParentID != nil {
			t.Fatalf("null parent must promote to root, got %v", *got.ParentID)
		}
	default:
		if got.ParentID == nil || *got.ParentID != *params.ParentID.Value {
			t.Fatalf("parent not applied: %v", got.ParentID)
		}
	}
	if got.IsFolder != orig.IsFolder {
		t.Fatal("is_folder must be immutable")
	}
	if got.UpdatedAt == nil {
		t.Fatal("expected UpdatedAt after patch")
	}
}

func TestPatchTouchesOnlyProvidedFields(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testPatchTouchesOnlyProvidedFields)
}
