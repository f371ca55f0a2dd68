package notes

import (
	"context"
	"strings"
	"testing"

	"github.com/sshadulla22/SyntaxVerse-Backend/internal/errs"
	"github.com/sshadulla22/SyntaxVerse-Backend/internal/testdb"
)

func newTestService(t *testing.T) (*Service, string, string) {
	t.Helper()
	database, err := testdb.NewInMemory("")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	owner, err := testdb.CreateUser(database, "owner@example.com")
	if err != nil {
		t.Fatalf("failed to create owner: %v", err)
	}
	other, err := testdb.CreateUser(database, "other@example.com")
	if err != nil {
		t.Fatalf("failed to create other user: %v", err)
	}
	return NewService(database), owner, other
}

func mustCreate(t *testing.T, svc *Service, owner string, params CreateNoteParams) *Note {
	t.Helper()
	note, err := svc.Create(context.Background(), owner, params)
	if err != nil {
		t.Fatalf("Create(%q) failed: %v", params.Title, err)
	}
	return note
}

func strPtr(s string) *string { return &s }

func TestCreateAndGet(t *testing.T) {
	svc, owner, _ := newTestService(t)
	ctx := context.Background()

	note := mustCreate(t, svc, owner, CreateNoteParams{Title: "First", Content: "hello"})
	if note.ID == "" {
		t.Fatal("expected generated id")
	}
	if note.UpdatedAt != nil {
		t.Fatalf("expected nil UpdatedAt on create, got %v", note.UpdatedAt)
	}

	got, err := svc.Get(ctx, owner, note.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Title != "First" || got.Content != "hello" || got.OwnerID != owner {
		t.Fatalf("unexpected note: %+v", got)
	}
	if got.ParentID != nil {
		t.Fatalf("expected root note, got parent %v", *got.ParentID)
	}
}

func TestCreateRequiresTitle(t *testing.T) {
	svc, owner, _ := newTestService(t)
	_, err := svc.Create(context.Background(), owner, CreateNoteParams{Content: "no title"})
	if errs.CodeOf(err) != errs.InvalidArgument {
		t.Fatalf("expected invalid_argument, got %v (code=%q)", err, errs.CodeOf(err))
	}
}

func TestCreateParentValidation(t *testing.T) {
	svc, owner, _ := newTestService(t)
	folder := mustCreate(t, svc, owner, CreateNoteParams{Title: "Folder", IsFolder: true})
	leaf := mustCreate(t, svc, owner, CreateNoteParams{Title: "Leaf"})

	child := mustCreate(t, svc, owner, CreateNoteParams{Title: "Child", ParentID: &folder.ID})
	if child.ParentID == nil || *child.ParentID != folder.ID {
		t.Fatalf("expected parent %s, got %v", folder.ID, child.ParentID)
	}

	_, err := svc.Create(context.Background(), owner, CreateNoteParams{Title: "X", ParentID: strPtr("missing")})
	if errs.CodeOf(err) != errs.NotFound {
		t.Fatalf("missing parent: expected not_found, got %v", err)
	}
	if errs.MessageOf(err) != "Parent note not found" {
		t.Fatalf("unexpected message: %q", errs.MessageOf(err))
	}

	_, err = svc.Create(context.Background(), owner, CreateNoteParams{Title: "X", ParentID: &leaf.ID})
	if errs.CodeOf(err) != errs.InvalidArgument {
		t.Fatalf("leaf parent: expected invalid_argument, got %v", err)
	}
	if errs.MessageOf(err) != "Parent must be a folder" {
		t.Fatalf("unexpected message: %q", errs.MessageOf(err))
	}
}

func TestForeignNotesLookMissing(t *testing.T) {
	svc, owner, other := newTestService(t)
	ctx := context.Background()

	note := mustCreate(t, svc, owner, CreateNoteParams{Title: "Private", IsFolder: true})

	_, errForeign := svc.Get(ctx, other, note.ID)
	_, errMissing := svc.Get(ctx, other, "does-not-exist")
	for name, err := range map[string]error{"foreign": errForeign, "missing": errMissing} {
		if errs.CodeOf(err) != errs.NotFound {
			t.Fatalf("%s: expected not_found, got %v", name, err)
		}
		if errs.MessageOf(err) != "Note not found" {
			t.Fatalf("%s: unexpected message %q", name, errs.MessageOf(err))
		}
	}

	// Same opacity for every other operation touching the note.
	if _, err := svc.Update(ctx, other, note.ID, UpdateNoteParams{Title: strPtr("stolen")}); errs.CodeOf(err) != errs.NotFound {
		t.Fatalf("update foreign: expected not_found, got %v", err)
	}
	if err := svc.Delete(ctx, other, note.ID); errs.CodeOf(err) != errs.NotFound {
		t.Fatalf("delete foreign: expected not_found, got %v", err)
	}
	if _, err := svc.ListChildren(ctx, other, note.ID); errs.CodeOf(err) != errs.NotFound {
		t.Fatalf("children foreign: expected not_found, got %v", err)
	}

	// Using a foreign folder as a parent also reads as missing.
	_, err := svc.Create(ctx, other, CreateNoteParams{Title: "X", ParentID: &note.ID})
	if errs.CodeOf(err) != errs.NotFound {
		t.Fatalf("foreign parent: expected not_found, got %v", err)
	}
}

func TestListRootsIsOwnerScoped(t *testing.T) {
	svc, owner, other := newTestService(t)
	ctx := context.Background()

	folder := mustCreate(t, svc, owner, CreateNoteParams{Title: "Top", IsFolder: true})
	mustCreate(t, svc, owner, CreateNoteParams{Title: "Nested", ParentID: &folder.ID})
	mustCreate(t, svc, other, CreateNoteParams{Title: "Theirs"})

	roots, err := svc.ListRoots(ctx, owner)
	if err != nil {
		t.Fatalf("ListRoots failed: %v", err)
	}
	if len(roots) != 1 || roots[0].ID != folder.ID {
		t.Fatalf("expected only the owner's root folder, got %+v", roots)
	}
}

func TestListChildren(t *testing.T) {
	svc, owner, _ := newTestService(t)
	ctx := context.Background()

	folder := mustCreate(t, svc, owner, CreateNoteParams{Title: "F", IsFolder: true})
	a := mustCreate(t, svc, owner, CreateNoteParams{Title: "a", ParentID: &folder.ID})
	b := mustCreate(t, svc, owner, CreateNoteParams{Title: "b", ParentID: &folder.ID})
	leaf := mustCreate(t, svc, owner, CreateNoteParams{Title: "leaf"})

	children, err := svc.ListChildren(ctx, owner, folder.ID)
	if err != nil {
		t.Fatalf("ListChildren failed: %v", err)
	}
	ids := map[string]bool{}
	for _, c := range children {
		ids[c.ID] = true
	}
	if len(children) != 2 || !ids[a.ID] || !ids[b.ID] {
		t.Fatalf("unexpected children: %+v", children)
	}

	_, err = svc.ListChildren(ctx, owner, leaf.ID)
	if errs.CodeOf(err) != errs.InvalidArgument {
		t.Fatalf("expected invalid_argument for leaf, got %v", err)
	}
	if errs.MessageOf(err) != "Note is not a folder" {
		t.Fatalf("unexpected message: %q", errs.MessageOf(err))
	}

	empty, err := svc.ListChildren(ctx, owner, folder.ID)
	if err != nil || empty == nil {
		t.Fatalf("expected non-nil slice, got %v %v", empty, err)
	}
}

func TestUpdatePartialFields(t *testing.T) {
	svc, owner, _ := newTestService(t)
	ctx := context.Background()

	folder := mustCreate(t, svc, owner, CreateNoteParams{Title: "F", IsFolder: true})
	note := mustCreate(t, svc, owner, CreateNoteParams{Title: "orig", Content: "body", ParentID: &folder.ID})

	// Title-only update leaves content and parent alone.
	got, err := svc.Update(ctx, owner, note.ID, UpdateNoteParams{Title: strPtr("renamed")})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got.Title != "renamed" || got.Content != "body" {
		t.Fatalf("unexpected note after title update: %+v", got)
	}
	if got.ParentID == nil || *got.ParentID != folder.ID {
		t.Fatalf("parent changed by unrelated update: %v", got.ParentID)
	}
	if got.UpdatedAt == nil {
		t.Fatal("expected UpdatedAt to be set after update")
	}

	// Explicit null promotes to root.
	got, err = svc.Update(ctx, owner, note.ID, UpdateNoteParams{ParentID: OptionalString{Set: true}})
	if err != nil {
		t.Fatalf("Update to root failed: %v", err)
	}
	if got.ParentID != nil {
		t.Fatalf("expected root after null parent, got %v", *got.ParentID)
	}

	// Value reparents under a validated folder.
	got, err = svc.Update(ctx, owner, note.ID, UpdateNoteParams{ParentID: OptionalString{Set: true, Value: &folder.ID}})
	if err != nil {
		t.Fatalf("reparent failed: %v", err)
	}
	if got.ParentID == nil || *got.ParentID != folder.ID {
		t.Fatalf("expected parent %s, got %v", folder.ID, got.ParentID)
	}
}

func TestUpdateParentValidation(t *testing.T) {
	svc, owner, _ := newTestService(t)
	ctx := context.Background()

	top := mustCreate(t, svc, owner, CreateNoteParams{Title: "top", IsFolder: true})
	mid := mustCreate(t, svc, owner, CreateNoteParams{Title: "mid", IsFolder: true, ParentID: &top.ID})
	leaf := mustCreate(t, svc, owner, CreateNoteParams{Title: "leaf"})

	_, err := svc.Update(ctx, owner, leaf.ID, UpdateNoteParams{ParentID: OptionalString{Set: true, Value: strPtr("missing")}})
	if errs.CodeOf(err) != errs.NotFound {
		t.Fatalf("missing parent: expected not_found, got %v", err)
	}

	_, err = svc.Update(ctx, owner, mid.ID, UpdateNoteParams{ParentID: OptionalString{Set: true, Value: &leaf.ID}})
	if errs.CodeOf(err) != errs.InvalidArgument {
		t.Fatalf("leaf parent: expected invalid_argument, got %v", err)
	}

	// A folder cannot move under itself or under its own descendant.
	_, err = svc.Update(ctx, owner, top.ID, UpdateNoteParams{ParentID: OptionalString{Set: true, Value: &top.ID}})
	if errs.CodeOf(err) != errs.InvalidArgument {
		t.Fatalf("self parent: expected invalid_argument, got %v", err)
	}
	_, err = svc.Update(ctx, owner, top.ID, UpdateNoteParams{ParentID: OptionalString{Set: true, Value: &mid.ID}})
	if errs.CodeOf(err) != errs.InvalidArgument {
		t.Fatalf("descendant parent: expected invalid_argument, got %v", err)
	}
}

func TestDeleteCascades(t *testing.T) {
	svc, owner, _ := newTestService(t)
	ctx := context.Background()

	top := mustCreate(t, svc, owner, CreateNoteParams{Title: "top", IsFolder: true})
	mid := mustCreate(t, svc, owner, CreateNoteParams{Title: "mid", IsFolder: true, ParentID: &top.ID})
	deep := mustCreate(t, svc, owner, CreateNoteParams{Title: "deep", ParentID: &mid.ID})
	sibling := mustCreate(t, svc, owner, CreateNoteParams{Title: "sibling"})

	if err := svc.Delete(ctx, owner, top.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	for _, id := range []string{top.ID, mid.ID, deep.ID} {
		if _, err := svc.Get(ctx, owner, id); errs.CodeOf(err) != errs.NotFound {
			t.Fatalf("expected %s to be gone, got %v", id, err)
		}
	}
	if _, err := svc.Get(ctx, owner, sibling.ID); err != nil {
		t.Fatalf("sibling should survive: %v", err)
	}
}

func TestDeleteLeaf(t *testing.T) {
	svc, owner, _ := newTestService(t)
	ctx := context.Background()

	note := mustCreate(t, svc, owner, CreateNoteParams{Title: "n"})
	if err := svc.Delete(ctx, owner, note.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := svc.Delete(ctx, owner, note.ID); errs.CodeOf(err) != errs.NotFound {
		t.Fatalf("second delete: expected not_found, got %v", err)
	}
}

func TestSearch(t *testing.T) {
	svc, owner, other := newTestService(t)
	ctx := context.Background()

	mustCreate(t, svc, owner, CreateNoteParams{Title: "Shopping List", Content: "milk"})
	mustCreate(t, svc, owner, CreateNoteParams{Title: "Journal", Content: "bought MILK today"})
	mustCreate(t, svc, owner, CreateNoteParams{Title: "Unrelated", Content: "nothing"})
	mustCreate(t, svc, other, CreateNoteParams{Title: "milk theirs"})

	results, err := svc.Search(ctx, owner, "milk")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 matches, got %d: %+v", len(results), results)
	}
	for _, r := range results {
		if r.OwnerID != owner {
			t.Fatalf("search leaked foreign note: %+v", r)
		}
	}
}

func TestSearchCapAndLiteralMetachars(t *testing.T) {
	svc, owner, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < SearchLimit+5; i++ {
		mustCreate(t, svc, owner, CreateNoteParams{Title: "common topic", Content: strings.Repeat("x", i)})
	}
	results, err := svc.Search(ctx, owner, "common")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != SearchLimit {
		t.Fatalf("expected %d capped results, got %d", SearchLimit, len(results))
	}

	mustCreate(t, svc, owner, CreateNoteParams{Title: "100% done"})
	results, err = svc.Search(ctx, owner, "100%")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 || results[0].Title != "100% done" {
		t.Fatalf("LIKE metachars should match literally, got %+v", results)
	}

	// An underscore must not act as a single-char wildcard.
	mustCreate(t, svc, owner, CreateNoteParams{Title: "snake_case"})
	mustCreate(t, svc, owner, CreateNoteParams{Title: "snakeXcase"})
	results, err = svc.Search(ctx, owner, "snake_case")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 || results[0].Title != "snake_case" {
		t.Fatalf("underscore should be literal, got %+v", results)
	}
}
