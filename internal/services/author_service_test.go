package services

import (
	"context"
	"errors"
	"testing"
)

func TestAuthorCreate(t *testing.T) {
	svc := &AuthorService{DB: newSvcDB(t)}
	ctx := context.Background()

	// Anonymous mutation is rejected.
	if _, err := svc.Create(ctx, Anonymous, AuthorInput{Name: strPtr("X")}); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("anonymous create = %v", err)
	}

	// Name is required, blank counts as missing.
	for _, in := range []AuthorInput{{}, {Name: strPtr("   ")}} {
		_, err := svc.Create(ctx, user, in)
		fields := validationFields(t, err)
		if len(fields["name"]) != 1 || fields["name"][0] != "This field is required." {
			t.Fatalf("name errors = %v", fields["name"])
		}
	}

	a, err := svc.Create(ctx, user, AuthorInput{Name: strPtr("  N. K. Jemisin  "), Email: strPtr("nk@example.com")})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.Name != "N. K. Jemisin" || a.Email != "nk@example.com" {
		t.Fatalf("fields = %+v", a)
	}
}

func TestAuthorUpdate(t *testing.T) {
	svc := &AuthorService{DB: newSvcDB(t)}
	ctx := context.Background()
	a, _ := svc.Create(ctx, user, AuthorInput{Name: strPtr("Before")})

	// PUT requires name.
	if _, err := svc.Update(ctx, user, a.ID, AuthorInput{Email: strPtr("x@example.com")}, false); err == nil {
		t.Fatalf("full update without name accepted")
	}

	// PATCH keeps absent fields.
	got, err := svc.Update(ctx, user, a.ID, AuthorInput{Email: strPtr("x@example.com")}, true)
	if err != nil || got.Name != "Before" || got.Email != "x@example.com" {
		t.Fatalf("patch = %+v err = %v", got, err)
	}

	if _, err := svc.Update(ctx, user, 404, AuthorInput{Name: strPtr("X")}, true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing author = %v", err)
	}
	if _, err := svc.Update(ctx, Anonymous, a.ID, AuthorInput{Name: strPtr("X")}, true); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("anonymous update = %v", err)
	}
}

func TestAuthorDeleteAndGet(t *testing.T) {
	svc := &AuthorService{DB: newSvcDB(t)}
	ctx := context.Background()
	a, _ := svc.Create(ctx, user, AuthorInput{Name: strPtr("Doomed")})

	if err := svc.Delete(ctx, Anonymous, a.ID); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("anonymous delete = %v", err)
	}
	if err := svc.Delete(ctx, user, a.ID); err != nil {
		t.Fatalf("delete = %v", err)
	}
	if _, err := svc.Get(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get after delete = %v", err)
	}
	if err := svc.Delete(ctx, user, a.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("double delete = %v", err)
	}
}

func TestAuthorList(t *testing.T) {
	svc := &AuthorService{DB: newSvcDB(t)}
	ctx := context.Background()

	items, total, err := svc.List(ctx, 1, 10)
	if err != nil || total != 0 || len(items) != 0 {
		t.Fatalf("empty list = %d/%d err = %v", len(items), total, err)
	}

	for _, name := range []string{"A", "B", "C"} {
		if _, err := svc.Create(ctx, user, AuthorInput{Name: strPtr(name)}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	items, total, err = svc.List(ctx, 2, 2)
	if err != nil || total != 3 || len(items) != 1 {
		t.Fatalf("page 2 = %d/%d err = %v", len(items), total, err)
	}
	if items[0].Name != "C" {
		t.Fatalf("page content = %+v", items)
	}
}
