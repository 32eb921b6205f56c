package patient

import (
	"context"
	"testing"
)

func TestResolveCreatesWhenNoMatch(t *testing.T) {
	store := NewInMemoryStore()
	r := NewResolver(store)

	p, created, err := r.Resolve(context.Background(), "Chen Wei")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !created {
		t.Fatalf("created = false, want true for empty store")
	}
	if p.Name != "Chen Wei" {
		t.Fatalf("Name = %q, want %q", p.Name, "Chen Wei")
	}
	if p.ID == "" {
		t.Fatalf("ID should not be empty")
	}
}

func TestResolveMatchesSubstringBothDirections(t *testing.T) {
	store := NewInMemoryStore()
	r := NewResolver(store)

	existing, _, err := r.Resolve(context.Background(), "Chen Wei")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	cases := []struct {
		name  string
		input string
	}{
		{"exact", "Chen Wei"},
		{"input contains stored", "Mr Chen Wei Jr"},
		{"stored contains input", "Chen"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, created, err := r.Resolve(context.Background(), tc.input)
			if err != nil {
				t.Fatalf("Resolve(%q) error = %v", tc.input, err)
			}
			if created {
				t.Fatalf("Resolve(%q) created a new record, want match", tc.input)
			}
			if p.ID != existing.ID {
				t.Fatalf("Resolve(%q) id = %s, want %s", tc.input, p.ID, existing.ID)
			}
		})
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	store := NewInMemoryStore()
	r := NewResolver(store)

	if _, err := store.Create(context.Background(), "Wei"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := store.Create(context.Background(), "Chen Wei"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	a, _, err := r.Resolve(context.Background(), "Wei Chen")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	b, _, err := r.Resolve(context.Background(), "Wei Chen")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if a.ID != b.ID {
		t.Fatalf("Resolve() not deterministic: %s vs %s", a.ID, b.ID)
	}
}

func TestResolveBindsEarliestOnAmbiguity(t *testing.T) {
	store := NewInMemoryStore()
	r := NewResolver(store)

	oldest, err := store.Create(context.Background(), "Wei")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := store.Create(context.Background(), "Chen Wei"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	p, created, err := r.Resolve(context.Background(), "Wei")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if created {
		t.Fatalf("created = true, want match")
	}
	if p.ID != oldest.ID {
		t.Fatalf("Resolve() bound %s, want earliest %s", p.ID, oldest.ID)
	}
}

func TestResolveIsCaseSensitive(t *testing.T) {
	store := NewInMemoryStore()
	r := NewResolver(store)

	existing, _, err := r.Resolve(context.Background(), "Chen Wei")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	p, created, err := r.Resolve(context.Background(), "chen wei")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !created {
		t.Fatalf("lower-case input matched %s, want new record", existing.ID)
	}
	if p.ID == existing.ID {
		t.Fatalf("case-insensitive match is not expected")
	}
}
