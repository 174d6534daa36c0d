package services

import (
	"errors"
	"testing"
)

func TestPostRequiresExistingListing(t *testing.T) {
	db := setupTestDB(t)
	seedLookups(t, db)
	sender := seedUser(t, db, "buyer@test")
	svc := NewMessageService(db)

	if err := svc.Post(42, sender.ID, "Is this still available?"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMailboxIsOwnerOnly(t *testing.T) {
	db := setupTestDB(t)
	cat, pr := seedLookups(t, db)
	owner := seedUser(t, db, "owner@test")
	buyer := seedUser(t, db, "buyer@test")
	props := NewPropertyService(db, t.TempDir())
	msgs := NewMessageService(db)

	p, err := props.Create(owner.ID, sampleInput(cat, pr))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := msgs.Post(p.ID, buyer.ID, "Is this still available?"); err != nil {
		t.Fatalf("post: %v", err)
	}
	if err := msgs.Post(p.ID, buyer.ID, "Could I see it this weekend?"); err != nil {
		t.Fatalf("post: %v", err)
	}

	// Even the sender cannot read the mailbox, only the listing owner.
	if _, err := msgs.ForProperty(p.ID, buyer.ID); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner for sender, got %v", err)
	}

	got, err := msgs.ForProperty(p.ID, owner.ID)
	if err != nil {
		t.Fatalf("owner read: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("message count: got %d want 2", len(got))
	}
	if got[0].Body != "Is this still available?" {
		t.Fatalf("oldest first, got %q", got[0].Body)
	}
	for _, m := range got {
		if m.Sender.Email != "buyer@test" {
			t.Fatalf("sender not joined: %+v", m.Sender)
		}
		if m.Sender.Password != "" {
			t.Fatal("sender projection must not carry the password")
		}
	}
}

func TestMailboxMissingListing(t *testing.T) {
	db := setupTestDB(t)
	seedLookups(t, db)
	owner := seedUser(t, db, "owner@test")
	svc := NewMessageService(db)

	if _, err := svc.ForProperty(42, owner.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
