package store

import (
	"context"
	"errors"
	"testing"

	"github.com/erazemk/locography/internal/db"
	"github.com/erazemk/locography/internal/model"
)

func TestMoveItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	garage, _ := CreateLocation(ctx, database, model.LocationInput{Name: "Garage"})
	shed, _ := CreateLocation(ctx, database, model.LocationInput{Name: "Shed"})
	item, _ := CreateItem(ctx, database, model.ItemInput{Name: "Ladder", LocationID: &garage.ID})

	m, err := MoveItem(ctx, database, item.ID, &shed.ID, "spring cleaning")
	if err != nil {
		t.Fatalf("MoveItem: %v", err)
	}
	if m.ItemName != "Ladder" || m.Notes != "spring cleaning" {
		t.Errorf("unexpected movement: %+v", m)
	}
	if m.FromLocationName == nil || *m.FromLocationName != "Garage" {
		t.Errorf("expected from 'Garage', got %v", m.FromLocationName)
	}
	if m.ToLocationName == nil || *m.ToLocationName != "Shed" {
		t.Errorf("expected to 'Shed', got %v", m.ToLocationName)
	}

	got, _ := GetItem(ctx, database, item.ID)
	if got.LocationID == nil || *got.LocationID != shed.ID {
		t.Errorf("expected item in shed, got %v", got.LocationID)
	}
	if got.LastSeenAt == nil {
		t.Error("expected last seen timestamp")
	}

	if _, err := MoveItem(ctx, database, item.ID, &shed.ID, ""); !errors.Is(err, ErrSameLocation) {
		t.Errorf("expected ErrSameLocation, got %v", err)
	}
	if _, err := MoveItem(ctx, database, item.ID, ptr(int64(999)), ""); !errors.Is(err, ErrInvalidReference) {
		t.Errorf("expected ErrInvalidReference, got %v", err)
	}

	// Moving out of any location is allowed.
	if _, err := MoveItem(ctx, database, item.ID, nil, "lent out"); err != nil {
		t.Fatalf("MoveItem to nil: %v", err)
	}

	history, _ := GetItemHistory(ctx, database, item.ID)
	if len(history) != 2 {
		t.Fatalf("expected 2 movements, got %d", len(history))
	}
	if history[0].Notes != "lent out" {
		t.Errorf("expected newest movement first, got %q", history[0].Notes)
	}

	recent, _ := ListRecentMovements(ctx, database, 1)
	if len(recent) != 1 {
		t.Errorf("expected 1 recent movement, got %d", len(recent))
	}
}

func TestMoveMissingItem(t *testing.T) {
	database := db.NewTestDB(t)

	m, err := MoveItem(context.Background(), database, 12, nil, "")
	if err != nil {
		t.Fatalf("MoveItem: %v", err)
	}
	if m != nil {
		t.Errorf("expected nil movement, got %+v", m)
	}
}
