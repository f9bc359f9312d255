package store

import (
	"context"
	"errors"
	"testing"

	"github.com/erazemk/locography/internal/db"
	"github.com/erazemk/locography/internal/model"
)

func TestCreateAndGetLocation(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	loc, err := CreateLocation(ctx, database, model.LocationInput{
		Name:         "Storage Room A",
		LocationType: model.LocationTypeRoom,
		XCoord:       ptr(1.5),
	})
	if err != nil {
		t.Fatalf("CreateLocation: %v", err)
	}
	if loc.Name != "Storage Room A" {
		t.Errorf("expected name 'Storage Room A', got %q", loc.Name)
	}
	if loc.XCoord == nil || *loc.XCoord != 1.5 {
		t.Errorf("expected x coordinate 1.5, got %v", loc.XCoord)
	}
	if loc.YCoord != nil {
		t.Errorf("expected nil y coordinate, got %v", *loc.YCoord)
	}

	got, _ := GetLocation(ctx, database, loc.ID)
	if got.LocationType != model.LocationTypeRoom {
		t.Errorf("expected type 'room', got %q", got.LocationType)
	}
}

func TestListLocationsFilter(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	room, _ := CreateLocation(ctx, database, model.LocationInput{Name: "Room", LocationType: model.LocationTypeRoom})
	CreateLocation(ctx, database, model.LocationInput{Name: "Desk", LocationType: model.LocationTypeFurniture, ParentID: &room.ID})
	CreateLocation(ctx, database, model.LocationInput{Name: "Closet", LocationType: model.LocationTypeFurniture, ParentID: &room.ID})

	all, _ := ListLocations(ctx, database, LocationFilter{})
	if len(all) != 3 {
		t.Errorf("expected 3 locations, got %d", len(all))
	}

	furniture, _ := ListLocations(ctx, database, LocationFilter{Type: model.LocationTypeFurniture})
	if len(furniture) != 2 {
		t.Errorf("expected 2 furniture locations, got %d", len(furniture))
	}

	children, _ := ListLocations(ctx, database, LocationFilter{ParentID: &room.ID})
	if len(children) != 2 || children[0].Name != "Closet" {
		t.Errorf("expected children ordered by name, got %+v", children)
	}
}

func TestUpdateLocationRejectsCycle(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	house, _ := CreateLocation(ctx, database, model.LocationInput{Name: "House"})
	room, _ := CreateLocation(ctx, database, model.LocationInput{Name: "Room", ParentID: &house.ID})
	shelf, _ := CreateLocation(ctx, database, model.LocationInput{Name: "Shelf", ParentID: &room.ID})

	_, err := UpdateLocation(ctx, database, house.ID, model.LocationPatch{ParentID: model.Some(shelf.ID)})
	if !errors.Is(err, ErrCycle) {
		t.Errorf("expected ErrCycle for descendant parent, got %v", err)
	}

	_, err = UpdateLocation(ctx, database, room.ID, model.LocationPatch{ParentID: model.Some(room.ID)})
	if !errors.Is(err, ErrCycle) {
		t.Errorf("expected ErrCycle for self parent, got %v", err)
	}

	_, err = UpdateLocation(ctx, database, room.ID, model.LocationPatch{ParentID: model.Some(int64(999))})
	if !errors.Is(err, ErrInvalidReference) {
		t.Errorf("expected ErrInvalidReference, got %v", err)
	}

	moved, err := UpdateLocation(ctx, database, shelf.ID, model.LocationPatch{ParentID: model.Null[int64]()})
	if err != nil {
		t.Fatalf("UpdateLocation: %v", err)
	}
	if moved.ParentID != nil {
		t.Errorf("expected shelf to become a root, got parent %d", *moved.ParentID)
	}
}

func TestDeleteLocationWithChildrenFails(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	room, _ := CreateLocation(ctx, database, model.LocationInput{Name: "Room"})
	CreateLocation(ctx, database, model.LocationInput{Name: "Drawer", ParentID: &room.ID})

	if err := DeleteLocation(ctx, database, room.ID); !errors.Is(err, ErrHasChildren) {
		t.Errorf("expected ErrHasChildren, got %v", err)
	}
}

func TestListLocationItemsIncludesSubtree(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	room, _ := CreateLocation(ctx, database, model.LocationInput{Name: "Room"})
	drawer, _ := CreateLocation(ctx, database, model.LocationInput{Name: "Drawer", ParentID: &room.ID})
	other, _ := CreateLocation(ctx, database, model.LocationInput{Name: "Other"})

	CreateItem(ctx, database, model.ItemInput{Name: "Pen", LocationID: &drawer.ID})
	CreateItem(ctx, database, model.ItemInput{Name: "Chair", LocationID: &room.ID})
	CreateItem(ctx, database, model.ItemInput{Name: "Bike", LocationID: &other.ID})

	items, err := ListLocationItems(ctx, database, room.ID)
	if err != nil {
		t.Fatalf("ListLocationItems: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Name != "Chair" || items[1].Name != "Pen" {
		t.Errorf("expected items ordered by name, got %q, %q", items[0].Name, items[1].Name)
	}

	got, _ := GetLocation(ctx, database, room.ID)
	if got.ItemCount != 1 {
		t.Errorf("expected direct item count 1, got %d", got.ItemCount)
	}
}

func TestLocationPath(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	house, _ := CreateLocation(ctx, database, model.LocationInput{Name: "House"})
	room, _ := CreateLocation(ctx, database, model.LocationInput{Name: "Room", ParentID: &house.ID})
	shelf, _ := CreateLocation(ctx, database, model.LocationInput{Name: "Shelf", ParentID: &room.ID})

	path, err := LocationPath(ctx, database, shelf.ID)
	if err != nil {
		t.Fatalf("LocationPath: %v", err)
	}
	if len(path) != 3 || path[0].Name != "House" || path[2].Name != "Shelf" {
		t.Errorf("unexpected path: %+v", path)
	}
}
