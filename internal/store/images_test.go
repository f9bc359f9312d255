package store

import (
	"context"
	"testing"

	"github.com/erazemk/locography/internal/db"
	"github.com/erazemk/locography/internal/model"
)

func testImage(itemID int64, name string) *model.ItemImage {
	return &model.ItemImage{
		ItemID:   itemID,
		FilePath: "items/" + name + ".jpg",
		Filename: name + ".jpg",
		MIME:     "image/jpeg",
		Size:     1234,
		Width:    640,
		Height:   480,
		Checksum: "sum-" + name,
	}
}

func TestFirstImageBecomesPrimary(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, _ := CreateItem(ctx, database, model.ItemInput{Name: "Camera"})

	first, err := CreateImage(ctx, database, testImage(item.ID, "a"))
	if err != nil {
		t.Fatalf("CreateImage: %v", err)
	}
	if !first.IsPrimary {
		t.Error("expected first image to be primary")
	}

	second, _ := CreateImage(ctx, database, testImage(item.ID, "b"))
	if second.IsPrimary {
		t.Error("expected second image not to be primary")
	}

	got, _ := GetItem(ctx, database, item.ID)
	if got.PrimaryImageID == nil || *got.PrimaryImageID != first.ID {
		t.Errorf("expected primary image %d, got %v", first.ID, got.PrimaryImageID)
	}
}

func TestPrimaryImageIsExclusive(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, _ := CreateItem(ctx, database, model.ItemInput{Name: "Camera"})
	first, _ := CreateImage(ctx, database, testImage(item.ID, "a"))

	img := testImage(item.ID, "b")
	img.IsPrimary = true
	second, _ := CreateImage(ctx, database, img)

	images, _ := ListItemImages(ctx, database, item.ID)
	if countPrimary(images) != 1 || images[0].ID != second.ID {
		t.Errorf("expected only second image primary, got %+v", images)
	}

	ok, err := SetPrimaryImage(ctx, database, item.ID, first.ID)
	if err != nil || !ok {
		t.Fatalf("SetPrimaryImage: %v %v", ok, err)
	}
	images, _ = ListItemImages(ctx, database, item.ID)
	if countPrimary(images) != 1 || images[0].ID != first.ID {
		t.Errorf("expected only first image primary, got %+v", images)
	}

	other, _ := CreateItem(ctx, database, model.ItemInput{Name: "Other"})
	ok, _ = SetPrimaryImage(ctx, database, other.ID, first.ID)
	if ok {
		t.Error("expected image of another item to be rejected")
	}
}

func TestDeletePrimaryImagePromotesOldest(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, _ := CreateItem(ctx, database, model.ItemInput{Name: "Camera"})
	first, _ := CreateImage(ctx, database, testImage(item.ID, "a"))
	second, _ := CreateImage(ctx, database, testImage(item.ID, "b"))
	CreateImage(ctx, database, testImage(item.ID, "c"))

	deleted, err := DeleteImage(ctx, database, item.ID, first.ID)
	if err != nil {
		t.Fatalf("DeleteImage: %v", err)
	}
	if deleted == nil || deleted.FilePath != first.FilePath {
		t.Fatalf("expected deleted image returned, got %+v", deleted)
	}

	images, _ := ListItemImages(ctx, database, item.ID)
	if len(images) != 2 {
		t.Fatalf("expected 2 images, got %d", len(images))
	}
	if !images[0].IsPrimary || images[0].ID != second.ID {
		t.Errorf("expected image %d promoted, got %+v", second.ID, images[0])
	}

	missing, _ := DeleteImage(ctx, database, item.ID, first.ID)
	if missing != nil {
		t.Error("expected nil for already deleted image")
	}
}

func TestFindImageByChecksum(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, _ := CreateItem(ctx, database, model.ItemInput{Name: "Camera"})
	img, _ := CreateImage(ctx, database, testImage(item.ID, "a"))

	found, err := FindImageByChecksum(ctx, database, item.ID, "sum-a")
	if err != nil {
		t.Fatalf("FindImageByChecksum: %v", err)
	}
	if found == nil || found.ID != img.ID {
		t.Errorf("expected image %d, got %+v", img.ID, found)
	}

	other, _ := CreateItem(ctx, database, model.ItemInput{Name: "Other"})
	if found, _ := FindImageByChecksum(ctx, database, other.ID, "sum-a"); found != nil {
		t.Error("expected checksum lookup to be scoped to the item")
	}
}

func TestImageVectors(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, _ := CreateItem(ctx, database, model.ItemInput{Name: "Camera"})

	withVector := testImage(item.ID, "a")
	withVector.Features = []float32{0.25, 0.5, 0.25}
	a, _ := CreateImage(ctx, database, withVector)
	b, _ := CreateImage(ctx, database, testImage(item.ID, "b"))

	if !a.HasFeatures || b.HasFeatures {
		t.Errorf("unexpected has_features flags: %v %v", a.HasFeatures, b.HasFeatures)
	}

	vectors, err := ListImageVectors(ctx, database)
	if err != nil {
		t.Fatalf("ListImageVectors: %v", err)
	}
	if len(vectors) != 1 {
		t.Fatalf("expected 1 vector, got %d", len(vectors))
	}
	if vectors[0].ImageID != a.ID || vectors[0].ItemID != item.ID {
		t.Errorf("unexpected vector owner: %+v", vectors[0])
	}
	want := []float32{0.25, 0.5, 0.25}
	for i, v := range want {
		if vectors[0].Features[i] != v {
			t.Errorf("feature %d: expected %v, got %v", i, v, vectors[0].Features[i])
		}
	}

	if err := SetImageFeatures(ctx, database, b.ID, []float32{1, 0, 0}); err != nil {
		t.Fatalf("SetImageFeatures: %v", err)
	}
	vectors, _ = ListImageVectors(ctx, database)
	if len(vectors) != 2 {
		t.Errorf("expected 2 vectors, got %d", len(vectors))
	}
}

func TestListImageVectorsSkipsCorruptRows(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, _ := CreateItem(ctx, database, model.ItemInput{Name: "Camera"})
	img, _ := CreateImage(ctx, database, testImage(item.ID, "a"))

	if _, err := database.Exec(`UPDATE item_images SET features = 'garbage' WHERE id = ?`, img.ID); err != nil {
		t.Fatal(err)
	}

	vectors, err := ListImageVectors(ctx, database)
	if err != nil {
		t.Fatalf("ListImageVectors: %v", err)
	}
	if len(vectors) != 0 {
		t.Errorf("expected corrupt vector skipped, got %d", len(vectors))
	}
}

func countPrimary(images []model.ItemImage) int {
	n := 0
	for _, img := range images {
		if img.IsPrimary {
			n++
		}
	}
	return n
}
