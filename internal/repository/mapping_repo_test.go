package repository

import (
	"context"
	"testing"

	"github.com/mkarpis/channelsync/internal/domain"
)

func TestMappingRepositoryAdoptThenSync(t *testing.T) {
	repo := NewMappingRepository(testDB(t))
	ctx := context.Background()

	if err := repo.AdoptExternalID(ctx, "prod-1", "ch-1", "remote-42"); err != nil {
		t.Fatalf("AdoptExternalID failed: %v", err)
	}

	m, err := repo.GetByPair(ctx, "prod-1", "ch-1")
	if err != nil {
		t.Fatalf("GetByPair failed: %v", err)
	}
	if m.ExternalID != "remote-42" {
		t.Errorf("external ID = %q, want remote-42", m.ExternalID)
	}
	if m.IsPublished {
		t.Error("adoption alone must not mark the mapping published")
	}

	// Adopting again for the same pair updates in place
	if err := repo.AdoptExternalID(ctx, "prod-1", "ch-1", "remote-43"); err != nil {
		t.Fatalf("second AdoptExternalID failed: %v", err)
	}
	m, _ = repo.GetByPair(ctx, "prod-1", "ch-1")
	if m.ExternalID != "remote-43" {
		t.Errorf("external ID = %q, want remote-43", m.ExternalID)
	}

	if err := repo.MarkSynced(ctx, "prod-1", "ch-1", "remote-43"); err != nil {
		t.Fatalf("MarkSynced failed: %v", err)
	}
	m, _ = repo.GetByPair(ctx, "prod-1", "ch-1")
	if !m.IsPublished || !m.IsActive {
		t.Errorf("mapping not marked published/active: %+v", m)
	}
	if m.LastSyncedAt == nil {
		t.Error("LastSyncedAt not set")
	}
	if m.SyncError != "" {
		t.Errorf("sync error = %q, want empty", m.SyncError)
	}
}

func TestMappingRepositoryMarkFailedPreservesExternalID(t *testing.T) {
	repo := NewMappingRepository(testDB(t))
	ctx := context.Background()

	if err := repo.AdoptExternalID(ctx, "prod-1", "ch-1", "remote-42"); err != nil {
		t.Fatalf("AdoptExternalID failed: %v", err)
	}

	// Failure with no known remote ID keeps the adopted one
	if err := repo.MarkFailed(ctx, "prod-1", "ch-1", "", "rate limited"); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}

	m, err := repo.GetByPair(ctx, "prod-1", "ch-1")
	if err != nil {
		t.Fatalf("GetByPair failed: %v", err)
	}
	if m.ExternalID != "remote-42" {
		t.Errorf("external ID = %q, want remote-42 preserved", m.ExternalID)
	}
	if m.SyncError != "rate limited" {
		t.Errorf("sync error = %q", m.SyncError)
	}
	if m.IsPublished {
		t.Error("failed mapping must not be published")
	}
}

func TestMappingRepositoryMarkFailedCreatesRow(t *testing.T) {
	repo := NewMappingRepository(testDB(t))
	ctx := context.Background()

	if err := repo.MarkFailed(ctx, "prod-2", "ch-1", "", "boom"); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}

	m, err := repo.GetByPair(ctx, "prod-2", "ch-1")
	if err != nil {
		t.Fatalf("GetByPair failed: %v", err)
	}
	if m.SyncError != "boom" || m.IsPublished {
		t.Errorf("mapping = %+v", m)
	}
}

func TestProductRepositoryGetByIDsOrder(t *testing.T) {
	db := testDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	for _, id := range []string{"p1", "p2", "p3"} {
		if err := repo.Create(ctx, &domain.Product{ID: id, SKU: "SKU-" + id, Title: id}); err != nil {
			t.Fatalf("failed to seed product %s: %v", id, err)
		}
	}

	products, err := repo.GetByIDs(ctx, []string{"p3", "missing", "p1"})
	if err != nil {
		t.Fatalf("GetByIDs failed: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("got %d products, want 2", len(products))
	}
	if products[0].ID != "p3" || products[1].ID != "p1" {
		t.Errorf("order = [%s %s], want [p3 p1]", products[0].ID, products[1].ID)
	}
}
