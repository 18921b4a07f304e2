package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/campuskart/marketplace-api/internal/core/domain"
	"github.com/campuskart/marketplace-api/internal/core/ports"
)

func newListingFixture() (*ListingService, *stubListingRepo, *stubViewTracker) {
	repo := newStubListingRepo()
	views := newStubViewTracker()
	return NewListingService(repo, views, &recordedActivity{}, zerolog.Nop()), repo, views
}

func seller() ports.Principal {
	return ports.Principal{ID: "seller-1", Roles: domain.RoleSet{domain.RoleStudent}}
}

func admin() ports.Principal {
	return ports.Principal{ID: "admin-1", Roles: domain.RoleSet{domain.RoleAdmin}}
}

func seedListing(repo *stubListingRepo, status domain.ListingStatus) *domain.Listing {
	return repo.seed(&domain.Listing{
		OwnerID: "seller-1",
		Title:   "Desk lamp",
		Price:   250,
		Status:  status,
	})
}

func TestListingService_Create(t *testing.T) {
	svc, _, _ := newListingFixture()

	listing, err := svc.Create(context.Background(), ports.CreateListingInput{
		OwnerID: "seller-1",
		Title:   "Cycle",
		Price:   1500,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if listing.Status != domain.ListingActive {
		t.Fatalf("expected active status, got %s", listing.Status)
	}
	if !listing.IsAvailable {
		t.Fatalf("expected availability derived from active status")
	}
}

func TestListingService_Create_Validation(t *testing.T) {
	svc, _, _ := newListingFixture()

	cases := []ports.CreateListingInput{
		{OwnerID: "", Title: "x", Price: 1},
		{OwnerID: "o", Title: "", Price: 1},
		{OwnerID: "o", Title: "x", Price: 0},
		{OwnerID: "o", Title: "x", Price: -5},
	}
	for _, in := range cases {
		if _, err := svc.Create(context.Background(), in); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("expected ErrValidation for %+v, got %v", in, err)
		}
	}
}

func TestListingService_Transitions(t *testing.T) {
	svc, repo, _ := newListingFixture()
	listing := seedListing(repo, domain.ListingActive)

	reserved, err := svc.Reserve(context.Background(), listing.ID, "buyer-1", seller())
	if err != nil {
		t.Fatalf("Reserve returned error: %v", err)
	}
	if reserved.Status != domain.ListingReserved || reserved.ReservedFor != "buyer-1" {
		t.Fatalf("unexpected reserved state: %+v", reserved)
	}
	if !reserved.IsAvailable {
		t.Fatalf("reserved listings stay available")
	}

	active, err := svc.Activate(context.Background(), listing.ID, seller())
	if err != nil {
		t.Fatalf("Activate returned error: %v", err)
	}
	if active.ReservedFor != "" {
		t.Fatalf("expected reservation cleared, got %q", active.ReservedFor)
	}

	sold, err := svc.MarkSold(context.Background(), listing.ID, seller())
	if err != nil {
		t.Fatalf("MarkSold returned error: %v", err)
	}
	if sold.Status != domain.ListingSold || sold.IsAvailable {
		t.Fatalf("unexpected sold state: %+v", sold)
	}
}

func TestListingService_Browse(t *testing.T) {
	svc, repo, _ := newListingFixture()
	active := seedListing(repo, domain.ListingActive)
	reserved := seedListing(repo, domain.ListingReserved)
	seedListing(repo, domain.ListingSold)
	seedListing(repo, domain.ListingInactive)

	listings, err := svc.Browse(context.Background())
	if err != nil {
		t.Fatalf("Browse returned error: %v", err)
	}
	if len(listings) != 2 {
		t.Fatalf("expected 2 available listings, got %d", len(listings))
	}
	ids := map[string]bool{}
	for _, l := range listings {
		ids[l.ID] = true
	}
	if !ids[active.ID] || !ids[reserved.ID] {
		t.Fatalf("expected active and reserved listings in catalogue, got %v", ids)
	}
}

func TestListingService_SoldIsTerminal(t *testing.T) {
	svc, repo, _ := newListingFixture()
	listing := seedListing(repo, domain.ListingSold)

	if _, err := svc.Activate(context.Background(), listing.ID, seller()); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if _, err := svc.Deactivate(context.Background(), listing.ID, seller()); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestListingService_InactiveCannotSell(t *testing.T) {
	svc, repo, _ := newListingFixture()
	listing := seedListing(repo, domain.ListingInactive)

	if _, err := svc.MarkSold(context.Background(), listing.ID, seller()); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if _, err := svc.Activate(context.Background(), listing.ID, seller()); err != nil {
		t.Fatalf("Activate from inactive failed: %v", err)
	}
}

func TestListingService_SameStatusNoOp(t *testing.T) {
	svc, repo, _ := newListingFixture()
	listing := seedListing(repo, domain.ListingSold)

	// Re-marking sold settles as success so the delivered cascade can retry.
	got, err := svc.MarkSold(context.Background(), listing.ID, seller())
	if err != nil {
		t.Fatalf("MarkSold on sold listing returned error: %v", err)
	}
	if got.Status != domain.ListingSold {
		t.Fatalf("unexpected status: %s", got.Status)
	}
}

func TestListingService_OwnershipEnforced(t *testing.T) {
	svc, repo, _ := newListingFixture()
	listing := seedListing(repo, domain.ListingActive)

	stranger := ports.Principal{ID: "other-1", Roles: domain.RoleSet{domain.RoleStudent}}
	if _, err := svc.Deactivate(context.Background(), listing.ID, stranger); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	// Admin may act on any listing.
	if _, err := svc.Deactivate(context.Background(), listing.ID, admin()); err != nil {
		t.Fatalf("admin transition failed: %v", err)
	}
}

func TestListingService_NotFound(t *testing.T) {
	svc, _, _ := newListingFixture()

	if _, err := svc.GetByID(context.Background(), "missing", ""); !errors.Is(err, domain.ErrListingNotFound) {
		t.Fatalf("expected ErrListingNotFound, got %v", err)
	}
	if _, err := svc.MarkSold(context.Background(), "missing", seller()); !errors.Is(err, domain.ErrListingNotFound) {
		t.Fatalf("expected ErrListingNotFound, got %v", err)
	}
}

func TestListingService_ViewCountedOncePerViewer(t *testing.T) {
	svc, repo, _ := newListingFixture()
	listing := seedListing(repo, domain.ListingActive)

	for i := 0; i < 3; i++ {
		if _, err := svc.GetByID(context.Background(), listing.ID, "viewer-a"); err != nil {
			t.Fatalf("GetByID returned error: %v", err)
		}
	}
	if _, err := svc.GetByID(context.Background(), listing.ID, "viewer-b"); err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}

	got, err := repo.FindByID(context.Background(), listing.ID)
	if err != nil {
		t.Fatalf("find listing: %v", err)
	}
	if got.Views != 2 {
		t.Fatalf("expected 2 views (one per viewer), got %d", got.Views)
	}
}

func TestListingService_ViewTrackerFailureDoesNotFailRead(t *testing.T) {
	svc, repo, views := newListingFixture()
	listing := seedListing(repo, domain.ListingActive)
	views.err = errors.New("redis down")

	got, err := svc.GetByID(context.Background(), listing.ID, "viewer-a")
	if err != nil {
		t.Fatalf("read should survive tracker failure, got %v", err)
	}
	if got.Views != 0 {
		t.Fatalf("expected no view counted, got %d", got.Views)
	}
}

func TestListingService_ConcurrentMarkSoldSettles(t *testing.T) {
	svc, repo, _ := newListingFixture()
	listing := seedListing(repo, domain.ListingActive)

	// Both the seller and an admin race to finalise the sale. The loser of
	// the conditional write observes the listing already sold and settles as
	// a no-op rather than surfacing a conflict.
	const racers = 8
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		actor := seller()
		if i%2 == 1 {
			actor = admin()
		}
		wg.Add(1)
		go func(p ports.Principal) {
			defer wg.Done()
			got, err := svc.MarkSold(context.Background(), listing.ID, p)
			if err != nil {
				t.Errorf("MarkSold returned error: %v", err)
				return
			}
			if got.Status != domain.ListingSold {
				t.Errorf("unexpected status: %s", got.Status)
			}
		}(actor)
	}
	wg.Wait()
}
