package locationstore_test

import (
	"errors"
	"testing"

	locationstore "github.com/LunarMoonDev/user-location/internal/app/store/locations"
	"github.com/LunarMoonDev/user-location/internal/app/system/paging"
	"github.com/LunarMoonDev/user-location/internal/domain/models"
	"github.com/LunarMoonDev/user-location/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreate_DuplicatePair(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := locationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	first, err := store.Create(ctx, models.Location{
		City:  "Manila",
		State: "Metro Manila",
		Pop:   5000,
		Loc:   [2]float64{14.6, 121.0},
	})
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	if first.Population != 0 {
		t.Errorf("new location population = %d, want 0", first.Population)
	}

	// Same pair, different casing: still a duplicate.
	_, err = store.Create(ctx, models.Location{
		City:  "manila",
		State: "METRO MANILA",
		Pop:   5000,
		Loc:   [2]float64{14.6, 121.0},
	})
	if !errors.Is(err, locationstore.ErrDuplicate) {
		t.Fatalf("duplicate create: got %v, want ErrDuplicate", err)
	}

	// A different state with the same city is fine.
	if _, err := store.Create(ctx, models.Location{
		City:  "Manila",
		State: "Other State",
		Pop:   5000,
		Loc:   [2]float64{14.6, 121.0},
	}); err != nil {
		t.Fatalf("distinct pair rejected: %v", err)
	}
}

func TestQuery_FilterAndPaging(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := locationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	testutil.CreateLocation(t, db, "Cebu", "Cebu Province")
	testutil.CreateLocation(t, db, "Davao", "Davao Region")
	testutil.CreateLocation(t, db, "Cebu", "Elsewhere")

	page, err := store.Query(ctx, locationstore.Filter{City: "cebu"}, paging.Options{
		Page: 1, Limit: 10, SortField: "state", SortOrder: 1,
	})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if page.TotalResults != 2 || len(page.Results) != 2 {
		t.Fatalf("got %d/%d results, want 2/2", len(page.Results), page.TotalResults)
	}
	if page.Results[0].State != "Cebu Province" {
		t.Errorf("sort order wrong: first state = %q", page.Results[0].State)
	}

	// Second page of a limit-2 listing over three documents.
	page, err = store.Query(ctx, locationstore.Filter{}, paging.Options{
		Page: 2, Limit: 2, SortField: "city", SortOrder: 1,
	})
	if err != nil {
		t.Fatalf("query page 2: %v", err)
	}
	if page.TotalPages != 2 || len(page.Results) != 1 {
		t.Errorf("page 2: got %d results, %d pages; want 1 results, 2 pages", len(page.Results), page.TotalPages)
	}
}

func TestUpdate_PairCollision(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := locationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	taken := testutil.CreateLocation(t, db, "Cebu", "Cebu Province")
	target := testutil.CreateLocation(t, db, "Davao", "Davao Region")

	city, state := taken.City, taken.State
	_, err := store.Update(ctx, target.ID, locationstore.Patch{City: &city, State: &state})
	if !errors.Is(err, locationstore.ErrDuplicatePatch) {
		t.Fatalf("collision update: got %v, want ErrDuplicatePatch", err)
	}

	// Renaming to itself is not a collision.
	self := target.City
	updated, err := store.Update(ctx, target.ID, locationstore.Patch{City: &self})
	if err != nil {
		t.Fatalf("self update: %v", err)
	}
	if updated.City != target.City {
		t.Errorf("city = %q, want %q", updated.City, target.City)
	}

	_, err = store.Update(ctx, primitive.NewObjectID(), locationstore.Patch{City: &self})
	if !errors.Is(err, locationstore.ErrNotFound) {
		t.Errorf("missing id: got %v, want ErrNotFound", err)
	}
}

func TestIncDecPopulation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := locationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	testutil.CreateLocation(t, db, "Cebu", "Cebu Province")
	key := locationstore.Key{City: "CEBU", State: "cebu province"}

	after, err := store.IncPopulation(ctx, key)
	if err != nil {
		t.Fatalf("inc: %v", err)
	}
	if after.Population != 1 {
		t.Errorf("population after inc = %d, want 1", after.Population)
	}

	if err := store.DecPopulation(ctx, key); err != nil {
		t.Fatalf("dec: %v", err)
	}
	// Second decrement must not drive the counter negative.
	if err := store.DecPopulation(ctx, key); err != nil {
		t.Fatalf("dec at zero: %v", err)
	}

	got, err := store.GetByKey(ctx, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Population != 0 {
		t.Errorf("population = %d, want 0", got.Population)
	}

	_, err = store.IncPopulation(ctx, locationstore.Key{City: "Nowhere", State: "NA"})
	if !errors.Is(err, locationstore.ErrNotFound) {
		t.Errorf("missing pair: got %v, want ErrNotFound", err)
	}
}

func TestDecPopulationBulk_Duplicates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := locationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	testutil.CreateLocationWithPopulation(t, db, "Cebu", "Cebu Province", 3)
	testutil.CreateLocationWithPopulation(t, db, "Davao", "Davao Region", 1)

	// Two users lived in Cebu, one in Davao: Cebu must drop by two.
	keys := []locationstore.Key{
		{City: "Cebu", State: "Cebu Province"},
		{City: "Davao", State: "Davao Region"},
		{City: "Cebu", State: "Cebu Province"},
	}
	if err := store.DecPopulationBulk(ctx, keys); err != nil {
		t.Fatalf("bulk dec: %v", err)
	}

	cebu, err := store.GetByKey(ctx, locationstore.Key{City: "Cebu", State: "Cebu Province"})
	if err != nil {
		t.Fatalf("get cebu: %v", err)
	}
	if cebu.Population != 1 {
		t.Errorf("cebu population = %d, want 1", cebu.Population)
	}

	davao, err := store.GetByKey(ctx, locationstore.Key{City: "Davao", State: "Davao Region"})
	if err != nil {
		t.Fatalf("get davao: %v", err)
	}
	if davao.Population != 0 {
		t.Errorf("davao population = %d, want 0", davao.Population)
	}
}

func TestDelete_SkipsPopulated(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := locationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	empty := testutil.CreateLocation(t, db, "Cebu", "Cebu Province")
	populated := testutil.CreateLocationWithPopulation(t, db, "Davao", "Davao Region", 2)

	n, err := store.Delete(ctx, []primitive.ObjectID{empty.ID, populated.ID})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted %d, want 1", n)
	}

	if _, err := store.GetByID(ctx, populated.ID); err != nil {
		t.Errorf("populated location should survive: %v", err)
	}
	if _, err := store.GetByID(ctx, empty.ID); !errors.Is(err, locationstore.ErrNotFound) {
		t.Errorf("empty location should be gone, got %v", err)
	}
}

func TestKeysByIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := locationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cebu := testutil.CreateLocation(t, db, "Cebu", "Cebu Province")
	davao := testutil.CreateLocation(t, db, "Davao", "Davao Region")

	got, err := store.KeysByIDs(ctx, []primitive.ObjectID{cebu.ID, davao.ID, primitive.NewObjectID()})
	if err != nil {
		t.Fatalf("keys by ids: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d keys, want 2", len(got))
	}
	if got[cebu.ID] != (locationstore.Key{City: "Cebu", State: "Cebu Province"}) {
		t.Errorf("cebu key = %+v", got[cebu.ID])
	}
}
