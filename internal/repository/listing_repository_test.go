package repository

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"car-showroom/internal/domain"
	"car-showroom/internal/money"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetCars(t *testing.T) {
	t.Helper()
	_, err := testDB.Exec("DELETE FROM cars")
	require.NoError(t, err)
}

func insertNamed(t *testing.T, name string, featured string, created time.Time) string {
	t.Helper()
	var id string
	err := testDB.QueryRow(
		`INSERT INTO cars (name, destaque, created) VALUES ($1, $2, $3) RETURNING id`,
		name, featured, created,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func names(docs []*domain.ListingDocument) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		if d.Name != nil {
			out = append(out, *d.Name)
		}
	}
	return out
}

func TestListingRepository_CreateAssignsIdentityAndTimestamp(t *testing.T) {
	resetCars(t)
	repo := NewListingRepository(testDB)
	ctx := context.Background()

	listing := &domain.Listing{
		Name:     "CIVIC",
		Model:    "EXL",
		Year:     "2020",
		Featured: domain.Featured,
		Price:    money.Amount(6900000),
		Images:   []domain.ImageRef{{Name: "a.jpg", URL: "http://cdn/images/a.jpg"}},
		OwnerUID: uuid.NewString(),
	}
	require.NoError(t, repo.Create(ctx, listing))

	assert.NotEmpty(t, listing.ID)
	assert.False(t, listing.CreatedAt.IsZero())

	doc, err := repo.FindByID(ctx, listing.ID)
	require.NoError(t, err)
	require.NotNil(t, doc.Price)
	assert.Equal(t, money.Amount(6900000), *doc.Price)
	assert.Equal(t, "CIVIC", *doc.Name)
	assert.Equal(t, "S", *doc.Featured)
	assert.Equal(t, listing.Images, doc.Images)
	assert.Equal(t, listing.OwnerUID, *doc.OwnerUID)
	require.NotNil(t, doc.Created)
}

func TestListingRepository_UpdateKeepsCreated(t *testing.T) {
	resetCars(t)
	repo := NewListingRepository(testDB)
	ctx := context.Background()

	created := time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC)
	id := insertNamed(t, "COROLLA", "N", created)

	err := repo.Update(ctx, &domain.Listing{
		ID:       id,
		Name:     "COROLLA XEI",
		Featured: domain.Featured,
		Price:    money.Amount(12345),
	})
	require.NoError(t, err)

	doc, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "COROLLA XEI", *doc.Name)
	assert.True(t, created.Equal(*doc.Created))
	assert.Empty(t, doc.Images)
}

func TestListingRepository_MissingListing(t *testing.T) {
	resetCars(t)
	repo := NewListingRepository(testDB)
	ctx := context.Background()

	_, err := repo.FindByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrListingNotFound)

	_, err = repo.FindByID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, ErrListingNotFound)

	assert.ErrorIs(t, repo.Update(ctx, &domain.Listing{ID: uuid.NewString()}), ErrListingNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, uuid.NewString()), ErrListingNotFound)
}

func TestListingRepository_Delete(t *testing.T) {
	resetCars(t)
	repo := NewListingRepository(testDB)
	ctx := context.Background()

	id := insertNamed(t, "GOL", "N", time.Now())
	require.NoError(t, repo.Delete(ctx, id))

	_, err := repo.FindByID(ctx, id)
	assert.ErrorIs(t, err, ErrListingNotFound)
}

func TestListingRepository_AbsentFieldsStayNil(t *testing.T) {
	resetCars(t)
	repo := NewListingRepository(testDB)
	ctx := context.Background()

	var id string
	require.NoError(t, testDB.QueryRow(`INSERT INTO cars (name) VALUES ('KA') RETURNING id`).Scan(&id))

	doc, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "KA", *doc.Name)
	assert.Nil(t, doc.Price)
	assert.Nil(t, doc.Featured)
	assert.Nil(t, doc.Images)
	assert.Nil(t, doc.Model)
	assert.NotNil(t, doc.Created)
}

func TestListingRepository_FeaturedNewestFirst(t *testing.T) {
	resetCars(t)
	repo := NewListingRepository(testDB)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	insertNamed(t, "OLD FEATURED", "S", base)
	insertNamed(t, "NEW FEATURED", "S", base.Add(48*time.Hour))
	insertNamed(t, "PLAIN", "N", base.Add(72*time.Hour))

	featured, err := repo.List(ctx, ListingQuery{FeaturedOnly: true, OrderByCreated: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"NEW FEATURED", "OLD FEATURED"}, names(featured))

	all, err := repo.List(ctx, ListingQuery{OrderByCreated: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"PLAIN", "NEW FEATURED", "OLD FEATURED"}, names(all))
}

func TestListingRepository_PrefixSearch(t *testing.T) {
	resetCars(t)
	repo := NewListingRepository(testDB)
	ctx := context.Background()

	now := time.Now()
	insertNamed(t, "CIVIC", "N", now)
	insertNamed(t, "CIVIC TOURING", "N", now)
	insertNamed(t, "COROLLA", "N", now)

	docs, err := repo.List(ctx, ListingQuery{NamePrefix: domain.NormalizeName("civ")})
	require.NoError(t, err)

	got := names(docs)
	sort.Strings(got)
	assert.Equal(t, []string{"CIVIC", "CIVIC TOURING"}, got)

	docs, err = repo.List(ctx, ListingQuery{NamePrefix: "CIVIC TOURING"})
	require.NoError(t, err)
	assert.Equal(t, []string{"CIVIC TOURING"}, names(docs))
}

// Feature: car-showroom, Property 6: Prefix search returns exactly the names starting with the term
func TestProperty_PrefixSearchMatchesHasPrefix(t *testing.T) {
	repo := NewListingRepository(testDB)
	ctx := context.Background()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 25
	properties := gopter.NewProperties(parameters)

	properties.Property("search(term) == {n | HasPrefix(n, upper(term))}", prop.ForAll(
		func(stored []string, term string) bool {
			if _, err := testDB.Exec("DELETE FROM cars"); err != nil {
				return false
			}
			for _, n := range stored {
				if _, err := testDB.Exec(`INSERT INTO cars (name) VALUES ($1)`, domain.NormalizeName(n)); err != nil {
					return false
				}
			}

			prefix := domain.NormalizeName(term)
			var want []string
			for _, n := range stored {
				if strings.HasPrefix(domain.NormalizeName(n), prefix) {
					want = append(want, domain.NormalizeName(n))
				}
			}

			docs, err := repo.List(ctx, ListingQuery{NamePrefix: prefix})
			if err != nil {
				t.Logf("List failed: %v", err)
				return false
			}
			got := names(docs)

			sort.Strings(want)
			sort.Strings(got)
			if len(want) != len(got) {
				return false
			}
			for i := range want {
				if want[i] != got[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(6, gen.RegexMatch(`[a-d ]{1,6}`)),
		gen.RegexMatch(`[a-d]{1,3}`),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
