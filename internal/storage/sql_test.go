package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pincrawl/internal/config"
	"pincrawl/pkg/models"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()

	cfg := &config.Config{}
	cfg.Database.Driver = "sqlite"
	cfg.Database.DSN = ":memory:"

	store, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

func TestCreateAdIsIdempotentByURL(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	ad, err := store.CreateAd(ctx, "https://www.leboncoin.fr/ad/flipper/123")
	require.NoError(t, err)
	assert.Equal(t, models.StageNew, ad.Stage)
	assert.False(t, ad.Ignored)
	assert.Equal(t, 0, ad.Attempts)

	_, err = store.CreateAd(ctx, "https://www.leboncoin.fr/ad/flipper/123")
	assert.ErrorIs(t, err, ErrDuplicateURL)

	exists, err := store.AdExists(ctx, "https://www.leboncoin.fr/ad/flipper/123")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.AdExists(ctx, "https://www.leboncoin.fr/ad/flipper/999")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestListAdsByStageReturnsOldestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	urls := []string{
		"https://www.leboncoin.fr/ad/flipper/1",
		"https://www.leboncoin.fr/ad/flipper/2",
		"https://www.leboncoin.fr/ad/flipper/3",
	}
	for _, url := range urls {
		_, err := store.CreateAd(ctx, url)
		require.NoError(t, err)
	}

	ads, err := store.ListAdsByStage(ctx, models.StageNew, 0)
	require.NoError(t, err)
	require.Len(t, ads, 3)
	for i, ad := range ads {
		assert.Equal(t, urls[i], ad.URL)
	}

	ads, err = store.ListAdsByStage(ctx, models.StageNew, 2)
	require.NoError(t, err)
	require.Len(t, ads, 2)
	assert.Equal(t, urls[0], ads[0].URL)
	assert.Equal(t, urls[1], ads[1].URL)
}

func TestStageTransitions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	ad, err := store.CreateAd(ctx, "https://www.leboncoin.fr/ad/flipper/42")
	require.NoError(t, err)

	year := "2021"
	godzilla := &models.Product{
		OpdbID:       "G42PZ-MD4Eq",
		Name:         "Godzilla (Premium)",
		Manufacturer: "Stern",
		Year:         &year,
	}

	// Identify before scrape is a conflict.
	err = store.MarkAdIdentified(ctx, ad.ID, godzilla)
	assert.ErrorIs(t, err, ErrStageConflict)

	require.NoError(t, store.MarkAdScraped(ctx, ad.ID, "# Flipper Godzilla", "scrape-1"))

	// A second scrape of the same ad must not succeed.
	err = store.MarkAdScraped(ctx, ad.ID, "other content", "scrape-2")
	assert.ErrorIs(t, err, ErrStageConflict)

	got, err := store.GetAdByURL(ctx, ad.URL)
	require.NoError(t, err)
	assert.Equal(t, models.StageScraped, got.Stage)
	require.NotNil(t, got.Content)
	assert.Equal(t, "# Flipper Godzilla", *got.Content)
	require.NotNil(t, got.ScrapedAt)

	require.NoError(t, store.MarkAdIdentified(ctx, ad.ID, godzilla))

	got, err = store.GetAdByURL(ctx, ad.URL)
	require.NoError(t, err)
	assert.Equal(t, models.StageIdentified, got.Stage)
	require.NotNil(t, got.OpdbID)
	assert.Equal(t, "G42PZ-MD4Eq", *got.OpdbID)
	require.NotNil(t, got.IdentifiedAt)

	// Terminal stages cannot be ignored.
	err = store.MarkAdIgnored(ctx, ad.ID)
	assert.ErrorIs(t, err, ErrStageConflict)
}

func TestMarkAdIgnored(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	ad, err := store.CreateAd(ctx, "https://www.leboncoin.fr/ad/flipper/7")
	require.NoError(t, err)
	require.NoError(t, store.MarkAdScraped(ctx, ad.ID, "some parts listing", "scrape-7"))
	require.NoError(t, store.MarkAdIgnored(ctx, ad.ID))

	got, err := store.GetAdByURL(ctx, ad.URL)
	require.NoError(t, err)
	assert.Equal(t, models.StageIgnored, got.Stage)
	assert.True(t, got.Ignored)

	// Ignored ads never show up in work queues.
	ads, err := store.ListAdsByStage(ctx, models.StageScraped, 0)
	require.NoError(t, err)
	assert.Empty(t, ads)
}

func TestSaveExtraction(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	ad, err := store.CreateAd(ctx, "https://www.leboncoin.fr/ad/flipper/88")
	require.NoError(t, err)
	require.NoError(t, store.MarkAdScraped(ctx, ad.ID, "content", "scrape-88"))

	amount := 4500
	city := "Lyon"
	year := 2021
	info := &models.AdInfo{
		Title:       "Flipper Godzilla Premium",
		Description: "Tres bon etat, peu servi.",
		Amount:      &amount,
		Currency:    "EUR",
		City:        &city,
	}
	guess := &models.ProductGuess{Name: "Godzilla", Manufacturer: "Stern", Year: &year}

	require.NoError(t, store.SaveExtraction(ctx, ad.ID, info, guess))

	got, err := store.GetAdByURL(ctx, ad.URL)
	require.NoError(t, err)
	assert.Equal(t, models.StageScraped, got.Stage, "extraction must not advance the stage")
	require.NotNil(t, got.Title)
	assert.Equal(t, "Flipper Godzilla Premium", *got.Title)
	require.NotNil(t, got.Amount)
	assert.Equal(t, 4500, *got.Amount)
	require.NotNil(t, got.Product)
	assert.Equal(t, "Godzilla", *got.Product)
	require.NotNil(t, got.Manufacturer)
	assert.Equal(t, "Stern", *got.Manufacturer)
	require.NotNil(t, got.Year)
	assert.Equal(t, "2021", *got.Year)
}

func TestMarkAdIdentifiedReplacesGuessWithCatalogFields(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	ad, err := store.CreateAd(ctx, "https://www.leboncoin.fr/ad/flipper/21")
	require.NoError(t, err)
	require.NoError(t, store.MarkAdScraped(ctx, ad.ID, "content", "scrape-21"))

	// The extractor guessed a bare name, no manufacturer or year.
	info := &models.AdInfo{Title: "Flipper Godzilla"}
	guess := &models.ProductGuess{Name: "Godzilla"}
	require.NoError(t, store.SaveExtraction(ctx, ad.ID, info, guess))

	year := "2021"
	require.NoError(t, store.MarkAdIdentified(ctx, ad.ID, &models.Product{
		OpdbID:       "G42PZ-MD4Eq",
		Name:         "Godzilla (Premium)",
		Manufacturer: "Stern",
		Year:         &year,
	}))

	got, err := store.GetAdByURL(ctx, ad.URL)
	require.NoError(t, err)
	require.NotNil(t, got.Product)
	assert.Equal(t, "Godzilla (Premium)", *got.Product)
	require.NotNil(t, got.Manufacturer)
	assert.Equal(t, "Stern", *got.Manufacturer)
	require.NotNil(t, got.Year)
	assert.Equal(t, "2021", *got.Year)
}

func TestRecordAdFailure(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	ad, err := store.CreateAd(ctx, "https://www.leboncoin.fr/ad/flipper/13")
	require.NoError(t, err)

	attempts, err := store.RecordAdFailure(ctx, ad.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)

	attempts, err = store.RecordAdFailure(ctx, ad.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)

	// A failure does not change the stage, so the ad stays retryable.
	got, err := store.GetAdByURL(ctx, ad.URL)
	require.NoError(t, err)
	assert.Equal(t, models.StageNew, got.Stage)
}

func TestProductStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	ipdb := 6843
	shortname := "GodzillaPrem"
	year := "2021"
	product := &models.Product{
		OpdbID:       "G42PZ-MD4Eq",
		IpdbID:       &ipdb,
		Name:         "Godzilla (Premium)",
		Shortname:    &shortname,
		Manufacturer: "Stern",
		Year:         &year,
	}

	require.NoError(t, store.UpsertProduct(ctx, product))

	got, err := store.GetProductByOpdbID(ctx, "G42PZ-MD4Eq")
	require.NoError(t, err)
	assert.Equal(t, "Godzilla (Premium)", got.Name)
	assert.Equal(t, "Stern", got.Manufacturer)
	require.NotNil(t, got.IpdbID)
	assert.Equal(t, 6843, *got.IpdbID)

	// Upsert with the same OPDB ID refreshes instead of duplicating.
	product.Name = "Godzilla (Premium Edition)"
	require.NoError(t, store.UpsertProduct(ctx, product))

	count, err := store.CountProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err = store.GetProductByOpdbID(ctx, "G42PZ-MD4Eq")
	require.NoError(t, err)
	assert.Equal(t, "Godzilla (Premium Edition)", got.Name)

	_, err = store.GetProductByOpdbID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.UpsertProduct(ctx, &models.Product{OpdbID: "AAAA-1", Name: "Attack From Mars", Manufacturer: "Bally"}))

	products, err := store.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Attack From Mars", products[0].Name)

	require.NoError(t, store.DeleteAllProducts(ctx))
	count, err = store.CountProducts(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}
