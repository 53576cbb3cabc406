package knowledge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nostrplugin "github.com/snovalley/buyer-agent/plugin/nostr"
	"github.com/snovalley/buyer-agent/store"
)

// fakeDriver is an in-memory store.Driver for tests.
type fakeDriver struct {
	sellers map[string]*store.Seller
	resets  int
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{sellers: map[string]*store.Seller{}}
}

func (d *fakeDriver) EnsureSellerTable(context.Context) error { return nil }

func (d *fakeDriver) ResetSellerTable(context.Context) error {
	d.sellers = map[string]*store.Seller{}
	d.resets++
	return nil
}

func (d *fakeDriver) UpsertSeller(_ context.Context, upsert *store.Seller) (*store.Seller, error) {
	d.sellers[upsert.ID] = upsert
	return upsert, nil
}

func (d *fakeDriver) ListSellers(_ context.Context, find *store.FindSeller) ([]*store.Seller, error) {
	var list []*store.Seller
	for _, s := range d.sellers {
		if find.ID != nil && s.ID != *find.ID {
			continue
		}
		if find.Name != nil && s.Name != *find.Name {
			continue
		}
		list = append(list, s)
	}
	return list, nil
}

func (d *fakeDriver) GetSeller(ctx context.Context, find *store.FindSeller) (*store.Seller, error) {
	list, err := d.ListSellers(ctx, find)
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return list[0], nil
}

func (d *fakeDriver) SearchSellers(_ context.Context, _ []float32, limit int) ([]*store.SellerMatch, error) {
	var list []*store.SellerMatch
	for _, s := range d.sellers {
		if len(list) == limit {
			break
		}
		list = append(list, &store.SellerMatch{Seller: s, Distance: 0.1})
	}
	return list, nil
}

func (d *fakeDriver) CountSellers(context.Context) (int, error) {
	return len(d.sellers), nil
}

func (d *fakeDriver) Close() error { return nil }

// fakeEmbedder counts calls and returns constant vectors.
type fakeEmbedder struct {
	calls int
}

func (e *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.calls++
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, Dimensions)
	}
	return out, nil
}

func testListing() *nostrplugin.Listing {
	return &nostrplugin.Listing{
		MerchantPubkey: "pk-train",
		MerchantName:   "Depot Rides",
		Picture:        "https://img/depot.png",
		Products: []nostrplugin.Product{
			{Name: "Scenic Ride Ticket", Description: "90 minute round trip.", Currency: "USD", Price: 45},
		},
	}
}

func TestIndexListingWritesSeller(t *testing.T) {
	ctx := context.Background()
	driver := newFakeDriver()
	embedder := &fakeEmbedder{}
	kb := New(store.New(driver), embedder)

	wrote, err := kb.IndexListing(ctx, testListing())
	require.NoError(t, err)
	assert.True(t, wrote)
	require.Len(t, driver.sellers, 1)

	for _, s := range driver.sellers {
		assert.Equal(t, "Depot Rides", s.Name)
		assert.NotEmpty(t, s.ContentHash)
		assert.Len(t, s.Embedding, Dimensions)
		assert.Equal(t, "pk-train", s.Metadata["pubkey"])
		assert.Equal(t, "https://img/depot.png", s.Metadata["picture"])
	}
}

func TestIndexListingSkipsUnchangedContent(t *testing.T) {
	ctx := context.Background()
	driver := newFakeDriver()
	embedder := &fakeEmbedder{}
	kb := New(store.New(driver), embedder)

	wrote, err := kb.IndexListing(ctx, testListing())
	require.NoError(t, err)
	assert.True(t, wrote)

	wrote, err = kb.IndexListing(ctx, testListing())
	require.NoError(t, err)
	assert.False(t, wrote, "unchanged content hash skips the write")
	assert.Equal(t, 1, embedder.calls, "no re-embedding for unchanged content")

	changed := testListing()
	changed.Products[0].Price = 50
	wrote, err = kb.IndexListing(ctx, changed)
	require.NoError(t, err)
	assert.True(t, wrote)
	assert.Len(t, driver.sellers, 1, "refresh updates the same row")
}

func TestSearchEmptyKnowledgeBase(t *testing.T) {
	kb := New(store.New(newFakeDriver()), &fakeEmbedder{})

	matches, err := kb.Search(context.Background(), "steam train", 5)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestSearchClampsKToSellerCount(t *testing.T) {
	ctx := context.Background()
	driver := newFakeDriver()
	kb := New(store.New(driver), &fakeEmbedder{})

	_, err := kb.IndexListing(ctx, testListing())
	require.NoError(t, err)

	matches, err := kb.Search(ctx, "steam train", 5)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestResetEmptiesKnowledgeBase(t *testing.T) {
	ctx := context.Background()
	driver := newFakeDriver()
	st := store.New(driver)
	kb := New(st, &fakeEmbedder{})

	_, err := kb.IndexListing(ctx, testListing())
	require.NoError(t, err)

	require.NoError(t, st.ResetSellerTable(ctx))
	assert.Equal(t, 1, driver.resets)
	assert.Empty(t, driver.sellers)

	matches, err := kb.Search(ctx, "steam train", 5)
	require.NoError(t, err)
	assert.Empty(t, matches, "nothing is retrievable after a reset")
}

func TestSellerIDIsStablePerMerchant(t *testing.T) {
	assert.Equal(t, sellerID("pk-train"), sellerID("pk-train"))
	assert.NotEqual(t, sellerID("pk-train"), sellerID("pk-candy"))
}
