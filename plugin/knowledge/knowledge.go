// Package knowledge wraps the seller store and the embedder into the
// semantic retrieval layer the agent grounds its answers on.
package knowledge

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	nostrplugin "github.com/snovalley/buyer-agent/plugin/nostr"
	"github.com/snovalley/buyer-agent/store"
)

// Base is the agent's seller knowledge base.
type Base struct {
	mu       sync.RWMutex
	store    *store.Store
	embedder Embedder
}

// New creates a knowledge base over the given store and embedder.
func New(st *store.Store, embedder Embedder) *Base {
	return &Base{store: st, embedder: embedder}
}

// Search returns the top-k sellers most semantically similar to the query.
func (b *Base) Search(ctx context.Context, query string, k int) ([]*store.SellerMatch, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count, err := b.store.CountSellers(ctx)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	vecs, err := b.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return b.store.SearchSellers(ctx, vecs[0], k)
}

// IndexListing upserts one marketplace listing as a seller record. Listings
// whose content hash is unchanged are skipped without re-embedding.
// Returns true when the record was written.
func (b *Base) IndexListing(ctx context.Context, listing *nostrplugin.Listing) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	content := listing.Content()
	hash := contentHash(content)
	id := sellerID(listing.MerchantPubkey)

	existing, err := b.store.GetSeller(ctx, &store.FindSeller{ID: &id})
	if err != nil {
		return false, err
	}
	if existing != nil && existing.ContentHash == hash {
		return false, nil
	}

	vecs, err := b.embedder.Embed(ctx, []string{content})
	if err != nil {
		return false, err
	}

	_, err = b.store.UpsertSeller(ctx, &store.Seller{
		ID:      id,
		Name:    listing.MerchantName,
		Content: content,
		Metadata: map[string]any{
			"pubkey":  listing.MerchantPubkey,
			"picture": listing.Picture,
		},
		Filters:     map[string]any{},
		Usage:       map[string]any{},
		Embedding:   vecs[0],
		ContentHash: hash,
	})
	if err != nil {
		return false, err
	}
	slog.Info("indexed seller", "id", id, "name", listing.MerchantName)
	return true, nil
}

// sellerID derives a stable UUID from the merchant pubkey so a refreshed
// listing updates its existing row instead of inserting a duplicate.
func sellerID(pubkey string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(pubkey)).String()
}

func contentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
