// Package store provides database access to the seller knowledge table.
package store

import "context"

// Driver is implemented by database backends.
type Driver interface {
	// EnsureSellerTable creates the ai schema and sellers table when missing.
	EnsureSellerTable(ctx context.Context) error
	// ResetSellerTable enables the vector extension, then drops and
	// recreates the sellers table. Destructive; full resets only.
	ResetSellerTable(ctx context.Context) error

	UpsertSeller(ctx context.Context, upsert *Seller) (*Seller, error)
	ListSellers(ctx context.Context, find *FindSeller) ([]*Seller, error)
	GetSeller(ctx context.Context, find *FindSeller) (*Seller, error)
	SearchSellers(ctx context.Context, embedding []float32, limit int) ([]*SellerMatch, error)
	CountSellers(ctx context.Context) (int, error)

	Close() error
}

// Store is the database-independent facade used by the rest of the service.
type Store struct {
	driver Driver
}

// New creates a Store over the given driver.
func New(driver Driver) *Store {
	return &Store{driver: driver}
}

// EnsureSellerTable creates the seller schema objects when missing.
func (s *Store) EnsureSellerTable(ctx context.Context) error {
	return s.driver.EnsureSellerTable(ctx)
}

// ResetSellerTable drops and recreates the sellers table and makes sure
// the vector extension is enabled.
func (s *Store) ResetSellerTable(ctx context.Context) error {
	return s.driver.ResetSellerTable(ctx)
}

// UpsertSeller inserts a seller record, or updates it when the id exists.
func (s *Store) UpsertSeller(ctx context.Context, upsert *Seller) (*Seller, error) {
	return s.driver.UpsertSeller(ctx, upsert)
}

// ListSellers lists sellers matching the given filter.
func (s *Store) ListSellers(ctx context.Context, find *FindSeller) ([]*Seller, error) {
	return s.driver.ListSellers(ctx, find)
}

// GetSeller returns the first seller matching the given filter.
func (s *Store) GetSeller(ctx context.Context, find *FindSeller) (*Seller, error) {
	return s.driver.GetSeller(ctx, find)
}

// SearchSellers returns sellers ordered by cosine distance to the query
// embedding, closest first.
func (s *Store) SearchSellers(ctx context.Context, embedding []float32, limit int) ([]*SellerMatch, error) {
	return s.driver.SearchSellers(ctx, embedding, limit)
}

// CountSellers returns the number of seller records.
func (s *Store) CountSellers(ctx context.Context) (int, error) {
	return s.driver.CountSellers(ctx)
}

// Close releases the underlying database resources.
func (s *Store) Close() error {
	return s.driver.Close()
}
