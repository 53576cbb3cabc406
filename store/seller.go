package store

// Seller is one indexed marketplace entry in the `ai.sellers` table.
type Seller struct {
	ID          string
	Name        string
	Content     string
	Metadata    map[string]any
	Filters     map[string]any
	Usage       map[string]any
	Embedding   []float32 // 1536 dimensions, matching the embedding model
	ContentHash string
}

// FindSeller filters for ListSellers / GetSeller.
type FindSeller struct {
	ID   *string
	Name *string
}

// SellerMatch is a single semantic-search hit.
type SellerMatch struct {
	Seller   *Seller
	Distance float32 // cosine distance, lower is closer
}
