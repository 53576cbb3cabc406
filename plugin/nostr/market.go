package nostr

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/nbd-wtf/go-nostr"
	"github.com/pkg/errors"
)

// NIP-15 marketplace event kinds.
const (
	KindStall   = 30017
	KindProduct = 30018
)

// queryLimit bounds how many events a single relay query may return.
const queryLimit = 500

// Stall is the content of a kind-30017 event: one merchant storefront.
type Stall struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Currency    string `json:"currency"`
}

// Product is the content of a kind-30018 event.
type Product struct {
	ID          string   `json:"id"`
	StallID     string   `json:"stall_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Images      []string `json:"images"`
	Currency    string   `json:"currency"`
	Price       float64  `json:"price"`
	Quantity    int      `json:"quantity"`
}

// Listing aggregates everything published by one merchant.
type Listing struct {
	MerchantPubkey string
	MerchantName   string
	Picture        string
	Stalls         []Stall
	Products       []Product
}

// Content renders the listing as the free-text blob stored and embedded
// for semantic retrieval.
func (l *Listing) Content() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Merchant: %s\n", l.MerchantName)
	if l.Picture != "" {
		fmt.Fprintf(&sb, "Picture: %s\n", l.Picture)
	}
	for _, s := range l.Stalls {
		fmt.Fprintf(&sb, "Stall: %s. %s\n", s.Name, s.Description)
	}
	for _, p := range l.Products {
		fmt.Fprintf(&sb, "Product: %s. %s Price: %.2f %s.", p.Name, p.Description, p.Price, p.Currency)
		if len(p.Images) > 0 {
			fmt.Fprintf(&sb, " Image: %s", p.Images[0])
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// Market fetches seller listings from a single marketplace relay.
type Market struct {
	relayURL string
}

// NewMarket creates a Market against the given relay address.
func NewMarket(relayURL string) *Market {
	return &Market{relayURL: relayURL}
}

// FetchListings downloads all stalls and products from the relay and the
// kind-0 profiles of their publishers, grouped per merchant. This is the
// slow path behind the refresh_sellers tool and the startup warmup.
func (m *Market) FetchListings(ctx context.Context) ([]*Listing, error) {
	relay, err := nostr.RelayConnect(ctx, m.relayURL)
	if err != nil {
		return nil, errors.Wrapf(err, "connect relay %s", m.relayURL)
	}
	defer relay.Close()

	stalls, err := relay.QuerySync(ctx, nostr.Filter{
		Kinds: []int{KindStall},
		Limit: queryLimit,
	})
	if err != nil {
		return nil, errors.Wrap(err, "query stalls")
	}
	products, err := relay.QuerySync(ctx, nostr.Filter{
		Kinds: []int{KindProduct},
		Limit: queryLimit,
	})
	if err != nil {
		return nil, errors.Wrap(err, "query products")
	}

	listings := GroupListings(stalls, products)
	if len(listings) == 0 {
		return nil, nil
	}

	authors := make([]string, 0, len(listings))
	for _, l := range listings {
		authors = append(authors, l.MerchantPubkey)
	}
	profiles, err := relay.QuerySync(ctx, nostr.Filter{
		Kinds:   []int{nostr.KindProfileMetadata},
		Authors: authors,
		Limit:   queryLimit,
	})
	if err != nil {
		return nil, errors.Wrap(err, "query merchant profiles")
	}
	ApplyProfiles(listings, profiles)

	return listings, nil
}

// GroupListings parses stall and product events and groups them by author.
// Events with malformed content are skipped.
func GroupListings(stallEvents, productEvents []*nostr.Event) []*Listing {
	byPubkey := map[string]*Listing{}
	get := func(pubkey string) *Listing {
		l, ok := byPubkey[pubkey]
		if !ok {
			l = &Listing{MerchantPubkey: pubkey}
			byPubkey[pubkey] = l
		}
		return l
	}

	for _, ev := range stallEvents {
		var stall Stall
		if err := json.Unmarshal([]byte(ev.Content), &stall); err != nil {
			continue
		}
		l := get(ev.PubKey)
		l.Stalls = append(l.Stalls, stall)
		if l.MerchantName == "" {
			l.MerchantName = stall.Name
		}
	}
	for _, ev := range productEvents {
		var product Product
		if err := json.Unmarshal([]byte(ev.Content), &product); err != nil {
			continue
		}
		get(ev.PubKey).Products = append(get(ev.PubKey).Products, product)
	}

	// Deterministic ordering keeps refresh output stable across runs.
	pubkeys := make([]string, 0, len(byPubkey))
	for pk := range byPubkey {
		pubkeys = append(pubkeys, pk)
	}
	sort.Strings(pubkeys)

	listings := make([]*Listing, 0, len(pubkeys))
	for _, pk := range pubkeys {
		listings = append(listings, byPubkey[pk])
	}
	return listings
}

// ApplyProfiles fills merchant display names and pictures from kind-0 events.
func ApplyProfiles(listings []*Listing, profileEvents []*nostr.Event) {
	meta := map[string]metadataContent{}
	for _, ev := range profileEvents {
		var mc metadataContent
		if err := json.Unmarshal([]byte(ev.Content), &mc); err != nil {
			continue
		}
		meta[ev.PubKey] = mc
	}
	for _, l := range listings {
		mc, ok := meta[l.MerchantPubkey]
		if !ok {
			continue
		}
		if mc.DisplayName != "" {
			l.MerchantName = mc.DisplayName
		} else if mc.Name != "" {
			l.MerchantName = mc.Name
		}
		l.Picture = mc.Picture
	}
}
