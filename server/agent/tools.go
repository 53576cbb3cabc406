package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/shared"
	"github.com/tmc/langchaingo/tools"

	"github.com/snovalley/buyer-agent/plugin/knowledge"
	nostrplugin "github.com/snovalley/buyer-agent/plugin/nostr"
	"github.com/snovalley/buyer-agent/store"
)

// Marketplace is the outbound side of the refresh tool.
type Marketplace interface {
	FetchListings(ctx context.Context) ([]*nostrplugin.Listing, error)
}

// BuyerTools is the tool provider attached to the buyer agent.
type BuyerTools struct {
	kb     *knowledge.Base
	store  *store.Store
	market Marketplace
}

// NewBuyerTools assembles the provider.
func NewBuyerTools(kb *knowledge.Base, st *store.Store, market Marketplace) *BuyerTools {
	return &BuyerTools{kb: kb, store: st, market: market}
}

// Registry returns the callable tools keyed by name.
func (b *BuyerTools) Registry() map[string]tools.Tool {
	return map[string]tools.Tool{
		"search_sellers":      &searchSellersTool{kb: b.kb},
		"get_seller_products": &sellerProductsTool{store: b.store},
		"refresh_sellers":     &refreshSellersTool{kb: b.kb, market: b.market},
	}
}

// Defs returns the tool schemas sent to the model.
func (b *BuyerTools) Defs() []openai.ChatCompletionToolUnionParam {
	return []openai.ChatCompletionToolUnionParam{
		toolDef("search_sellers",
			"Search the seller database semantically for businesses, products, or experiences matching a topic or interest.",
			map[string]any{
				"query": map[string]any{"type": "string", "description": "The search query"},
			}, []string{"query"}),
		toolDef("get_seller_products",
			"Fetch the full product listing of a specific seller by its exact name.",
			map[string]any{
				"name": map[string]any{"type": "string", "description": "The seller's name"},
			}, []string{"name"}),
		toolDef("refresh_sellers",
			"Download the current sellers and their products from the marketplace relay and reindex them. Slow; use only when the database has no information about a product.",
			map[string]any{}, []string{}),
	}
}

// toolDef constructs an OpenAI function tool definition.
func toolDef(name, description string, properties map[string]any, required []string) openai.ChatCompletionToolUnionParam {
	return openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
		Name:        name,
		Description: openai.String(description),
		Parameters: shared.FunctionParameters{
			"type":       "object",
			"properties": properties,
			"required":   required,
		},
	})
}

type searchSellersTool struct {
	kb *knowledge.Base
}

func (t *searchSellersTool) Name() string { return "search_sellers" }
func (t *searchSellersTool) Description() string {
	return "Search the seller knowledge base. Input must be a JSON string with key `query` (string)."
}
func (t *searchSellersTool) Call(ctx context.Context, input string) (string, error) {
	var payload struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal([]byte(input), &payload); err != nil || payload.Query == "" {
		return "Error: failed to parse input JSON.", nil
	}
	matches, err := t.kb.Search(ctx, payload.Query, 5)
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "No sellers found for that query.", nil
	}
	var sb strings.Builder
	for i, m := range matches {
		preview := m.Seller.Content
		if len(preview) > 400 {
			preview = preview[:400] + "..."
		}
		fmt.Fprintf(&sb, "[%d] Seller %s (distance %.2f):\n%s\n\n", i+1, m.Seller.Name, m.Distance, preview)
	}
	return sb.String(), nil
}

type sellerProductsTool struct {
	store *store.Store
}

func (t *sellerProductsTool) Name() string { return "get_seller_products" }
func (t *sellerProductsTool) Description() string {
	return "Fetch a seller's products. Input must be a JSON string with key `name` (string)."
}
func (t *sellerProductsTool) Call(ctx context.Context, input string) (string, error) {
	var payload struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal([]byte(input), &payload); err != nil || payload.Name == "" {
		return "Error: failed to parse input JSON.", nil
	}
	seller, err := t.store.GetSeller(ctx, &store.FindSeller{Name: &payload.Name})
	if err != nil {
		return "", err
	}
	if seller == nil {
		// Give the model the exact names so it can retry with one of them.
		known, err := t.store.ListSellers(ctx, &store.FindSeller{})
		if err != nil {
			return "", err
		}
		if len(known) == 0 {
			return fmt.Sprintf("No seller named %q in the database.", payload.Name), nil
		}
		names := make([]string, 0, len(known))
		for _, s := range known {
			names = append(names, s.Name)
		}
		return fmt.Sprintf("No seller named %q in the database. Known sellers: %s.",
			payload.Name, strings.Join(names, ", ")), nil
	}
	return seller.Content, nil
}

type refreshSellersTool struct {
	kb     *knowledge.Base
	market Marketplace
}

func (t *refreshSellersTool) Name() string { return "refresh_sellers" }
func (t *refreshSellersTool) Description() string {
	return "Download sellers from the marketplace relay and reindex them. Input should be an empty JSON object: {}"
}
func (t *refreshSellersTool) Call(ctx context.Context, _ string) (string, error) {
	listings, err := t.market.FetchListings(ctx)
	if err != nil {
		return "Error downloading sellers: " + err.Error(), nil
	}
	indexed := 0
	for _, l := range listings {
		wrote, err := t.kb.IndexListing(ctx, l)
		if err != nil {
			return "Error indexing sellers: " + err.Error(), nil
		}
		if wrote {
			indexed++
		}
	}
	return fmt.Sprintf("Downloaded %d sellers from the marketplace, %d updated.", len(listings), indexed), nil
}
