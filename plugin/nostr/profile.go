package nostr

import (
	"context"
	"encoding/json"

	"github.com/nbd-wtf/go-nostr"
	"github.com/pkg/errors"
)

// Profile is the public identity advertised for the agent on the relay.
// It is built once at startup and immutable afterward.
type Profile struct {
	Keys        *Keys
	Name        string
	About       string
	DisplayName string
	Picture     string
}

// metadataContent is the kind-0 event payload (NIP-01 profile metadata).
type metadataContent struct {
	Name        string `json:"name"`
	About       string `json:"about"`
	DisplayName string `json:"display_name"`
	Picture     string `json:"picture"`
}

// Publish signs and publishes the profile as a kind-0 metadata event.
func (p *Profile) Publish(ctx context.Context, relayURL string) error {
	content, err := json.Marshal(metadataContent{
		Name:        p.Name,
		About:       p.About,
		DisplayName: p.DisplayName,
		Picture:     p.Picture,
	})
	if err != nil {
		return errors.Wrap(err, "marshal profile metadata")
	}

	ev := nostr.Event{
		PubKey:    p.Keys.PublicKey,
		CreatedAt: nostr.Now(),
		Kind:      nostr.KindProfileMetadata,
		Tags:      nostr.Tags{},
		Content:   string(content),
	}
	if err := ev.Sign(p.Keys.PrivateKey); err != nil {
		return errors.Wrap(err, "sign profile metadata")
	}

	relay, err := nostr.RelayConnect(ctx, relayURL)
	if err != nil {
		return errors.Wrapf(err, "connect relay %s", relayURL)
	}
	defer relay.Close()

	if err := relay.Publish(ctx, ev); err != nil {
		return errors.Wrap(err, "publish profile metadata")
	}
	return nil
}
