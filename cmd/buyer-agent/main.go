// Command buyer-agent runs the Snoqualmie Valley buyer agent HTTP service.
package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/snovalley/buyer-agent/internal/profile"
	"github.com/snovalley/buyer-agent/plugin/knowledge"
	nostrplugin "github.com/snovalley/buyer-agent/plugin/nostr"
	"github.com/snovalley/buyer-agent/server"
	"github.com/snovalley/buyer-agent/server/agent"
	"github.com/snovalley/buyer-agent/store"
	"github.com/snovalley/buyer-agent/store/db/postgres"
)

// envFilePath resolves the .env file next to the binary, independent of the
// working directory. It is loaded before reading configuration and is also
// where a generated agent key is persisted.
func envFilePath() string {
	exe, err := os.Executable()
	if err != nil {
		return ".env"
	}
	return filepath.Join(filepath.Dir(exe), ".env")
}

// Public identity of the buyer agent on the marketplace relay.
const (
	agentProfileName        = "Snoqualmie Valley Chamber of Commerce"
	agentProfileAbout       = "Supporting the Snoqualmie Valley business community."
	agentProfilePicture     = "https://i.nostr.build/ocjZ5GlAKwrvgRhx.png"
	agentProfileDisplayName = "Snoqualmie Valley Chamber of Commerce"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "buyer-agent",
		Short: "HTTP chat service backed by a marketplace buyer agent",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
	rootCmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Drop and recreate the ai.sellers table (destructive)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return reset(cmd.Context())
		},
	})

	if err := rootCmd.Execute(); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func loadProfile() (*profile.Profile, error) {
	// A missing .env file is fine; variables may come from the environment.
	if err := godotenv.Load(envFilePath()); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return profile.Load()
}

func serve(ctx context.Context) error {
	p, err := loadProfile()
	if err != nil {
		return err
	}

	keys, err := nostrplugin.LoadOrGenerateKeys(p.BuyerAgentKey, envFilePath())
	if err != nil {
		return err
	}
	slog.Info("agent identity", "npub", keys.Npub)

	agentProfile := &nostrplugin.Profile{
		Keys:        keys,
		Name:        agentProfileName,
		About:       agentProfileAbout,
		DisplayName: agentProfileDisplayName,
		Picture:     agentProfilePicture,
	}

	driver, err := postgres.NewDB(p.DSN())
	if err != nil {
		return err
	}
	st := store.New(driver)
	defer st.Close()
	if err := st.EnsureSellerTable(ctx); err != nil {
		return err
	}

	kb := knowledge.New(st, knowledge.NewOpenAIEmbedder(p.OpenAIAPIKey))
	market := nostrplugin.NewMarket(p.Relay)
	buyerTools := agent.NewBuyerTools(kb, st, market)

	buyer := agent.New(agent.Config{
		Name:         agent.AgentName,
		Instructions: agent.Instructions,
		Completer:    agent.NewOpenAICompleter(p.OpenAIAPIKey),
		Tools:        buyerTools.Registry(),
		ToolDefs:     buyerTools.Defs(),
	})

	srv := server.New(p.Addr, buyer, agentProfile, p.Relay)
	if err := srv.Warmup(ctx); err != nil {
		return err
	}
	return srv.Start()
}

func reset(ctx context.Context) error {
	p, err := loadProfile()
	if err != nil {
		return err
	}
	driver, err := postgres.NewDB(p.DSN())
	if err != nil {
		return err
	}
	st := store.New(driver)
	defer st.Close()

	if err := st.ResetSellerTable(ctx); err != nil {
		return err
	}
	slog.Info("sellers table reset")
	return nil
}
