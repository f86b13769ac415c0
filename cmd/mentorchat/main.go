package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/vijaynimmakayala9/techsterker-mentor-sub000/internal/api"
	"github.com/vijaynimmakayala9/techsterker-mentor-sub000/internal/chat"
	"github.com/vijaynimmakayala9/techsterker-mentor-sub000/internal/config"
	"github.com/vijaynimmakayala9/techsterker-mentor-sub000/internal/session"
	"github.com/vijaynimmakayala9/techsterker-mentor-sub000/internal/store"
	"github.com/vijaynimmakayala9/techsterker-mentor-sub000/internal/ui"
	"github.com/vijaynimmakayala9/techsterker-mentor-sub000/pkg/logger"
)

var (
	flagBaseURL string
	flagActorID string
	flagToken   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mentorchat",
		Short: "Terminal chat client for Techsterker mentors",
		RunE:  runClient,
	}

	cobra.OnInitialize(config.LoadConfig)

	rootCmd.Flags().StringVar(&flagBaseURL, "base-url", "", "chat API base URL (overrides config)")
	rootCmd.Flags().StringVar(&flagActorID, "actor", "", "mentor id (overrides the session token)")
	rootCmd.Flags().StringVar(&flagToken, "token", "", "session token (overrides config)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runClient(cmd *cobra.Command, args []string) error {
	cfg := config.AppConfig

	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}
	logger.Init(env, cfg.LogFile)
	logger.Info().Str("environment", env).Msg("Starting mentorchat...")

	if flagBaseURL != "" {
		cfg.APIBaseURL = flagBaseURL
	}
	if flagToken != "" {
		cfg.SessionToken = flagToken
	}

	actor, err := resolveActor(cfg)
	if err != nil {
		return err
	}
	logger.Info().Str("actor", actor.ID).Msg("Session resolved")

	client := api.NewClient(cfg.APIBaseURL)
	service := chat.NewService(client, actor)
	cache := chat.NewCache()

	synchronizer := chat.NewSynchronizer(service, cache, cfg.PollInterval(), clockwork.NewRealClock())
	if cfg.HistoryDBPath != "" {
		history, err := store.Open(cfg.HistoryDBPath)
		if err != nil {
			// The client works without local history; just say so and move on.
			logger.Warn().Err(err).Str("path", cfg.HistoryDBPath).Msg("history store unavailable")
		} else {
			defer history.Close()
			synchronizer.SetHistory(history)
		}
	}

	directory := chat.NewDirectory(service)
	composer := chat.NewComposer(service, cache, actor)
	membership := chat.NewMembership(service, service, directory, synchronizer)

	app := ui.New(context.Background(), client, directory, synchronizer, composer, membership, cache, cfg.DownloadDir)
	return app.Run()
}

// resolveActor builds the injected current-actor value: explicit flag/config
// id first, then the identity parsed out of the persisted session token.
func resolveActor(cfg *config.Config) (session.Actor, error) {
	id := flagActorID
	if id == "" {
		id = cfg.ActorID
	}
	if id != "" {
		name := cfg.ActorName
		if name == "" {
			name = "You"
		}
		return session.Actor{ID: id, Name: name}, nil
	}

	if cfg.SessionToken == "" {
		return session.Actor{}, fmt.Errorf("no identity: set ACTOR_ID or SESSION_TOKEN (or pass --actor)")
	}
	return session.FromToken(cfg.SessionToken)
}
