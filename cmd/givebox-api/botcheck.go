package main

import (
	"context"
	"fmt"
	"os"

	"givebox/internal/db"
	"givebox/internal/model"
	"givebox/internal/telegram"

	"go.uber.org/zap"
)

// runBotCheck verifies every registered bot against the Telegram API and
// reports webhook health and giveaway stock levels.
func runBotCheck() error {
	logger := zap.NewNop()

	pool, err := db.NewPool(databaseURL(), logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	apiURL := os.Getenv("TELEGRAM_API_URL")
	tg := telegram.NewClient(apiURL, logger)

	ctx := context.Background()
	bots, err := pool.Queries.ListBots(ctx)
	if err != nil {
		return fmt.Errorf("failed to list bots: %w", err)
	}
	if len(bots) == 0 {
		fmt.Println("No bots registered")
		return nil
	}

	for _, bot := range bots {
		fmt.Printf("Bot %d (%s):\n", bot.ID, bot.Name)
		if !bot.Active {
			fmt.Println("  inactive, skipping API checks")
			continue
		}

		profile, err := tg.GetMe(ctx, bot.Token)
		if err != nil {
			fmt.Printf("  getMe FAILED: %v\n", err)
			continue
		}
		fmt.Printf("  authenticated as @%s\n", profile.Username)

		info, err := tg.GetWebhookInfo(ctx, bot.Token)
		if err != nil {
			fmt.Printf("  getWebhookInfo FAILED: %v\n", err)
		} else {
			if info.URL == "" {
				fmt.Println("  WARNING: no webhook configured")
			} else {
				fmt.Printf("  webhook: %s (%d pending)\n", info.URL, info.PendingUpdates)
			}
			if info.LastErrorMessage != "" {
				fmt.Printf("  last webhook error: %s\n", info.LastErrorMessage)
			}
		}

		active, err := pool.Queries.ListActiveGiveaways(ctx, bot.ID)
		if err != nil {
			return fmt.Errorf("failed to list giveaways for bot %d: %w", bot.ID, err)
		}
		for _, g := range active {
			line := fmt.Sprintf("  giveaway %d [seq %d] %q", g.ID, *g.Sequence, g.Title)
			if g.Kind == model.KindUnique {
				n, err := pool.Queries.CountAvailableItems(ctx, g.ID)
				if err != nil {
					return fmt.Errorf("failed to count items for giveaway %d: %w", g.ID, err)
				}
				line += fmt.Sprintf(", %d items left", n)
				if n == 0 {
					line += " (OUT OF STOCK)"
				}
			}
			fmt.Println(line)
		}
	}
	return nil
}
