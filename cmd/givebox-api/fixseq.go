package main

import (
	"context"
	"fmt"
	"sort"

	"givebox/internal/db"
	"givebox/internal/model"

	"go.uber.org/zap"
)

// runFixSequences renumbers each bot's sequenced giveaways to a dense
// 1..N, preserving their relative order. Gaps appear when giveaways are
// deactivated or deleted and break the "start with 1, 2" messaging.
func runFixSequences() error {
	pool, err := db.NewPool(databaseURL(), zap.NewNop())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	ctx := context.Background()
	bots, err := pool.Queries.ListBots(ctx)
	if err != nil {
		return fmt.Errorf("failed to list bots: %w", err)
	}

	for _, bot := range bots {
		giveaways, err := pool.Queries.ListGiveawaysByBot(ctx, bot.ID)
		if err != nil {
			return fmt.Errorf("failed to list giveaways for bot %d: %w", bot.ID, err)
		}

		var sequenced []model.Giveaway
		for _, g := range giveaways {
			if g.Sequence != nil {
				sequenced = append(sequenced, g)
			}
		}
		sort.Slice(sequenced, func(i, j int) bool {
			if *sequenced[i].Sequence != *sequenced[j].Sequence {
				return *sequenced[i].Sequence < *sequenced[j].Sequence
			}
			return sequenced[i].ID < sequenced[j].ID
		})

		fixed := 0
		for i, g := range sequenced {
			want := i + 1
			if *g.Sequence == want {
				continue
			}
			if err := pool.Queries.UpdateGiveawaySequence(ctx, g.ID, want); err != nil {
				return fmt.Errorf("failed to update giveaway %d: %w", g.ID, err)
			}
			fmt.Printf("Bot %d: giveaway %d resequenced %d -> %d\n", bot.ID, g.ID, *g.Sequence, want)
			fixed++
		}
		if fixed == 0 {
			fmt.Printf("Bot %d: sequences already dense\n", bot.ID)
		}
	}
	return nil
}
