package service

import (
	"context"
	"fmt"

	"givebox/internal/render"

	"go.uber.org/zap"
)

// BroadcastService fans one operator message out to a set of users. Sends
// are best-effort per user; a blocked or deleted chat never aborts the run.
type BroadcastService struct {
	store     Store
	messenger *Messenger
	bus       EventBus
	log       *zap.Logger
}

func NewBroadcastService(store Store, messenger *Messenger, bus EventBus, log *zap.Logger) *BroadcastService {
	return &BroadcastService{store: store, messenger: messenger, bus: bus, log: log}
}

// Send delivers text to each user ID, rendering {name} per recipient, and
// returns the number of confirmed deliveries.
func (s *BroadcastService) Send(ctx context.Context, botID int64, userIDs []int64, text string) (int, error) {
	bot, err := s.store.GetBotByID(ctx, botID)
	if err != nil {
		return 0, fmt.Errorf("failed to load bot: %w", err)
	}
	users, err := s.store.GetUsersByIDs(ctx, userIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to load users: %w", err)
	}

	sent := 0
	for _, user := range users {
		if user.BotID != bot.ID {
			continue
		}
		body, rerr := render.Render(text, render.Vars{Name: displayName(user)})
		if rerr != nil {
			s.log.Warn("Broadcast template degraded", zap.Error(rerr))
		}
		if err := s.messenger.Send(ctx, bot, user, body, nil); err == nil {
			sent++
		}
	}

	_ = s.bus.PublishBot(ctx, bot.ID, map[string]interface{}{
		"type":      "broadcast.finished",
		"requested": len(userIDs),
		"delivered": sent,
	})
	s.log.Info("Broadcast finished",
		zap.Int64("bot_id", bot.ID),
		zap.Int("requested", len(userIDs)),
		zap.Int("delivered", sent))
	return sent, nil
}
