package service

import (
	"context"
	"fmt"
	"time"

	"givebox/internal/db"
	"givebox/internal/model"
	"givebox/internal/render"

	"go.uber.org/zap"
)

// FollowUpService sends the configured delayed follow-up message for
// approved attempts. Runs are idempotent: the sent flag only flips after a
// confirmed delivery, so an attempt is either followed up exactly once or
// retried on the next scan.
type FollowUpService struct {
	store     Store
	messenger *Messenger
	bus       EventBus
	log       *zap.Logger

	now func() time.Time
}

func NewFollowUpService(store Store, messenger *Messenger, bus EventBus, log *zap.Logger) *FollowUpService {
	return &FollowUpService{
		store:     store,
		messenger: messenger,
		bus:       bus,
		log:       log,
		now:       time.Now,
	}
}

// Run scans for due follow-ups and sends them, returning how many went out.
func (s *FollowUpService) Run(ctx context.Context) (int, error) {
	due, err := s.store.ListDueFollowUps(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to list due follow-ups: %w", err)
	}

	sent := 0
	for _, c := range due {
		if err := s.sendOne(ctx, c); err != nil {
			s.log.Warn("Follow-up not sent",
				zap.String("attempt_id", c.AttemptID),
				zap.Error(err))
			continue
		}
		sent++
	}
	if sent > 0 {
		s.log.Info("Follow-ups sent", zap.Int("count", sent))
	}
	return sent, nil
}

func (s *FollowUpService) sendOne(ctx context.Context, c db.FollowUpCandidate) error {
	user, err := s.store.GetUserByID(ctx, c.UserID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	bot := model.Bot{ID: c.BotID, Token: c.BotToken}

	text, rerr := render.Render(c.FollowUpText, render.Vars{Name: displayName(user)})
	if rerr != nil {
		s.log.Warn("Follow-up template degraded", zap.String("attempt_id", c.AttemptID), zap.Error(rerr))
	}
	if err := s.messenger.Send(ctx, bot, user, text, nil); err != nil {
		return err
	}

	flipped, err := s.store.MarkFollowUpSent(ctx, c.AttemptID)
	if err != nil {
		return fmt.Errorf("failed to mark follow-up sent: %w", err)
	}
	if flipped {
		_ = s.bus.PublishAttempt(ctx, c.AttemptID, map[string]interface{}{
			"type":      "follow_up.sent",
			"attemptId": c.AttemptID,
		})
	}
	return nil
}
