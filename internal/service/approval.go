package service

import (
	"context"
	"fmt"

	"givebox/internal/model"
	"givebox/internal/render"
	"givebox/internal/telegram"

	"go.uber.org/zap"
)

const defaultApprovalMessage = "✅ Congratulations! Your claim has been approved.\nHere is your code:\n{content}"

// ApprovalOutcome is what the admin surface reports back after a decision.
type ApprovalOutcome struct {
	Attempt    model.Attempt `json:"attempt"`
	Delivered  bool          `json:"delivered"`
	OutOfStock bool          `json:"outOfStock"`
}

// ApprovalService executes admin decisions on pending attempts. The status
// flip and any item allocation commit together; the user notification rides
// on top and never rolls the decision back.
type ApprovalService struct {
	store     Store
	messenger *Messenger
	bus       EventBus
	log       *zap.Logger
}

func NewApprovalService(store Store, messenger *Messenger, bus EventBus, log *zap.Logger) *ApprovalService {
	return &ApprovalService{store: store, messenger: messenger, bus: bus, log: log}
}

// Approve flips a pending attempt to approved, allocates an item for unique
// giveaways, and notifies the user. Returns ErrNotFound when the attempt is
// missing or already decided.
func (s *ApprovalService) Approve(ctx context.Context, attemptID, notes string) (ApprovalOutcome, error) {
	res, err := s.store.ApproveAttempt(ctx, attemptID, notes)
	if err != nil {
		return ApprovalOutcome{}, err
	}
	outcome := ApprovalOutcome{Attempt: res.Attempt, OutOfStock: res.OutOfStock}

	g, err := s.store.GetGiveawayByID(ctx, res.Attempt.GiveawayID)
	if err != nil {
		return outcome, fmt.Errorf("failed to load giveaway: %w", err)
	}
	user, err := s.store.GetUserByID(ctx, res.Attempt.UserID)
	if err != nil {
		return outcome, fmt.Errorf("failed to load user: %w", err)
	}
	bot, err := s.store.GetBotByID(ctx, g.BotID)
	if err != nil {
		return outcome, fmt.Errorf("failed to load bot: %w", err)
	}

	if res.OutOfStock {
		_ = s.messenger.Send(ctx, bot, user, defaultShortageNotice, nil)
		_ = s.bus.PublishBot(ctx, bot.ID, map[string]interface{}{
			"type":       "stock.empty",
			"giveawayId": g.ID,
			"userId":     user.ID,
		})
		s.publishDecision(ctx, bot, res.Attempt, "attempt.approved")
		return outcome, nil
	}

	text, rerr := render.Render(approvalTemplate(g), render.Vars{
		Content: approvedContent(g, res.Item),
		Name:    displayName(user),
	})
	if rerr != nil {
		s.log.Warn("Approval template degraded", zap.Int64("giveaway_id", g.ID), zap.Error(rerr))
	}
	if err := s.messenger.Send(ctx, bot, user, text, telegram.RemoveKeyboard()); err == nil {
		outcome.Delivered = true
	}
	s.publishDecision(ctx, bot, res.Attempt, "attempt.approved")
	return outcome, nil
}

// Reject flips a pending attempt to rejected and tells the user.
func (s *ApprovalService) Reject(ctx context.Context, attemptID, notes string) error {
	if err := s.store.RejectAttempt(ctx, attemptID, notes); err != nil {
		return err
	}
	attempt, err := s.store.GetAttemptByID(ctx, attemptID)
	if err != nil {
		return fmt.Errorf("failed to load attempt: %w", err)
	}
	g, err := s.store.GetGiveawayByID(ctx, attempt.GiveawayID)
	if err != nil {
		return fmt.Errorf("failed to load giveaway: %w", err)
	}
	user, err := s.store.GetUserByID(ctx, attempt.UserID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	bot, err := s.store.GetBotByID(ctx, g.BotID)
	if err != nil {
		return fmt.Errorf("failed to load bot: %w", err)
	}

	text := "❌ Sorry, your claim was not approved."
	if g.FailureTemplate != nil {
		rendered, rerr := render.Render(*g.FailureTemplate, render.Vars{Name: displayName(user)})
		if rerr != nil {
			s.log.Warn("Failure template degraded", zap.Int64("giveaway_id", g.ID), zap.Error(rerr))
		}
		text = rendered
	}
	_ = s.messenger.Send(ctx, bot, user, text, nil)
	s.publishDecision(ctx, bot, attempt, "attempt.rejected")
	return nil
}

func approvalTemplate(g model.Giveaway) string {
	if g.ApprovalTemplate != nil {
		return *g.ApprovalTemplate
	}
	return defaultApprovalMessage
}

func approvedContent(g model.Giveaway, item *model.Item) string {
	if item != nil {
		return item.Content
	}
	return g.StaticContent
}

func (s *ApprovalService) publishDecision(ctx context.Context, bot model.Bot, attempt model.Attempt, event string) {
	payload := map[string]interface{}{
		"type":       event,
		"attemptId":  attempt.ID,
		"giveawayId": attempt.GiveawayID,
		"userId":     attempt.UserID,
	}
	_ = s.bus.PublishAttempt(ctx, attempt.ID, payload)
	_ = s.bus.PublishBot(ctx, bot.ID, payload)
}
