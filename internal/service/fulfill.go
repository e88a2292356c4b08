package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"givebox/internal/model"
	"givebox/internal/render"
	"givebox/internal/session"
	"givebox/internal/telegram"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// Outcome of a fulfillment run.
type Outcome string

const (
	// OutcomeDelivered means the reward went out and an approved attempt
	// was recorded.
	OutcomeDelivered Outcome = "delivered"
	// OutcomeOutOfStock means the unique pool was exhausted; the user got
	// a shortage notice and was not charged a completion.
	OutcomeOutOfStock Outcome = "out_of_stock"
	// OutcomeAwaitingProof means the giveaway still needs manual proof;
	// the user was prompted and the claim intent re-stored.
	OutcomeAwaitingProof Outcome = "awaiting_proof"
)

const (
	defaultShortageNotice = "⚠️ Sorry, we are out of stock right now!"
	defaultProofPrompt    = "Please send your proof (screenshot/text) now."
	defaultUniqueMessage  = "✅ Verified! Here is your code:\n{content}"
)

// FulfillService performs the final reward-granting action for a giveaway
// whose requirement has already been cleared.
type FulfillService struct {
	store     Store
	sessions  session.Store
	messenger *Messenger
	bus       EventBus
	log       *zap.Logger
}

func NewFulfillService(store Store, sessions session.Store, messenger *Messenger, bus EventBus, log *zap.Logger) *FulfillService {
	return &FulfillService{
		store:     store,
		sessions:  sessions,
		messenger: messenger,
		bus:       bus,
		log:       log,
	}
}

// Fulfill delivers the reward for g to the user. Callers guarantee the
// requirement gate has been passed (or, for manual approval, that a prompt
// is the right next step).
func (s *FulfillService) Fulfill(ctx context.Context, bot model.Bot, user model.User, g model.Giveaway) (Outcome, error) {
	switch {
	case g.Requirement == model.RequirementManualApproval:
		// Manual review happens before anything goes out, whatever the
		// kind: reaching fulfillment here means "prompt for proof now".
		if err := s.sessions.Set(ctx, user.ChatID, session.PurposeClaimIntent,
			strconv.FormatInt(g.ID, 10), claimIntentTTL); err != nil {
			return "", fmt.Errorf("failed to store claim intent: %w", err)
		}
		_ = s.messenger.Send(ctx, bot, user, defaultProofPrompt, nil)
		return OutcomeAwaitingProof, nil

	case g.Kind == model.KindStandard:
		return s.deliverStandard(ctx, bot, user, g)

	case g.Kind == model.KindUnique:
		return s.deliverUnique(ctx, bot, user, g)

	default:
		return "", fmt.Errorf("unsupported giveaway configuration: kind=%s requirement=%s", g.Kind, g.Requirement)
	}
}

func (s *FulfillService) deliverStandard(ctx context.Context, bot model.Bot, user model.User, g model.Giveaway) (Outcome, error) {
	text := g.StaticContent
	if g.ApprovalTemplate != nil {
		rendered, rerr := render.Render(*g.ApprovalTemplate, render.Vars{
			Content: g.StaticContent,
			Name:    displayName(user),
		})
		if rerr != nil {
			s.log.Warn("Approval template degraded", zap.Int64("giveaway_id", g.ID), zap.Error(rerr))
		}
		text = rendered
	}

	_ = s.messenger.Send(ctx, bot, user, text, telegram.RemoveKeyboard())

	attempt, err := s.store.CreateAttempt(ctx, ulid.Make().String(), user.ID, g.ID, model.AttemptApproved, "")
	if err != nil {
		return "", fmt.Errorf("failed to record approved attempt: %w", err)
	}
	s.publishApproved(ctx, bot, attempt)
	return OutcomeDelivered, nil
}

func (s *FulfillService) deliverUnique(ctx context.Context, bot model.Bot, user model.User, g model.Giveaway) (Outcome, error) {
	item, err := s.store.AllocateItem(ctx, g.ID, user.ID)
	if errors.Is(err, model.ErrOutOfStock) {
		_ = s.messenger.Send(ctx, bot, user, defaultShortageNotice, telegram.RemoveKeyboard())
		_ = s.bus.PublishBot(ctx, bot.ID, map[string]interface{}{
			"type":       "stock.empty",
			"giveawayId": g.ID,
			"userId":     user.ID,
		})
		return OutcomeOutOfStock, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to allocate item: %w", err)
	}

	tmpl := defaultUniqueMessage
	if g.ApprovalTemplate != nil {
		tmpl = *g.ApprovalTemplate
	}
	text, rerr := render.Render(tmpl, render.Vars{Content: item.Content, Name: displayName(user)})
	if rerr != nil {
		s.log.Warn("Approval template degraded", zap.Int64("giveaway_id", g.ID), zap.Error(rerr))
	}

	// The user owns the item from the allocation onward. A failed send is a
	// delivery problem the operator has to resolve, never a reason to give
	// the item back.
	if err := s.messenger.Send(ctx, bot, user, text, telegram.RemoveKeyboard()); err != nil {
		s.log.Error("Allocated item not delivered",
			zap.Int64("item_id", item.ID),
			zap.Int64("user_id", user.ID),
			zap.Error(err))
		_ = s.bus.PublishBot(ctx, bot.ID, map[string]interface{}{
			"type":   "delivery.failed",
			"itemId": item.ID,
			"userId": user.ID,
		})
	}

	attempt, err := s.store.CreateAttempt(ctx, ulid.Make().String(), user.ID, g.ID, model.AttemptApproved, "")
	if err != nil {
		return "", fmt.Errorf("failed to record approved attempt: %w", err)
	}
	s.publishApproved(ctx, bot, attempt)
	return OutcomeDelivered, nil
}

func (s *FulfillService) publishApproved(ctx context.Context, bot model.Bot, attempt model.Attempt) {
	_ = s.bus.PublishAttempt(ctx, attempt.ID, map[string]interface{}{
		"type":       "attempt.approved",
		"attemptId":  attempt.ID,
		"giveawayId": attempt.GiveawayID,
	})
	_ = s.bus.PublishBot(ctx, bot.ID, map[string]interface{}{
		"type":       "attempt.approved",
		"attemptId":  attempt.ID,
		"giveawayId": attempt.GiveawayID,
		"userId":     attempt.UserID,
	})
}

// Session TTLs. Expiry is advisory cleanup; every flow tolerates a key that
// vanished early by re-prompting.
const (
	claimIntentTTL   = 10 * time.Minute
	questionnaireTTL = time.Hour
	resumeChoiceTTL  = 10 * time.Minute
)
