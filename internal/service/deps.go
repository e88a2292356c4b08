package service

import (
	"context"
	"time"

	"givebox/internal/db"
	"givebox/internal/model"
	"givebox/internal/telegram"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// Store is the persistence surface the services consume, implemented by
// *db.Queries. Narrowing it to an interface keeps the claim flow testable
// without a live database.
type Store interface {
	GetBotByID(ctx context.Context, id int64) (model.Bot, error)

	UpsertUser(ctx context.Context, botID int64, chatID, username, firstName string) (model.User, error)
	GetUserByID(ctx context.Context, id int64) (model.User, error)
	SetUserPhone(ctx context.Context, userID int64, phone string) error
	GetUsersByIDs(ctx context.Context, ids []int64) ([]model.User, error)

	GetGiveawayByID(ctx context.Context, id int64) (model.Giveaway, error)
	GetActiveGiveawayBySequence(ctx context.Context, botID int64, sequence int) (model.Giveaway, error)
	ListActiveGiveaways(ctx context.Context, botID int64) ([]model.Giveaway, error)

	AllocateItem(ctx context.Context, giveawayID, userID int64) (model.Item, error)

	CreateAttempt(ctx context.Context, id string, userID, giveawayID int64, status model.AttemptStatus, proof string) (model.Attempt, error)
	GetAttemptByID(ctx context.Context, id string) (model.Attempt, error)
	HasBlockingAttempt(ctx context.Context, userID, giveawayID int64) (bool, error)
	HasApprovedAttempt(ctx context.Context, userID, giveawayID int64) (bool, error)
	ApproveAttempt(ctx context.Context, id, notes string) (db.ApprovalResult, error)
	RejectAttempt(ctx context.Context, id, notes string) error
	ListDueFollowUps(ctx context.Context, now time.Time) ([]db.FollowUpCandidate, error)
	MarkFollowUpSent(ctx context.Context, attemptID string) (bool, error)

	ListQuestions(ctx context.Context, giveawayID int64) ([]model.Question, error)
	GetQuestionByID(ctx context.Context, id int64) (model.Question, error)
	FirstUnansweredQuestion(ctx context.Context, userID, giveawayID int64) (model.Question, error)
	CreateAnswer(ctx context.Context, id string, userID, questionID int64, text string) (model.Answer, error)
	LastAnswerAt(ctx context.Context, userID, giveawayID int64) (time.Time, error)
	DeleteAnswers(ctx context.Context, userID, giveawayID int64) error

	LatestNews(ctx context.Context, botID int64) (model.NewsUpdate, error)
	InsertMessageLog(ctx context.Context, id string, botID, userID int64, direction model.Direction, content string) error
}

// Sender is the outbound chat-delivery collaborator, implemented by
// *telegram.Client. Fire and forget: an error means delivery was not
// confirmed, nothing more.
type Sender interface {
	SendMessage(ctx context.Context, token, chatID, text string, markup *telegram.ReplyMarkup) error
}

// EventBus publishes operator events, implemented by *pubsub.Bus.
type EventBus interface {
	PublishBot(ctx context.Context, botID int64, event map[string]interface{}) error
	PublishAttempt(ctx context.Context, attemptID string, event map[string]interface{}) error
}

// Messenger couples the outbound send with the audit trail: confirmed sends
// are recorded in the message log, failed ones are only logged. Send errors
// never abort the calling flow.
type Messenger struct {
	store  Store
	sender Sender
	log    *zap.Logger
}

func NewMessenger(store Store, sender Sender, log *zap.Logger) *Messenger {
	return &Messenger{store: store, sender: sender, log: log}
}

func (m *Messenger) Send(ctx context.Context, bot model.Bot, user model.User, text string, markup *telegram.ReplyMarkup) error {
	if err := m.sender.SendMessage(ctx, bot.Token, user.ChatID, text, markup); err != nil {
		m.log.Error("Failed to deliver message",
			zap.Int64("bot_id", bot.ID),
			zap.String("chat_id", user.ChatID),
			zap.Error(err))
		return err
	}
	if err := m.store.InsertMessageLog(ctx, ulid.Make().String(), bot.ID, user.ID, model.DirectionOutbound, text); err != nil {
		m.log.Warn("Failed to audit outbound message", zap.Error(err))
	}
	return nil
}

// displayName is what templates substitute for {name}.
func displayName(user model.User) string {
	if user.FirstName != "" {
		return user.FirstName
	}
	return "Friend"
}
