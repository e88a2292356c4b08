package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"givebox/internal/model"
	"givebox/internal/proof"
	"givebox/internal/render"
	"givebox/internal/session"
	"givebox/internal/telegram"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// DefaultGraceWindow is how recently a questionnaire answer must have been
// recorded for an interrupted run to count as "still in progress".
const DefaultGraceWindow = 15 * time.Second

const (
	msgNotFound       = "Giveaway not found or inactive."
	msgAlreadyClaimed = "✅ You have already claimed this giveaway."
	msgProofReceived  = "Proof received! An admin will verify shortly."
	msgPhoneVerified  = "✅ Phone Number Verified!"
	msgPhoneRequest   = "Please share your phone number to continue."
	msgResumePrompt   = "You already answered this questionnaire. Do you want to start over? (yes/no)"
	msgFallback       = "Sorry, I didn't understand that. Send /start to see what's available."
	msgQuestionPrefix = "📝 Question: "

	contactButtonLabel = "📱 Share Phone Number"
)

// ClaimService drives the per-chat conversation: claim commands, proof
// submissions, questionnaire answers, contact shares and /start. One
// HandleUpdate call processes one inbound update to completion.
type ClaimService struct {
	store     Store
	sessions  session.Store
	fulfill   *FulfillService
	messenger *Messenger
	bus       EventBus
	log       *zap.Logger

	grace time.Duration
	now   func() time.Time
}

func NewClaimService(store Store, sessions session.Store, fulfill *FulfillService, messenger *Messenger, bus EventBus, log *zap.Logger) *ClaimService {
	return &ClaimService{
		store:     store,
		sessions:  sessions,
		fulfill:   fulfill,
		messenger: messenger,
		bus:       bus,
		log:       log,
		grace:     DefaultGraceWindow,
		now:       time.Now,
	}
}

// SetGraceWindow overrides the answer-staleness window.
func (s *ClaimService) SetGraceWindow(d time.Duration) { s.grace = d }

// HandleUpdate processes one inbound webhook update for bot. Errors reported
// here are infrastructure failures; user mistakes are answered in-chat and
// return nil.
func (s *ClaimService) HandleUpdate(ctx context.Context, bot model.Bot, update telegram.Update) error {
	msg := update.Message
	if msg == nil {
		return nil
	}
	chatID := strconv.FormatInt(msg.Chat.ID, 10)

	var username, firstName string
	if msg.From != nil {
		username = msg.From.Username
		firstName = msg.From.FirstName
	}
	user, err := s.store.UpsertUser(ctx, bot.ID, chatID, username, firstName)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}

	if err := s.store.InsertMessageLog(ctx, ulid.Make().String(), bot.ID, user.ID, model.DirectionInbound, inboundSummary(msg)); err != nil {
		s.log.Warn("Failed to audit inbound message", zap.Error(err))
	}

	if msg.Contact != nil {
		return s.handleContact(ctx, bot, user, msg.Contact)
	}

	text := strings.TrimSpace(msg.Text)

	// A pending start-over prompt consumes the next message, whatever it
	// says. Only a contact share outranks it.
	if pendingID, ok, err := s.sessions.Get(ctx, user.ChatID, session.PurposeResumeChoice); err != nil {
		return err
	} else if ok {
		return s.handleResumeChoice(ctx, bot, user, pendingID, text)
	}

	if text == "/start" || strings.HasPrefix(text, "/start ") {
		return s.handleStart(ctx, bot, user)
	}

	if seq, inline, ok := parseClaimCommand(text); ok {
		return s.claimBySequence(ctx, bot, user, seq, inline)
	}

	return s.handleProof(ctx, bot, user, msg)
}

// parseClaimCommand accepts "/claim_2", "2" and "2 some inline proof". The
// remainder after the sequence, if any, is an inline proof submission.
func parseClaimCommand(text string) (seq int, inline string, ok bool) {
	if rest, found := strings.CutPrefix(text, "/claim_"); found {
		text = rest
	} else if text == "" || text[0] < '0' || text[0] > '9' {
		return 0, "", false
	}
	head, tail, _ := strings.Cut(text, " ")
	seq, err := strconv.Atoi(head)
	if err != nil {
		return 0, "", false
	}
	return seq, strings.TrimSpace(tail), true
}

func (s *ClaimService) claimBySequence(ctx context.Context, bot model.Bot, user model.User, seq int, inline string) error {
	g, err := s.store.GetActiveGiveawayBySequence(ctx, bot.ID, seq)
	if errors.Is(err, model.ErrNotFound) {
		_ = s.messenger.Send(ctx, bot, user, msgNotFound, nil)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load giveaway: %w", err)
	}
	return s.processClaim(ctx, bot, user, g, inline)
}

// processClaim is the gate sequence every claim passes through: prerequisite
// check, duplicate check, then the requirement dispatch.
func (s *ClaimService) processClaim(ctx context.Context, bot model.Bot, user model.User, g model.Giveaway, inline string) error {
	missing, err := MissingPrerequisites(ctx, s.store, g, user.ID)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		_ = s.messenger.Send(ctx, bot, user, s.prereqNotice(g, user, missing), nil)
		return nil
	}

	blocked, err := s.store.HasBlockingAttempt(ctx, user.ID, g.ID)
	if err != nil {
		return fmt.Errorf("failed to check prior attempts: %w", err)
	}
	if blocked {
		if !g.AllowRetake {
			_ = s.messenger.Send(ctx, bot, user, msgAlreadyClaimed, nil)
			return nil
		}
		if g.Requirement == model.RequirementQuestionnaire {
			return s.retakeQuestionnaire(ctx, bot, user, g)
		}
		// Retakeable campaigns with other requirements just run the flow
		// again from the top.
	}

	switch g.Requirement {
	case model.RequirementNone, model.RequirementManualApproval:
		if g.Requirement == model.RequirementManualApproval && inline != "" {
			return s.acceptProof(ctx, bot, user, g, inline)
		}
		_, err := s.fulfill.Fulfill(ctx, bot, user, g)
		return err

	case model.RequirementQuestionnaire:
		return s.continueQuestionnaire(ctx, bot, user, g)

	case model.RequirementPhoneNumber:
		if user.PhoneNumber != "" {
			_, err := s.fulfill.Fulfill(ctx, bot, user, g)
			return err
		}
		if err := s.sessions.Set(ctx, user.ChatID, session.PurposeClaimIntent,
			strconv.FormatInt(g.ID, 10), claimIntentTTL); err != nil {
			return fmt.Errorf("failed to store claim intent: %w", err)
		}
		_ = s.messenger.Send(ctx, bot, user, msgPhoneRequest, telegram.ContactKeyboard(contactButtonLabel))
		return nil

	default:
		return fmt.Errorf("unsupported requirement: %s", g.Requirement)
	}
}

// retakeQuestionnaire decides what a re-claim on a retakeable questionnaire
// means. A run still in progress keeps going; a run that finished moments ago
// is a duplicate of the completed flow and delivers again; a cold run gets its
// answers wiped and starts over.
func (s *ClaimService) retakeQuestionnaire(ctx context.Context, bot model.Bot, user model.User, g model.Giveaway) error {
	if _, answering, err := s.sessions.Get(ctx, user.ChatID, session.PurposeAnswering); err != nil {
		return err
	} else if answering {
		return s.continueQuestionnaire(ctx, bot, user, g)
	}

	last, err := s.store.LastAnswerAt(ctx, user.ID, g.ID)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return fmt.Errorf("failed to check last answer: %w", err)
	}
	if err == nil && s.now().Sub(last) < s.grace {
		_, err := s.fulfill.Fulfill(ctx, bot, user, g)
		return err
	}

	if err := s.store.DeleteAnswers(ctx, user.ID, g.ID); err != nil {
		return fmt.Errorf("failed to reset answers: %w", err)
	}
	return s.continueQuestionnaire(ctx, bot, user, g)
}

// continueQuestionnaire asks the first unanswered question, or resolves a
// fully-answered run: fresh answers proceed to fulfillment, stale ones get a
// start-over prompt.
func (s *ClaimService) continueQuestionnaire(ctx context.Context, bot model.Bot, user model.User, g model.Giveaway) error {
	q, err := s.store.FirstUnansweredQuestion(ctx, user.ID, g.ID)
	if err == nil {
		return s.askQuestion(ctx, bot, user, g, q)
	}
	if !errors.Is(err, model.ErrNotFound) {
		return fmt.Errorf("failed to find next question: %w", err)
	}

	// Everything is answered but no attempt was recorded. Within the grace
	// window this is a just-finished run; beyond it the answers are old and
	// the user decides whether they still stand.
	last, lerr := s.store.LastAnswerAt(ctx, user.ID, g.ID)
	if lerr != nil && !errors.Is(lerr, model.ErrNotFound) {
		return fmt.Errorf("failed to check last answer: %w", lerr)
	}
	if lerr == nil && s.now().Sub(last) >= s.grace {
		if err := s.sessions.Set(ctx, user.ChatID, session.PurposeResumeChoice,
			strconv.FormatInt(g.ID, 10), resumeChoiceTTL); err != nil {
			return fmt.Errorf("failed to store resume choice: %w", err)
		}
		_ = s.messenger.Send(ctx, bot, user, msgResumePrompt, nil)
		return nil
	}

	return s.finishQuestionnaire(ctx, bot, user, g)
}

func (s *ClaimService) askQuestion(ctx context.Context, bot model.Bot, user model.User, g model.Giveaway, q model.Question) error {
	if err := s.sessions.Set(ctx, user.ChatID, session.PurposeCurrentQuestion,
		strconv.FormatInt(q.ID, 10), questionnaireTTL); err != nil {
		return fmt.Errorf("failed to store current question: %w", err)
	}
	if err := s.sessions.Set(ctx, user.ChatID, session.PurposeAnswering, "1", questionnaireTTL); err != nil {
		return fmt.Errorf("failed to store answering flag: %w", err)
	}

	text := msgQuestionPrefix + q.Text
	if g.PromptTemplate != nil {
		rendered, rerr := render.Render(*g.PromptTemplate, render.Vars{Content: q.Text, Name: displayName(user)})
		if rerr != nil {
			s.log.Warn("Prompt template degraded", zap.Int64("giveaway_id", g.ID), zap.Error(rerr))
		}
		text = rendered
	}
	_ = s.messenger.Send(ctx, bot, user, text, nil)
	return nil
}

func (s *ClaimService) finishQuestionnaire(ctx context.Context, bot model.Bot, user model.User, g model.Giveaway) error {
	_ = s.sessions.Delete(ctx, user.ChatID, session.PurposeCurrentQuestion)
	_ = s.sessions.Delete(ctx, user.ChatID, session.PurposeAnswering)
	if g.SuccessTemplate != nil {
		text, rerr := render.Render(*g.SuccessTemplate, render.Vars{Name: displayName(user)})
		if rerr != nil {
			s.log.Warn("Success template degraded", zap.Int64("giveaway_id", g.ID), zap.Error(rerr))
		}
		_ = s.messenger.Send(ctx, bot, user, text, nil)
	}
	_, err := s.fulfill.Fulfill(ctx, bot, user, g)
	return err
}

// prereqNotice is the unmet-prerequisite message; the failure template, when
// configured, receives the missing sequence list as {content}.
func (s *ClaimService) prereqNotice(g model.Giveaway, user model.User, missing []int) string {
	seqs := JoinSequences(missing)
	if g.FailureTemplate == nil {
		return fmt.Sprintf("⚠️ Please start with %s first!", seqs)
	}
	text, rerr := render.Render(*g.FailureTemplate, render.Vars{Content: seqs, Name: displayName(user)})
	if rerr != nil {
		s.log.Warn("Failure template degraded", zap.Int64("giveaway_id", g.ID), zap.Error(rerr))
	}
	return text
}

// handleProof routes a free-form message: a questionnaire answer when one is
// pending, otherwise a proof submission against the stored claim intent, with
// a fallback auto-detect for the first open manual-approval giveaway.
func (s *ClaimService) handleProof(ctx context.Context, bot model.Bot, user model.User, msg *telegram.Message) error {
	if qidStr, ok, err := s.sessions.Get(ctx, user.ChatID, session.PurposeCurrentQuestion); err != nil {
		return err
	} else if ok {
		return s.recordAnswer(ctx, bot, user, qidStr, msg.Text)
	}

	g, found, err := s.proofTarget(ctx, bot, user)
	if err != nil {
		return err
	}
	if !found {
		_ = s.messenger.Send(ctx, bot, user, msgFallback, nil)
		return nil
	}

	// Prerequisites may have changed since the intent was stored.
	missing, err := MissingPrerequisites(ctx, s.store, g, user.ID)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		_ = s.messenger.Send(ctx, bot, user, s.prereqNotice(g, user, missing), nil)
		return nil
	}
	if g.Requirement != model.RequirementManualApproval {
		_ = s.messenger.Send(ctx, bot, user, msgFallback, nil)
		return nil
	}

	policy, err := proof.ParsePolicy(g.ProofPolicy)
	if err != nil {
		s.log.Error("Invalid proof policy", zap.Int64("giveaway_id", g.ID), zap.Error(err))
		policy = nil
	}
	content, perr := extractProof(msg, policy)
	if perr != nil {
		_ = s.messenger.Send(ctx, bot, user, perr.Error(), nil)
		return nil
	}
	return s.acceptProof(ctx, bot, user, g, content)
}

// proofTarget resolves which giveaway an unsolicited message is proof for.
func (s *ClaimService) proofTarget(ctx context.Context, bot model.Bot, user model.User) (model.Giveaway, bool, error) {
	if idStr, ok, err := s.sessions.Get(ctx, user.ChatID, session.PurposeClaimIntent); err != nil {
		return model.Giveaway{}, false, err
	} else if ok {
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			return model.Giveaway{}, false, nil
		}
		g, err := s.store.GetGiveawayByID(ctx, id)
		if errors.Is(err, model.ErrNotFound) {
			return model.Giveaway{}, false, nil
		}
		if err != nil {
			return model.Giveaway{}, false, fmt.Errorf("failed to load giveaway: %w", err)
		}
		return g, true, nil
	}

	// No stored intent: pick the lowest-sequence open manual-approval
	// giveaway, so a proof sent after the intent expired still lands.
	active, err := s.store.ListActiveGiveaways(ctx, bot.ID)
	if err != nil {
		return model.Giveaway{}, false, fmt.Errorf("failed to list active giveaways: %w", err)
	}
	for _, g := range active {
		if g.Requirement != model.RequirementManualApproval {
			continue
		}
		blocked, err := s.store.HasBlockingAttempt(ctx, user.ID, g.ID)
		if err != nil {
			return model.Giveaway{}, false, fmt.Errorf("failed to check prior attempts: %w", err)
		}
		if !blocked {
			return g, true, nil
		}
	}
	return model.Giveaway{}, false, nil
}

// extractProof validates the message against the giveaway's proof policy and
// returns the stored proof content. The error, if any, is user-facing.
func extractProof(msg *telegram.Message, policy *proof.Policy) (string, error) {
	if fileID, ok := proof.LargestPhoto(msg.Photo); ok {
		if err := policy.ValidatePhoto(); err != nil {
			return "", err
		}
		return "photo:" + fileID, nil
	}
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return "", errors.New("Please send your proof as text or a photo.")
	}
	if err := policy.ValidateText(text); err != nil {
		return "", err
	}
	return text, nil
}

func (s *ClaimService) acceptProof(ctx context.Context, bot model.Bot, user model.User, g model.Giveaway, content string) error {
	attempt, err := s.store.CreateAttempt(ctx, ulid.Make().String(), user.ID, g.ID, model.AttemptPending, content)
	if err != nil {
		return fmt.Errorf("failed to record attempt: %w", err)
	}
	_ = s.sessions.Delete(ctx, user.ChatID, session.PurposeClaimIntent)

	ack := msgProofReceived
	if g.SuccessTemplate != nil {
		rendered, rerr := render.Render(*g.SuccessTemplate, render.Vars{Name: displayName(user)})
		if rerr != nil {
			s.log.Warn("Success template degraded", zap.Int64("giveaway_id", g.ID), zap.Error(rerr))
		}
		ack = rendered
	}
	_ = s.messenger.Send(ctx, bot, user, ack, telegram.RemoveKeyboard())
	_ = s.bus.PublishAttempt(ctx, attempt.ID, map[string]interface{}{
		"type":       "attempt.submitted",
		"attemptId":  attempt.ID,
		"giveawayId": g.ID,
	})
	_ = s.bus.PublishBot(ctx, bot.ID, map[string]interface{}{
		"type":       "attempt.submitted",
		"attemptId":  attempt.ID,
		"giveawayId": g.ID,
		"userId":     user.ID,
	})
	return nil
}

func (s *ClaimService) recordAnswer(ctx context.Context, bot model.Bot, user model.User, qidStr, text string) error {
	qid, err := strconv.ParseInt(qidStr, 10, 64)
	if err != nil {
		_ = s.sessions.Delete(ctx, user.ChatID, session.PurposeCurrentQuestion)
		return nil
	}
	q, err := s.store.GetQuestionByID(ctx, qid)
	if errors.Is(err, model.ErrNotFound) {
		_ = s.sessions.Delete(ctx, user.ChatID, session.PurposeCurrentQuestion)
		_ = s.sessions.Delete(ctx, user.ChatID, session.PurposeAnswering)
		_ = s.messenger.Send(ctx, bot, user, msgFallback, nil)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load question: %w", err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		_ = s.messenger.Send(ctx, bot, user, "Please answer with text.", nil)
		return nil
	}
	if _, err := s.store.CreateAnswer(ctx, ulid.Make().String(), user.ID, q.ID, text); err != nil {
		return fmt.Errorf("failed to record answer: %w", err)
	}

	g, err := s.store.GetGiveawayByID(ctx, q.GiveawayID)
	if err != nil {
		return fmt.Errorf("failed to load giveaway: %w", err)
	}

	next, err := s.store.FirstUnansweredQuestion(ctx, user.ID, g.ID)
	if errors.Is(err, model.ErrNotFound) {
		return s.finishQuestionnaire(ctx, bot, user, g)
	}
	if err != nil {
		return fmt.Errorf("failed to find next question: %w", err)
	}
	return s.askQuestion(ctx, bot, user, g, next)
}

// handleResumeChoice consumes a pending start-over prompt. Only a literal
// "yes" wipes the old answers; any other reply keeps them and proceeds to
// completion.
func (s *ClaimService) handleResumeChoice(ctx context.Context, bot model.Bot, user model.User, giveawayID, text string) error {
	answer := strings.ToLower(strings.TrimSpace(text))
	_ = s.sessions.Delete(ctx, user.ChatID, session.PurposeResumeChoice)

	id, err := strconv.ParseInt(giveawayID, 10, 64)
	if err != nil {
		return nil
	}
	g, err := s.store.GetGiveawayByID(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		_ = s.messenger.Send(ctx, bot, user, msgNotFound, nil)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load giveaway: %w", err)
	}

	if answer == "yes" {
		if err := s.store.DeleteAnswers(ctx, user.ID, g.ID); err != nil {
			return fmt.Errorf("failed to reset answers: %w", err)
		}
		return s.continueQuestionnaire(ctx, bot, user, g)
	}
	return s.finishQuestionnaire(ctx, bot, user, g)
}

func (s *ClaimService) handleContact(ctx context.Context, bot model.Bot, user model.User, contact *telegram.Contact) error {
	if err := s.store.SetUserPhone(ctx, user.ID, contact.PhoneNumber); err != nil {
		return fmt.Errorf("failed to save phone number: %w", err)
	}
	user.PhoneNumber = contact.PhoneNumber
	_ = s.messenger.Send(ctx, bot, user, msgPhoneVerified, telegram.RemoveKeyboard())

	idStr, ok, err := s.sessions.Get(ctx, user.ChatID, session.PurposeClaimIntent)
	if err != nil || !ok {
		return err
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return nil
	}
	g, err := s.store.GetGiveawayByID(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load giveaway: %w", err)
	}
	// The contact share only settles a phone-number claim. An intent stored
	// for another requirement stays put for its own flow.
	if g.Requirement != model.RequirementPhoneNumber {
		return nil
	}
	_ = s.sessions.Delete(ctx, user.ChatID, session.PurposeClaimIntent)

	_, err = s.fulfill.Fulfill(ctx, bot, user, g)
	return err
}

func (s *ClaimService) handleStart(ctx context.Context, bot model.Bot, user model.User) error {
	var b strings.Builder
	if bot.StartMessageHeader != "" {
		b.WriteString(bot.StartMessageHeader)
		b.WriteString("\n\n")
	} else {
		fmt.Fprintf(&b, "👋 Welcome, %s!\n\n", displayName(user))
	}

	news, err := s.store.LatestNews(ctx, bot.ID)
	if err == nil {
		fmt.Fprintf(&b, "📣 %s\n%s\n\n", news.Title, news.Body)
	} else if !errors.Is(err, model.ErrNotFound) {
		return fmt.Errorf("failed to load news: %w", err)
	}

	active, err := s.store.ListActiveGiveaways(ctx, bot.ID)
	if err != nil {
		return fmt.Errorf("failed to list active giveaways: %w", err)
	}
	if len(active) == 0 {
		b.WriteString("No giveaways are running right now. Check back soon!")
	} else {
		b.WriteString("🎁 Available giveaways:\n")
		for _, g := range active {
			fmt.Fprintf(&b, "%d. %s (send /claim_%d)\n", *g.Sequence, g.Title, *g.Sequence)
		}
	}

	_ = s.messenger.Send(ctx, bot, user, b.String(), telegram.RemoveKeyboard())
	return nil
}

// inboundSummary is what the audit trail stores for one inbound message.
func inboundSummary(msg *telegram.Message) string {
	switch {
	case msg.Contact != nil:
		return "[contact] " + msg.Contact.PhoneNumber
	case len(msg.Photo) > 0:
		fileID, _ := proof.LargestPhoto(msg.Photo)
		return "[photo] " + fileID
	default:
		return msg.Text
	}
}
