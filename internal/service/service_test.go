package service

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"givebox/internal/db"
	"givebox/internal/model"
	"givebox/internal/session"
	"givebox/internal/telegram"

	"go.uber.org/zap"
)

// fakeStore is an in-memory Store for service tests. Methods mirror the
// query layer's not-found semantics.
type fakeStore struct {
	mu sync.Mutex

	bots      map[int64]model.Bot
	users     map[int64]model.User
	giveaways map[int64]model.Giveaway
	items     map[int64]model.Item
	attempts  map[string]model.Attempt
	questions map[int64]model.Question
	answers   []model.Answer
	news      map[int64]model.NewsUpdate
	audit     []model.MessageLog

	due []db.FollowUpCandidate

	nextUserID int64
	nextItemID int64

	clock func() time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		bots:      map[int64]model.Bot{},
		users:     map[int64]model.User{},
		giveaways: map[int64]model.Giveaway{},
		items:     map[int64]model.Item{},
		attempts:  map[string]model.Attempt{},
		questions: map[int64]model.Question{},
		news:      map[int64]model.NewsUpdate{},
		clock:     time.Now,
	}
}

func (f *fakeStore) GetBotByID(_ context.Context, id int64) (model.Bot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bots[id]
	if !ok {
		return model.Bot{}, model.ErrNotFound
	}
	return b, nil
}

func (f *fakeStore) UpsertUser(_ context.Context, botID int64, chatID, username, firstName string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.BotID == botID && u.ChatID == chatID {
			u.Username = username
			u.FirstName = firstName
			f.users[u.ID] = u
			return u, nil
		}
	}
	f.nextUserID++
	u := model.User{ID: f.nextUserID, BotID: botID, ChatID: chatID, Username: username, FirstName: firstName, JoinedAt: f.clock()}
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeStore) GetUserByID(_ context.Context, id int64) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return model.User{}, model.ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) SetUserPhone(_ context.Context, userID int64, phone string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return model.ErrNotFound
	}
	u.PhoneNumber = phone
	f.users[userID] = u
	return nil
}

func (f *fakeStore) GetUsersByIDs(_ context.Context, ids []int64) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.User
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeStore) GetGiveawayByID(_ context.Context, id int64) (model.Giveaway, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.giveaways[id]
	if !ok {
		return model.Giveaway{}, model.ErrNotFound
	}
	return g, nil
}

func (f *fakeStore) GetActiveGiveawayBySequence(_ context.Context, botID int64, sequence int) (model.Giveaway, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range f.giveaways {
		if g.BotID == botID && g.Active && g.Sequence != nil && *g.Sequence == sequence {
			return g, nil
		}
	}
	return model.Giveaway{}, model.ErrNotFound
}

func (f *fakeStore) ListActiveGiveaways(_ context.Context, botID int64) ([]model.Giveaway, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Giveaway
	for _, g := range f.giveaways {
		if g.BotID == botID && g.Active && g.Sequence != nil {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return *out[i].Sequence < *out[j].Sequence })
	return out, nil
}

func (f *fakeStore) AllocateItem(_ context.Context, giveawayID, userID int64) (model.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]int64, 0, len(f.items))
	for id := range f.items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		it := f.items[id]
		if it.GiveawayID == giveawayID && !it.Used {
			it.Used = true
			uid := userID
			it.ClaimedBy = &uid
			f.items[id] = it
			return it, nil
		}
	}
	return model.Item{}, model.ErrOutOfStock
}

func (f *fakeStore) addItem(giveawayID int64, content string) model.Item {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextItemID++
	it := model.Item{ID: f.nextItemID, GiveawayID: giveawayID, Content: content}
	f.items[it.ID] = it
	return it
}

func (f *fakeStore) CreateAttempt(_ context.Context, id string, userID, giveawayID int64, status model.AttemptStatus, proof string) (model.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := model.Attempt{ID: id, UserID: userID, GiveawayID: giveawayID, Status: status, Proof: proof, CreatedAt: f.clock()}
	f.attempts[id] = a
	return a, nil
}

func (f *fakeStore) GetAttemptByID(_ context.Context, id string) (model.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.attempts[id]
	if !ok {
		return model.Attempt{}, model.ErrNotFound
	}
	return a, nil
}

func (f *fakeStore) HasBlockingAttempt(_ context.Context, userID, giveawayID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.attempts {
		if a.UserID == userID && a.GiveawayID == giveawayID && a.Status != model.AttemptRejected {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) HasApprovedAttempt(_ context.Context, userID, giveawayID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.attempts {
		if a.UserID == userID && a.GiveawayID == giveawayID && a.Status == model.AttemptApproved {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) ApproveAttempt(ctx context.Context, id, notes string) (db.ApprovalResult, error) {
	f.mu.Lock()
	a, ok := f.attempts[id]
	if !ok || a.Status != model.AttemptPending {
		f.mu.Unlock()
		return db.ApprovalResult{}, model.ErrNotFound
	}
	a.Status = model.AttemptApproved
	a.AdminNotes = notes
	f.attempts[id] = a
	g := f.giveaways[a.GiveawayID]
	f.mu.Unlock()

	res := db.ApprovalResult{Attempt: a}
	if g.Kind == model.KindUnique {
		item, err := f.AllocateItem(ctx, a.GiveawayID, a.UserID)
		if err != nil {
			res.OutOfStock = true
		} else {
			res.Item = &item
		}
	}
	return res, nil
}

func (f *fakeStore) RejectAttempt(_ context.Context, id, notes string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.attempts[id]
	if !ok || a.Status != model.AttemptPending {
		return model.ErrNotFound
	}
	a.Status = model.AttemptRejected
	a.AdminNotes = notes
	f.attempts[id] = a
	return nil
}

func (f *fakeStore) ListDueFollowUps(_ context.Context, _ time.Time) ([]db.FollowUpCandidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]db.FollowUpCandidate, 0, len(f.due))
	for _, c := range f.due {
		if a, ok := f.attempts[c.AttemptID]; !ok || !a.FollowUpSent {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) MarkFollowUpSent(_ context.Context, attemptID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.attempts[attemptID]
	if !ok || a.FollowUpSent {
		return false, nil
	}
	a.FollowUpSent = true
	f.attempts[attemptID] = a
	return true, nil
}

func (f *fakeStore) ListQuestions(_ context.Context, giveawayID int64) ([]model.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Question
	for _, q := range f.questions {
		if q.GiveawayID == giveawayID {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (f *fakeStore) GetQuestionByID(_ context.Context, id int64) (model.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.questions[id]
	if !ok {
		return model.Question{}, model.ErrNotFound
	}
	return q, nil
}

func (f *fakeStore) FirstUnansweredQuestion(ctx context.Context, userID, giveawayID int64) (model.Question, error) {
	qs, _ := f.ListQuestions(ctx, giveawayID)
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, q := range qs {
		answered := false
		for _, a := range f.answers {
			if a.UserID == userID && a.QuestionID == q.ID {
				answered = true
				break
			}
		}
		if !answered {
			return q, nil
		}
	}
	return model.Question{}, model.ErrNotFound
}

func (f *fakeStore) CreateAnswer(_ context.Context, id string, userID, questionID int64, text string) (model.Answer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, prev := range f.answers {
		if prev.UserID == userID && prev.QuestionID == questionID {
			f.answers[i].Text = text
			return f.answers[i], nil
		}
	}
	a := model.Answer{ID: id, UserID: userID, QuestionID: questionID, Text: text, AnsweredAt: f.clock()}
	f.answers = append(f.answers, a)
	return a, nil
}

func (f *fakeStore) LastAnswerAt(_ context.Context, userID, giveawayID int64) (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var last time.Time
	found := false
	for _, a := range f.answers {
		q, ok := f.questions[a.QuestionID]
		if !ok || q.GiveawayID != giveawayID || a.UserID != userID {
			continue
		}
		if !found || a.AnsweredAt.After(last) {
			last = a.AnsweredAt
			found = true
		}
	}
	if !found {
		return time.Time{}, model.ErrNotFound
	}
	return last, nil
}

func (f *fakeStore) DeleteAnswers(_ context.Context, userID, giveawayID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.answers[:0]
	for _, a := range f.answers {
		q, ok := f.questions[a.QuestionID]
		if ok && q.GiveawayID == giveawayID && a.UserID == userID {
			continue
		}
		kept = append(kept, a)
	}
	f.answers = kept
	return nil
}

func (f *fakeStore) LatestNews(_ context.Context, botID int64) (model.NewsUpdate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.news[botID]
	if !ok {
		return model.NewsUpdate{}, model.ErrNotFound
	}
	return n, nil
}

func (f *fakeStore) InsertMessageLog(_ context.Context, id string, botID, userID int64, direction model.Direction, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audit = append(f.audit, model.MessageLog{ID: id, BotID: botID, UserID: userID, Direction: direction, Content: content, CreatedAt: f.clock()})
	return nil
}

// fakeSender records outbound messages and optionally fails for chosen chats.
type fakeSender struct {
	mu      sync.Mutex
	sent    []sentMessage
	failFor map[string]error
}

type sentMessage struct {
	Token  string
	ChatID string
	Text   string
	Markup *telegram.ReplyMarkup
}

func (f *fakeSender) SendMessage(_ context.Context, token, chatID, text string, markup *telegram.ReplyMarkup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failFor[chatID]; ok {
		return err
	}
	f.sent = append(f.sent, sentMessage{Token: token, ChatID: chatID, Text: text, Markup: markup})
	return nil
}

func (f *fakeSender) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	for i, m := range f.sent {
		out[i] = m.Text
	}
	return out
}

func (f *fakeSender) lastText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1].Text
}

// fakeBus collects published events.
type fakeBus struct {
	mu     sync.Mutex
	events []map[string]interface{}
}

func (f *fakeBus) PublishBot(_ context.Context, _ int64, event map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeBus) PublishAttempt(_ context.Context, _ string, event map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeBus) eventTypes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.events))
	for i, e := range f.events {
		out[i], _ = e["type"].(string)
	}
	return out
}

// rig wires a full service stack over the fakes.
type rig struct {
	store    *fakeStore
	sender   *fakeSender
	bus      *fakeBus
	sessions *session.MemoryStore
	claims   *ClaimService
	fulfill  *FulfillService
	approval *ApprovalService
	followup *FollowUpService
	bot      model.Bot
}

func newRig() *rig {
	store := newFakeStore()
	sender := &fakeSender{}
	bus := &fakeBus{}
	sessions := session.NewMemoryStore()
	log := zap.NewNop()

	messenger := NewMessenger(store, sender, log)
	fulfill := NewFulfillService(store, sessions, messenger, bus, log)
	claims := NewClaimService(store, sessions, fulfill, messenger, bus, log)
	approval := NewApprovalService(store, messenger, bus, log)
	followup := NewFollowUpService(store, messenger, bus, log)

	bot := model.Bot{ID: 1, Name: "test", Username: "test_bot", Token: "tok", Active: true}
	store.bots[bot.ID] = bot

	return &rig{
		store:    store,
		sender:   sender,
		bus:      bus,
		sessions: sessions,
		claims:   claims,
		fulfill:  fulfill,
		approval: approval,
		followup: followup,
		bot:      bot,
	}
}

func (r *rig) addGiveaway(g model.Giveaway) model.Giveaway {
	if g.BotID == 0 {
		g.BotID = r.bot.ID
	}
	g.Active = true
	r.store.giveaways[g.ID] = g
	return g
}

func (r *rig) addQuestion(id, giveawayID int64, order int, text string) model.Question {
	q := model.Question{ID: id, GiveawayID: giveawayID, Order: order, Text: text}
	r.store.questions[id] = q
	return q
}

func seqPtr(n int) *int { return &n }

func textUpdate(chatID int64, text string) telegram.Update {
	return telegram.Update{Message: &telegram.Message{
		Chat: telegram.Chat{ID: chatID},
		From: &telegram.Sender{ID: chatID, Username: "u" + strconv.FormatInt(chatID, 10), FirstName: "Alice"},
		Text: text,
	}}
}

func contactUpdate(chatID int64, phone string) telegram.Update {
	return telegram.Update{Message: &telegram.Message{
		Chat:    telegram.Chat{ID: chatID},
		From:    &telegram.Sender{ID: chatID, FirstName: "Alice"},
		Contact: &telegram.Contact{PhoneNumber: phone, UserID: chatID},
	}}
}
