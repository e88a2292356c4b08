package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"givebox/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Queries wraps database queries
type Queries struct {
	*pgxpool.Pool
}

// NewQueries creates a new Queries instance
func NewQueries(pool *pgxpool.Pool) *Queries {
	return &Queries{Pool: pool}
}

// Bot queries

func (q *Queries) GetBotByToken(ctx context.Context, token string) (model.Bot, error) {
	var b model.Bot
	err := q.Pool.QueryRow(ctx,
		`SELECT id, name, username, token, active, start_message_header
		FROM bots WHERE token = $1 AND active = TRUE`,
		token,
	).Scan(&b.ID, &b.Name, &b.Username, &b.Token, &b.Active, &b.StartMessageHeader)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Bot{}, model.ErrNotFound
	}
	return b, err
}

func (q *Queries) GetBotByID(ctx context.Context, id int64) (model.Bot, error) {
	var b model.Bot
	err := q.Pool.QueryRow(ctx,
		`SELECT id, name, username, token, active, start_message_header FROM bots WHERE id = $1`,
		id,
	).Scan(&b.ID, &b.Name, &b.Username, &b.Token, &b.Active, &b.StartMessageHeader)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Bot{}, model.ErrNotFound
	}
	return b, err
}

func (q *Queries) ListBots(ctx context.Context) ([]model.Bot, error) {
	rows, err := q.Pool.Query(ctx,
		`SELECT id, name, username, token, active, start_message_header FROM bots ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bots []model.Bot
	for rows.Next() {
		var b model.Bot
		if err := rows.Scan(&b.ID, &b.Name, &b.Username, &b.Token, &b.Active, &b.StartMessageHeader); err != nil {
			return nil, err
		}
		bots = append(bots, b)
	}
	return bots, rows.Err()
}

// User queries

// UpsertUser creates the (bot, chat) user on first contact and refreshes the
// profile fields Telegram sent with later messages.
func (q *Queries) UpsertUser(ctx context.Context, botID int64, chatID, username, firstName string) (model.User, error) {
	var u model.User
	err := q.Pool.QueryRow(ctx,
		`INSERT INTO users (bot_id, chat_id, username, first_name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (bot_id, chat_id) DO UPDATE
			SET username = EXCLUDED.username, first_name = EXCLUDED.first_name
		RETURNING id, bot_id, chat_id, username, first_name, COALESCE(phone_number, ''), joined_at`,
		botID, chatID, username, firstName,
	).Scan(&u.ID, &u.BotID, &u.ChatID, &u.Username, &u.FirstName, &u.PhoneNumber, &u.JoinedAt)
	return u, err
}

func (q *Queries) GetUserByID(ctx context.Context, id int64) (model.User, error) {
	var u model.User
	err := q.Pool.QueryRow(ctx,
		`SELECT id, bot_id, chat_id, username, first_name, COALESCE(phone_number, ''), joined_at
		FROM users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.BotID, &u.ChatID, &u.Username, &u.FirstName, &u.PhoneNumber, &u.JoinedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrNotFound
	}
	return u, err
}

func (q *Queries) SetUserPhone(ctx context.Context, userID int64, phone string) error {
	_, err := q.Pool.Exec(ctx,
		"UPDATE users SET phone_number = $2 WHERE id = $1",
		userID, phone,
	)
	return err
}

func (q *Queries) ListUsersByBot(ctx context.Context, botID int64) ([]model.User, error) {
	rows, err := q.Pool.Query(ctx,
		`SELECT id, bot_id, chat_id, username, first_name, COALESCE(phone_number, ''), joined_at
		FROM users WHERE bot_id = $1 ORDER BY joined_at`,
		botID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsers(rows)
}

func (q *Queries) GetUsersByIDs(ctx context.Context, ids []int64) ([]model.User, error) {
	if len(ids) == 0 {
		return []model.User{}, nil
	}
	rows, err := q.Pool.Query(ctx,
		`SELECT id, bot_id, chat_id, username, first_name, COALESCE(phone_number, ''), joined_at
		FROM users WHERE id = ANY($1) ORDER BY id`,
		ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsers(rows)
}

func scanUsers(rows pgx.Rows) ([]model.User, error) {
	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.BotID, &u.ChatID, &u.Username, &u.FirstName, &u.PhoneNumber, &u.JoinedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Giveaway queries

const giveawayColumns = `id, bot_id, title, description, kind, requirement,
	sequence, prereq_threshold, allow_retake, COALESCE(static_content, ''),
	approval_template, failure_template, prompt_template, success_template,
	COALESCE(follow_up_text, ''), follow_up_delay_seconds, proof_policy, active`

func scanGiveaway(row pgx.Row) (model.Giveaway, error) {
	var g model.Giveaway
	var delaySeconds int64
	err := row.Scan(
		&g.ID, &g.BotID, &g.Title, &g.Description, &g.Kind, &g.Requirement,
		&g.Sequence, &g.PrereqThreshold, &g.AllowRetake, &g.StaticContent,
		&g.ApprovalTemplate, &g.FailureTemplate, &g.PromptTemplate, &g.SuccessTemplate,
		&g.FollowUpText, &delaySeconds, &g.ProofPolicy, &g.Active,
	)
	if err != nil {
		return model.Giveaway{}, err
	}
	g.FollowUpDelay = time.Duration(delaySeconds) * time.Second
	return g, nil
}

func (q *Queries) GetGiveawayByID(ctx context.Context, id int64) (model.Giveaway, error) {
	g, err := scanGiveaway(q.Pool.QueryRow(ctx,
		"SELECT "+giveawayColumns+" FROM giveaways WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Giveaway{}, model.ErrNotFound
	}
	return g, err
}

func (q *Queries) GetActiveGiveawayBySequence(ctx context.Context, botID int64, sequence int) (model.Giveaway, error) {
	g, err := scanGiveaway(q.Pool.QueryRow(ctx,
		"SELECT "+giveawayColumns+" FROM giveaways WHERE bot_id = $1 AND sequence = $2 AND active = TRUE",
		botID, sequence))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Giveaway{}, model.ErrNotFound
	}
	return g, err
}

// ListActiveGiveaways returns all active sequenced giveaways of one bot in
// ascending sequence order.
func (q *Queries) ListActiveGiveaways(ctx context.Context, botID int64) ([]model.Giveaway, error) {
	rows, err := q.Pool.Query(ctx,
		"SELECT "+giveawayColumns+` FROM giveaways
		WHERE bot_id = $1 AND active = TRUE AND sequence IS NOT NULL
		ORDER BY sequence`,
		botID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var giveaways []model.Giveaway
	for rows.Next() {
		g, err := scanGiveaway(rows)
		if err != nil {
			return nil, err
		}
		giveaways = append(giveaways, g)
	}
	return giveaways, rows.Err()
}

func (q *Queries) ListGiveawaysByBot(ctx context.Context, botID int64) ([]model.Giveaway, error) {
	rows, err := q.Pool.Query(ctx,
		"SELECT "+giveawayColumns+" FROM giveaways WHERE bot_id = $1 ORDER BY id",
		botID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var giveaways []model.Giveaway
	for rows.Next() {
		g, err := scanGiveaway(rows)
		if err != nil {
			return nil, err
		}
		giveaways = append(giveaways, g)
	}
	return giveaways, rows.Err()
}

func (q *Queries) UpdateGiveawaySequence(ctx context.Context, id int64, sequence int) error {
	_, err := q.Pool.Exec(ctx,
		"UPDATE giveaways SET sequence = $2 WHERE id = $1",
		id, sequence,
	)
	return err
}

type CreateGiveawayParams struct {
	BotID            int64
	Title            string
	Description      string
	Kind             model.GiveawayKind
	Requirement      model.Requirement
	Sequence         *int
	PrereqThreshold  *int
	AllowRetake      bool
	StaticContent    string
	ApprovalTemplate *string
	FailureTemplate  *string
	PromptTemplate   *string
	SuccessTemplate  *string
	FollowUpText     string
	FollowUpDelay    time.Duration
	ProofPolicy      map[string]interface{}
}

func (q *Queries) CreateGiveaway(ctx context.Context, p CreateGiveawayParams) (model.Giveaway, error) {
	return scanGiveaway(q.Pool.QueryRow(ctx,
		`INSERT INTO giveaways (
			bot_id, title, description, kind, requirement, sequence,
			prereq_threshold, allow_retake, static_content, approval_template,
			failure_template, prompt_template, success_template,
			follow_up_text, follow_up_delay_seconds, proof_policy, active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, TRUE)
		RETURNING `+giveawayColumns,
		p.BotID, p.Title, p.Description, p.Kind, p.Requirement, p.Sequence,
		p.PrereqThreshold, p.AllowRetake, p.StaticContent, p.ApprovalTemplate,
		p.FailureTemplate, p.PromptTemplate, p.SuccessTemplate,
		p.FollowUpText, int64(p.FollowUpDelay/time.Second), p.ProofPolicy,
	))
}

// Item queries

// AllocateItem hands out one unused item of a giveaway to a user. The whole
// claim is a single conditional UPDATE so that N concurrent callers racing
// for the last unit produce exactly one winner; the rest see ErrOutOfStock.
func (q *Queries) AllocateItem(ctx context.Context, giveawayID, userID int64) (model.Item, error) {
	return allocateItem(ctx, q.Pool, giveawayID, userID)
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func allocateItem(ctx context.Context, db rowQuerier, giveawayID, userID int64) (model.Item, error) {
	var it model.Item
	err := db.QueryRow(ctx,
		`UPDATE giveaway_items SET used = TRUE, claimed_by = $2
		WHERE id = (
			SELECT id FROM giveaway_items
			WHERE giveaway_id = $1 AND used = FALSE
			ORDER BY id
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING id, giveaway_id, content, used, claimed_by`,
		giveawayID, userID,
	).Scan(&it.ID, &it.GiveawayID, &it.Content, &it.Used, &it.ClaimedBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Item{}, model.ErrOutOfStock
	}
	return it, err
}

func (q *Queries) CreateItem(ctx context.Context, giveawayID int64, content string) (model.Item, error) {
	var it model.Item
	err := q.Pool.QueryRow(ctx,
		`INSERT INTO giveaway_items (giveaway_id, content) VALUES ($1, $2)
		RETURNING id, giveaway_id, content, used, claimed_by`,
		giveawayID, content,
	).Scan(&it.ID, &it.GiveawayID, &it.Content, &it.Used, &it.ClaimedBy)
	return it, err
}

func (q *Queries) CountAvailableItems(ctx context.Context, giveawayID int64) (int, error) {
	var n int
	err := q.Pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM giveaway_items WHERE giveaway_id = $1 AND used = FALSE",
		giveawayID,
	).Scan(&n)
	return n, err
}

// Attempt queries

func (q *Queries) CreateAttempt(ctx context.Context, id string, userID, giveawayID int64, status model.AttemptStatus, proof string) (model.Attempt, error) {
	var a model.Attempt
	err := q.Pool.QueryRow(ctx,
		`INSERT INTO attempts (id, user_id, giveaway_id, status, proof)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, giveaway_id, status, proof, follow_up_sent, COALESCE(admin_notes, ''), created_at`,
		id, userID, giveawayID, status, proof,
	).Scan(&a.ID, &a.UserID, &a.GiveawayID, &a.Status, &a.Proof, &a.FollowUpSent, &a.AdminNotes, &a.CreatedAt)
	return a, err
}

func (q *Queries) GetAttemptByID(ctx context.Context, id string) (model.Attempt, error) {
	var a model.Attempt
	err := q.Pool.QueryRow(ctx,
		`SELECT id, user_id, giveaway_id, status, proof, follow_up_sent, COALESCE(admin_notes, ''), created_at
		FROM attempts WHERE id = $1`,
		id,
	).Scan(&a.ID, &a.UserID, &a.GiveawayID, &a.Status, &a.Proof, &a.FollowUpSent, &a.AdminNotes, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Attempt{}, model.ErrNotFound
	}
	return a, err
}

// HasBlockingAttempt reports whether a pending or approved attempt exists
// for the (user, giveaway) pair.
func (q *Queries) HasBlockingAttempt(ctx context.Context, userID, giveawayID int64) (bool, error) {
	var exists bool
	err := q.Pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM attempts
			WHERE user_id = $1 AND giveaway_id = $2 AND status IN ('pending', 'approved')
		)`,
		userID, giveawayID,
	).Scan(&exists)
	return exists, err
}

func (q *Queries) HasApprovedAttempt(ctx context.Context, userID, giveawayID int64) (bool, error) {
	var exists bool
	err := q.Pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM attempts
			WHERE user_id = $1 AND giveaway_id = $2 AND status = 'approved'
		)`,
		userID, giveawayID,
	).Scan(&exists)
	return exists, err
}

func (q *Queries) ListPendingAttempts(ctx context.Context, botID int64, limit, offset int) ([]model.Attempt, error) {
	rows, err := q.Pool.Query(ctx,
		`SELECT a.id, a.user_id, a.giveaway_id, a.status, a.proof, a.follow_up_sent, COALESCE(a.admin_notes, ''), a.created_at
		FROM attempts a
		JOIN giveaways g ON g.id = a.giveaway_id
		WHERE g.bot_id = $1 AND a.status = 'pending'
		ORDER BY a.created_at
		LIMIT $2 OFFSET $3`,
		botID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []model.Attempt
	for rows.Next() {
		var a model.Attempt
		if err := rows.Scan(&a.ID, &a.UserID, &a.GiveawayID, &a.Status, &a.Proof, &a.FollowUpSent, &a.AdminNotes, &a.CreatedAt); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// ApprovalResult is the outcome of the manual-review transaction.
type ApprovalResult struct {
	Attempt model.Attempt
	// Item is set when a unique giveaway's allocation succeeded.
	Item *model.Item
	// OutOfStock reports that the pool was exhausted. The status change is
	// committed anyway; the operator is told no item went out.
	OutOfStock bool
}

// ApproveAttempt runs the manual-review transition as one transaction: the
// pending attempt flips to approved and, for unique giveaways, one item is
// allocated to the user. Pool exhaustion does not roll back the status
// change. Returns ErrNotFound when the attempt is gone or no longer pending,
// which keeps duplicate admin clicks harmless.
func (q *Queries) ApproveAttempt(ctx context.Context, id, notes string) (ApprovalResult, error) {
	tx, err := q.Pool.Begin(ctx)
	if err != nil {
		return ApprovalResult{}, fmt.Errorf("failed to begin approval transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var a model.Attempt
	err = tx.QueryRow(ctx,
		`UPDATE attempts SET status = 'approved', admin_notes = $2
		WHERE id = $1 AND status = 'pending'
		RETURNING id, user_id, giveaway_id, status, proof, follow_up_sent, COALESCE(admin_notes, ''), created_at`,
		id, notes,
	).Scan(&a.ID, &a.UserID, &a.GiveawayID, &a.Status, &a.Proof, &a.FollowUpSent, &a.AdminNotes, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ApprovalResult{}, model.ErrNotFound
	}
	if err != nil {
		return ApprovalResult{}, err
	}

	res := ApprovalResult{Attempt: a}

	var kind model.GiveawayKind
	if err := tx.QueryRow(ctx, "SELECT kind FROM giveaways WHERE id = $1", a.GiveawayID).Scan(&kind); err != nil {
		return ApprovalResult{}, err
	}
	if kind == model.KindUnique {
		item, err := allocateItem(ctx, tx, a.GiveawayID, a.UserID)
		switch {
		case errors.Is(err, model.ErrOutOfStock):
			res.OutOfStock = true
		case err != nil:
			return ApprovalResult{}, err
		default:
			res.Item = &item
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return ApprovalResult{}, fmt.Errorf("failed to commit approval transaction: %w", err)
	}
	return res, nil
}

// RejectAttempt flips a pending attempt to rejected.
func (q *Queries) RejectAttempt(ctx context.Context, id, notes string) error {
	tag, err := q.Pool.Exec(ctx,
		"UPDATE attempts SET status = 'rejected', admin_notes = $2 WHERE id = $1 AND status = 'pending'",
		id, notes,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// FollowUpCandidate pairs a due attempt with the delivery context the
// scheduler needs.
type FollowUpCandidate struct {
	AttemptID    string
	UserID       int64
	ChatID       string
	BotID        int64
	BotToken     string
	FollowUpText string
}

// ListDueFollowUps returns approved attempts whose giveaway defines a
// follow-up and whose delay has elapsed as of now.
func (q *Queries) ListDueFollowUps(ctx context.Context, now time.Time) ([]FollowUpCandidate, error) {
	rows, err := q.Pool.Query(ctx,
		`SELECT a.id, u.id, u.chat_id, b.id, b.token, g.follow_up_text
		FROM attempts a
		JOIN giveaways g ON g.id = a.giveaway_id
		JOIN users u ON u.id = a.user_id
		JOIN bots b ON b.id = g.bot_id
		WHERE a.status = 'approved'
		  AND a.follow_up_sent = FALSE
		  AND COALESCE(g.follow_up_text, '') <> ''
		  AND a.created_at + make_interval(secs => g.follow_up_delay_seconds) <= $1
		ORDER BY a.created_at`,
		now,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var due []FollowUpCandidate
	for rows.Next() {
		var c FollowUpCandidate
		if err := rows.Scan(&c.AttemptID, &c.UserID, &c.ChatID, &c.BotID, &c.BotToken, &c.FollowUpText); err != nil {
			return nil, err
		}
		due = append(due, c)
	}
	return due, rows.Err()
}

// MarkFollowUpSent sets the follow-up flag, reporting whether this call was
// the one that flipped it.
func (q *Queries) MarkFollowUpSent(ctx context.Context, attemptID string) (bool, error) {
	tag, err := q.Pool.Exec(ctx,
		"UPDATE attempts SET follow_up_sent = TRUE WHERE id = $1 AND follow_up_sent = FALSE",
		attemptID,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Question and answer queries

func (q *Queries) ListQuestions(ctx context.Context, giveawayID int64) ([]model.Question, error) {
	rows, err := q.Pool.Query(ctx,
		`SELECT id, giveaway_id, ord, text FROM questions WHERE giveaway_id = $1 ORDER BY ord`,
		giveawayID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var qu model.Question
		if err := rows.Scan(&qu.ID, &qu.GiveawayID, &qu.Order, &qu.Text); err != nil {
			return nil, err
		}
		questions = append(questions, qu)
	}
	return questions, rows.Err()
}

func (q *Queries) GetQuestionByID(ctx context.Context, id int64) (model.Question, error) {
	var qu model.Question
	err := q.Pool.QueryRow(ctx,
		"SELECT id, giveaway_id, ord, text FROM questions WHERE id = $1",
		id,
	).Scan(&qu.ID, &qu.GiveawayID, &qu.Order, &qu.Text)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Question{}, model.ErrNotFound
	}
	return qu, err
}

func (q *Queries) CreateQuestion(ctx context.Context, giveawayID int64, ord int, text string) (model.Question, error) {
	var qu model.Question
	err := q.Pool.QueryRow(ctx,
		"INSERT INTO questions (giveaway_id, ord, text) VALUES ($1, $2, $3) RETURNING id, giveaway_id, ord, text",
		giveawayID, ord, text,
	).Scan(&qu.ID, &qu.GiveawayID, &qu.Order, &qu.Text)
	return qu, err
}

// FirstUnansweredQuestion returns the lowest-ordered question of a giveaway
// the user has not answered, or ErrNotFound when every question is answered.
func (q *Queries) FirstUnansweredQuestion(ctx context.Context, userID, giveawayID int64) (model.Question, error) {
	var qu model.Question
	err := q.Pool.QueryRow(ctx,
		`SELECT q.id, q.giveaway_id, q.ord, q.text
		FROM questions q
		WHERE q.giveaway_id = $2
		  AND NOT EXISTS (
			SELECT 1 FROM answers a WHERE a.question_id = q.id AND a.user_id = $1
		  )
		ORDER BY q.ord
		LIMIT 1`,
		userID, giveawayID,
	).Scan(&qu.ID, &qu.GiveawayID, &qu.Order, &qu.Text)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Question{}, model.ErrNotFound
	}
	return qu, err
}

// CreateAnswer records an answer. A redelivered or re-sent answer to the same
// question updates the text in place instead of erroring.
func (q *Queries) CreateAnswer(ctx context.Context, id string, userID, questionID int64, text string) (model.Answer, error) {
	var a model.Answer
	err := q.Pool.QueryRow(ctx,
		`INSERT INTO answers (id, user_id, question_id, text) VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, question_id) DO UPDATE SET text = EXCLUDED.text
		RETURNING id, user_id, question_id, text, answered_at`,
		id, userID, questionID, text,
	).Scan(&a.ID, &a.UserID, &a.QuestionID, &a.Text, &a.AnsweredAt)
	return a, err
}

// LastAnswerAt returns the newest answer timestamp the user has for the
// giveaway's questions, or ErrNotFound when there are none.
func (q *Queries) LastAnswerAt(ctx context.Context, userID, giveawayID int64) (time.Time, error) {
	var t time.Time
	err := q.Pool.QueryRow(ctx,
		`SELECT a.answered_at
		FROM answers a
		JOIN questions q ON q.id = a.question_id
		WHERE a.user_id = $1 AND q.giveaway_id = $2
		ORDER BY a.answered_at DESC
		LIMIT 1`,
		userID, giveawayID,
	).Scan(&t)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, model.ErrNotFound
	}
	return t, err
}

func (q *Queries) DeleteAnswers(ctx context.Context, userID, giveawayID int64) error {
	_, err := q.Pool.Exec(ctx,
		`DELETE FROM answers a
		USING questions q
		WHERE q.id = a.question_id AND a.user_id = $1 AND q.giveaway_id = $2`,
		userID, giveawayID,
	)
	return err
}

// News queries

func (q *Queries) LatestNews(ctx context.Context, botID int64) (model.NewsUpdate, error) {
	var n model.NewsUpdate
	err := q.Pool.QueryRow(ctx,
		"SELECT id, bot_id, title, body, sent_at FROM news_updates WHERE bot_id = $1 ORDER BY sent_at DESC LIMIT 1",
		botID,
	).Scan(&n.ID, &n.BotID, &n.Title, &n.Body, &n.SentAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.NewsUpdate{}, model.ErrNotFound
	}
	return n, err
}

// Message log queries

func (q *Queries) InsertMessageLog(ctx context.Context, id string, botID, userID int64, direction model.Direction, content string) error {
	_, err := q.Pool.Exec(ctx,
		"INSERT INTO message_log (id, bot_id, user_id, direction, content) VALUES ($1, $2, $3, $4, $5)",
		id, botID, userID, direction, content,
	)
	return err
}
