package model

import "time"

// GiveawayKind represents the reward delivery mode
type GiveawayKind string

const (
	KindStandard GiveawayKind = "standard" // same payload for everyone
	KindUnique   GiveawayKind = "unique"   // one inventory item per user
)

// Requirement represents the gate a user must pass before reward delivery
type Requirement string

const (
	RequirementNone           Requirement = "none"
	RequirementManualApproval Requirement = "manual_approval"
	RequirementQuestionnaire  Requirement = "questionnaire"
	RequirementPhoneNumber    Requirement = "phone_number"
)

// AttemptStatus represents the outcome state of a claim attempt
type AttemptStatus string

const (
	AttemptPending  AttemptStatus = "pending"
	AttemptApproved AttemptStatus = "approved"
	AttemptRejected AttemptStatus = "rejected"
)

// Direction of an audited message
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// Bot is a managed Telegram bot identity
type Bot struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	Username           string `json:"username"`
	Token              string `json:"-"`
	Active             bool   `json:"active"`
	StartMessageHeader string `json:"startMessageHeader,omitempty"`
}

// User is a Telegram user known to one bot
type User struct {
	ID          int64     `json:"id"`
	BotID       int64     `json:"botId"`
	ChatID      string    `json:"chatId"`
	Username    string    `json:"username,omitempty"`
	FirstName   string    `json:"firstName,omitempty"`
	PhoneNumber string    `json:"phoneNumber,omitempty"`
	JoinedAt    time.Time `json:"joinedAt"`
}

// Giveaway is a configured campaign a user can claim
type Giveaway struct {
	ID               int64                  `json:"id"`
	BotID            int64                  `json:"botId"`
	Title            string                 `json:"title"`
	Description      string                 `json:"description"`
	Kind             GiveawayKind           `json:"kind"`
	Requirement      Requirement            `json:"requirement"`
	Sequence         *int                   `json:"sequence,omitempty"`
	PrereqThreshold  *int                   `json:"prereqThreshold,omitempty"`
	AllowRetake      bool                   `json:"allowRetake"`
	StaticContent    string                 `json:"staticContent,omitempty"`
	ApprovalTemplate *string                `json:"approvalTemplate,omitempty"`
	FailureTemplate  *string                `json:"failureTemplate,omitempty"`
	PromptTemplate   *string                `json:"promptTemplate,omitempty"`
	SuccessTemplate  *string                `json:"successTemplate,omitempty"`
	FollowUpText     string                 `json:"followUpText,omitempty"`
	FollowUpDelay    time.Duration          `json:"followUpDelay,omitempty"`
	ProofPolicy      map[string]interface{} `json:"proofPolicy,omitempty"`
	Active           bool                   `json:"active"`
}

// Item is one unit of a unique giveaway's inventory.
// Once Used flips true, ClaimedBy is set and never changes again.
type Item struct {
	ID         int64  `json:"id"`
	GiveawayID int64  `json:"giveawayId"`
	Content    string `json:"-"`
	Used       bool   `json:"used"`
	ClaimedBy  *int64 `json:"claimedBy,omitempty"`
}

// Attempt is a recorded outcome of one user's interaction with one giveaway
type Attempt struct {
	ID           string        `json:"id"`
	UserID       int64         `json:"userId"`
	GiveawayID   int64         `json:"giveawayId"`
	Status       AttemptStatus `json:"status"`
	Proof        string        `json:"proof,omitempty"`
	FollowUpSent bool          `json:"followUpSent"`
	AdminNotes   string        `json:"adminNotes,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// Question belongs to a questionnaire giveaway, in display order
type Question struct {
	ID         int64  `json:"id"`
	GiveawayID int64  `json:"giveawayId"`
	Order      int    `json:"order"`
	Text       string `json:"text"`
}

// Answer belongs to one (user, question) pair
type Answer struct {
	ID         string    `json:"id"`
	UserID     int64     `json:"userId"`
	QuestionID int64     `json:"questionId"`
	Text       string    `json:"text"`
	AnsweredAt time.Time `json:"answeredAt"`
}

// NewsUpdate is a broadcast headline shown to users on /start
type NewsUpdate struct {
	ID     int64     `json:"id"`
	BotID  int64     `json:"botId"`
	Title  string    `json:"title"`
	Body   string    `json:"body"`
	SentAt time.Time `json:"sentAt"`
}

// MessageLog is one row of the append-only message audit trail
type MessageLog struct {
	ID        string    `json:"id"`
	BotID     int64     `json:"botId"`
	UserID    int64     `json:"userId"`
	Direction Direction `json:"direction"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}
