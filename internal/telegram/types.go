package telegram

// Update is one decoded inbound webhook payload from the Bot API.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

type Message struct {
	MessageID int64       `json:"message_id"`
	Chat      Chat        `json:"chat"`
	From      *Sender     `json:"from,omitempty"`
	Text      string      `json:"text,omitempty"`
	Photo     []PhotoSize `json:"photo,omitempty"`
	Contact   *Contact    `json:"contact,omitempty"`
}

type Chat struct {
	ID int64 `json:"id"`
}

type Sender struct {
	ID        int64  `json:"id"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
}

type PhotoSize struct {
	FileID string `json:"file_id"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type Contact struct {
	PhoneNumber string `json:"phone_number"`
	UserID      int64  `json:"user_id,omitempty"`
}

// ReplyMarkup covers the keyboard shapes the engine sends: a contact-request
// keyboard while capturing a phone number and keyboard removal on terminal
// messages.
type ReplyMarkup struct {
	Keyboard        [][]KeyboardButton `json:"keyboard,omitempty"`
	OneTimeKeyboard bool               `json:"one_time_keyboard,omitempty"`
	ResizeKeyboard  bool               `json:"resize_keyboard,omitempty"`
	RemoveKeyboard  bool               `json:"remove_keyboard,omitempty"`
}

type KeyboardButton struct {
	Text           string `json:"text"`
	RequestContact bool   `json:"request_contact,omitempty"`
}

// RemoveKeyboard clears any reply keyboard on the user's client.
func RemoveKeyboard() *ReplyMarkup {
	return &ReplyMarkup{RemoveKeyboard: true}
}

// ContactKeyboard is a one-time keyboard with a single share-contact button.
func ContactKeyboard(label string) *ReplyMarkup {
	return &ReplyMarkup{
		Keyboard:        [][]KeyboardButton{{{Text: label, RequestContact: true}}},
		OneTimeKeyboard: true,
		ResizeKeyboard:  true,
	}
}

// WebhookInfo is the getWebhookInfo result subset the diagnostics use.
type WebhookInfo struct {
	URL              string `json:"url"`
	PendingUpdates   int    `json:"pending_update_count"`
	LastErrorMessage string `json:"last_error_message,omitempty"`
}

// BotProfile is the getMe result subset.
type BotProfile struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}
