// Package proof validates and normalizes the payloads users submit as
// completion evidence for manual-approval giveaways.
package proof

import (
	"fmt"

	"givebox/internal/telegram"
)

// Policy represents per-giveaway constraints on proof submissions. A nil
// Policy (giveaway without a configured policy) accepts everything.
type Policy struct {
	AllowText  *bool `json:"allowText,omitempty"`
	AllowPhoto *bool `json:"allowPhoto,omitempty"`
	MaxTextLen *int  `json:"maxTextLen,omitempty"`
}

// ParsePolicy parses a giveaway's proof_policy JSON object into a Policy.
func ParsePolicy(policy map[string]interface{}) (*Policy, error) {
	if policy == nil {
		return nil, nil
	}

	p := &Policy{}

	if val, ok := policy["allowText"].(bool); ok {
		p.AllowText = &val
	}
	if val, ok := policy["allowPhoto"].(bool); ok {
		p.AllowPhoto = &val
	}
	// JSON numbers decode as float64
	if val, ok := policy["maxTextLen"].(float64); ok {
		n := int(val)
		if n < 0 {
			return nil, fmt.Errorf("maxTextLen must not be negative, got %d", n)
		}
		p.MaxTextLen = &n
	}

	return p, nil
}

// ValidateText checks a textual proof against the policy.
func (p *Policy) ValidateText(text string) error {
	if p == nil {
		return nil
	}
	if p.AllowText != nil && !*p.AllowText {
		return fmt.Errorf("text proof is not accepted for this giveaway")
	}
	if p.MaxTextLen != nil && len(text) > *p.MaxTextLen {
		return fmt.Errorf("proof text length %d exceeds maximum %d", len(text), *p.MaxTextLen)
	}
	return nil
}

// ValidatePhoto checks whether a photo proof is accepted.
func (p *Policy) ValidatePhoto() error {
	if p == nil {
		return nil
	}
	if p.AllowPhoto != nil && !*p.AllowPhoto {
		return fmt.Errorf("photo proof is not accepted for this giveaway")
	}
	return nil
}

// LargestPhoto picks the file reference of the biggest size variant Telegram
// attached to a photo message. Reported ok=false when the slice is empty.
func LargestPhoto(photos []telegram.PhotoSize) (string, bool) {
	if len(photos) == 0 {
		return "", false
	}
	best := photos[0]
	for _, ph := range photos[1:] {
		if ph.Width*ph.Height > best.Width*best.Height {
			best = ph
		}
	}
	return best.FileID, true
}
