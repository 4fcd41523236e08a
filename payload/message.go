// Package payload turns captured events into size-bounded webhook messages
// and defines their wire representation.
package payload

import (
	"encoding/json"
	"errors"

	"github.com/xraph/logrelay/id"
)

// ErrEmptyMessage is returned by Message.Validate when a message carries
// neither content nor embeds.
var ErrEmptyMessage = errors.New("payload: message has neither content nor embeds")

// Message is the transport-ready form of one accepted event. It is created
// once and never mutated afterwards.
type Message struct {
	// ID correlates diagnostics about this message. Never serialized.
	ID id.ID `json:"-"`

	// Content is optional plain text shown above the embeds.
	Content string `json:"content,omitempty"`

	// Embeds holds the rich-content blocks.
	Embeds []Embed `json:"embeds,omitempty"`

	// WebhookURL is the destination. It routes the message and is never
	// part of the body.
	WebhookURL string `json:"-"`
}

// Embed is a rich-content block.
type Embed struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Fields      []Field    `json:"fields"`
	Footer      Footer     `json:"footer"`
	Color       int        `json:"color"`
	Thumbnail   *Thumbnail `json:"thumbnail,omitempty"`
}

// Field is one name/value row of an embed.
type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// Footer is the small text under an embed.
type Footer struct {
	Text string `json:"text"`
}

// Thumbnail is the image shown in the corner of an embed.
type Thumbnail struct {
	URL string `json:"url"`
}

// Validate checks the content/embeds invariant.
func (m *Message) Validate() error {
	if m.Content == "" && len(m.Embeds) == 0 {
		return ErrEmptyMessage
	}
	return nil
}

// Body returns the JSON wire representation of m.
func (m *Message) Body() ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(m)
}
