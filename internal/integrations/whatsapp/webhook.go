package whatsapp

import (
	"encoding/json"
	"fmt"
)

// Inbound webhook payload, per the Cloud API shape. Only the fields the
// assistant consumes are modeled.

type WebhookPayload struct {
	Entry []Entry `json:"entry"`
}

type Entry struct {
	Changes []Change `json:"changes"`
}

type Change struct {
	Value Value `json:"value"`
}

type Value struct {
	Messages []Message `json:"messages"`
}

// Message is one inbound user message: text, a button reply, a document or
// a voice note.
type Message struct {
	From string `json:"from"` // sender phone number
	Type string `json:"type"` // text | interactive | document | audio

	Text *struct {
		Body string `json:"body"`
	} `json:"text,omitempty"`

	Interactive *struct {
		ButtonReply *struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"button_reply,omitempty"`
	} `json:"interactive,omitempty"`

	Document *struct {
		ID       string `json:"id"`
		Filename string `json:"filename"`
		MimeType string `json:"mime_type"`
	} `json:"document,omitempty"`

	Audio *struct {
		ID       string `json:"id"`
		MimeType string `json:"mime_type"`
	} `json:"audio,omitempty"`
}

// InboundKind labels the normalized message kind.
type InboundKind string

const (
	InboundText     InboundKind = "text"
	InboundButton   InboundKind = "button"
	InboundDocument InboundKind = "document"
	InboundAudio    InboundKind = "audio"
)

// Inbound is a single normalized inbound message.
type Inbound struct {
	Phone    string
	Kind     InboundKind
	Text     string // message body, or button id for button replies
	MediaID  string // document/audio media id
	Filename string
}

// ParseWebhook flattens a webhook payload into normalized inbound messages.
func ParseWebhook(raw []byte) ([]Inbound, error) {
	var payload WebhookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("whatsapp: parsing webhook: %w", err)
	}

	var out []Inbound
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				in := Inbound{Phone: msg.From}
				switch {
				case msg.Type == "text" && msg.Text != nil:
					in.Kind = InboundText
					in.Text = msg.Text.Body
				case msg.Type == "interactive" && msg.Interactive != nil && msg.Interactive.ButtonReply != nil:
					in.Kind = InboundButton
					in.Text = msg.Interactive.ButtonReply.ID
				case msg.Type == "document" && msg.Document != nil:
					in.Kind = InboundDocument
					in.MediaID = msg.Document.ID
					in.Filename = msg.Document.Filename
				case msg.Type == "audio" && msg.Audio != nil:
					in.Kind = InboundAudio
					in.MediaID = msg.Audio.ID
				default:
					continue
				}
				out = append(out, in)
			}
		}
	}
	return out, nil
}
