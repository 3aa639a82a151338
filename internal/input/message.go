package input

import (
	"encoding/json"
	"fmt"

	"github.com/spherical/textgrab/internal/domain"
)

// ActionUploadImage is the only inbound message action acted upon.
const ActionUploadImage = "uploadImage"

// Message is a cross-context message from the companion extension.
type Message struct {
	Action    string `json:"action"`
	ImageData string `json:"imageData"`
}

// DecodeMessage parses a JSON message.
func DecodeMessage(data []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Message{}, domain.ValidationError("invalid message", err)
	}
	return msg, nil
}

// FromMessage turns an uploadImage message into a payload. Other actions
// are ignored.
func (a *Acquirer) FromMessage(msg Message) (*domain.Payload, error) {
	if msg.Action != ActionUploadImage {
		return nil, fmt.Errorf("%w: action %q", ErrIgnored, msg.Action)
	}
	if msg.ImageData == "" {
		return nil, domain.ValidationError("uploadImage message has no imageData", nil)
	}
	return a.FromDataURL(msg.ImageData)
}
