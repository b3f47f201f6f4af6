package server

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/alnah/go-resumd"
)

// Message types sent by editor clients.
const (
	msgEdit      = "edit"
	msgViewport  = "viewport"
	msgKey       = "key"
	msgWheel     = "wheel"
	msgZoom      = "zoom"
	msgHeartbeat = "heartbeat"
	msgClaim     = "claim"
	msgStarter   = "starter"
)

// Message types sent to editor clients.
const (
	outDocument = "document"
	outFrame    = "frame"
	outZoom     = "zoom"
	outMetadata = "metadata"
	outStatus   = "status"
	outBlocked  = "blocked"
	outActive   = "active"
	outStarters = "starters"
	outError    = "error"
)

// ErrBadMessage marks a client message that failed to decode or validate.
var ErrBadMessage = errors.New("invalid message")

// envelope carries the type of every client message; the payload fields sit
// next to it in the same JSON object.
type envelope struct {
	Type string `json:"type" validate:"required,oneof=edit viewport key wheel zoom heartbeat claim starter"`
}

type editMessage struct {
	Markdown string `json:"markdown"`
	CSS      string `json:"css"`
}

type viewportMessage struct {
	Width  float64 `json:"width" validate:"gte=0,lte=100000"`
	Height float64 `json:"height" validate:"gte=0,lte=100000"`
}

type keyMessage struct {
	Key string `json:"key" validate:"required,max=32"`
	resumd.Modifiers
}

type wheelMessage struct {
	DeltaY float64 `json:"deltaY" validate:"gte=-100000,lte=100000"`
	resumd.Modifiers
}

type zoomMessage struct {
	Action string `json:"action" validate:"required,oneof=in out reset"`
}

type starterMessage struct {
	Name string `json:"name" validate:"required,max=64"`
}

// decoder decodes and validates client messages.
type decoder struct {
	validate *validator.Validate
}

func newDecoder() *decoder {
	return &decoder{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// kind returns the validated message type of data.
func (d *decoder) kind(data []byte) (string, error) {
	var env envelope
	if err := d.decode(data, &env); err != nil {
		return "", err
	}
	return env.Type, nil
}

// decode unmarshals data into v and validates it.
func (d *decoder) decode(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadMessage, err)
	}
	if err := d.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadMessage, err)
	}
	return nil
}

type documentOut struct {
	Type     string `json:"type"`
	Markdown string `json:"markdown"`
	CSS      string `json:"css"`
}

type frameOut struct {
	Type string `json:"type"`
	resumd.Frame
}

type zoomOut struct {
	Type    string `json:"type"`
	Percent int    `json:"percent"`
}

type metadataOut struct {
	Type  string `json:"type"`
	Title string `json:"title,omitempty"`
	Lang  string `json:"lang,omitempty"`
}

type statusOut struct {
	Type      string `json:"type"`
	State     string `json:"state"`
	RequestID uint64 `json:"requestId,omitempty"`
	Error     string `json:"error,omitempty"`
}

type startersOut struct {
	Type  string   `json:"type"`
	Names []string `json:"names"`
}

type messageOut struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

func documentMessage(doc resumd.Document) documentOut {
	return documentOut{Type: outDocument, Markdown: doc.Markdown, CSS: doc.CSS}
}

func metadataMessage(m resumd.Metadata) metadataOut {
	return metadataOut{Type: outMetadata, Title: m.Title, Lang: m.Lang}
}

func errorMessage(err error) messageOut {
	return messageOut{Type: outError, Message: err.Error()}
}
