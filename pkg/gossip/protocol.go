package gossip

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ugorji/go/codec"

	"github.com/cleuton/arquitetura360/pkg/lww"
)

// Encoding is the wire encoding of a gossip message.
type Encoding string

const (
	EncodingJSON    Encoding = "json"
	EncodingMsgpack Encoding = "msgpack"
)

func ParseEncoding(s string) (Encoding, error) {
	switch Encoding(s) {
	case EncodingJSON, EncodingMsgpack:
		return Encoding(s), nil
	default:
		return "", fmt.Errorf("unsupported encoding: %s", s)
	}
}

func (e Encoding) ContentType() string {
	switch e {
	case EncodingMsgpack:
		return "application/msgpack"
	default:
		return "application/json"
	}
}

// Message is a full snapshot of the senders store.
type Message struct {
	// ID identifies the message in logs. Optional.
	ID string `json:"id,omitempty" codec:"id,omitempty"`

	// Sender is the writer ID of the sending node. Optional.
	Sender uint64 `json:"sender,omitempty" codec:"sender,omitempty"`

	// Entries contains every register known to the sender.
	Entries []lww.Entry `json:"lww" codec:"lww" validate:"dive"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every entry in the message. If any entry is invalid the
// whole message must be rejected.
func (m *Message) Validate() error {
	if err := validate.Struct(m); err != nil {
		return fmt.Errorf("invalid entry: %w", err)
	}
	for _, entry := range m.Entries {
		if !entry.Finite() {
			return fmt.Errorf("invalid entry: %s: value not finite", entry.Key)
		}
	}
	return nil
}

// Encode encodes the message with the given encoding.
func Encode(m *Message, enc Encoding) ([]byte, error) {
	switch enc {
	case EncodingJSON:
		b, err := json.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		return b, nil
	case EncodingMsgpack:
		var buf bytes.Buffer
		var handle codec.MsgpackHandle
		if err := codec.NewEncoder(&buf, &handle).Encode(m); err != nil {
			return nil, fmt.Errorf("encode msgpack: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported encoding: %s", enc)
	}
}

// Decode decodes a message from r, using msgpack if the content type is
// msgpack and JSON otherwise.
func Decode(r io.Reader, contentType string) (*Message, error) {
	var m Message
	if isMsgpack(contentType) {
		var handle codec.MsgpackHandle
		if err := codec.NewDecoder(r, &handle).Decode(&m); err != nil {
			return nil, fmt.Errorf("decode msgpack: %w", err)
		}
		return &m, nil
	}

	dec := json.NewDecoder(r)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	// The body must contain a single message.
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("decode json: unexpected data after message")
	}
	return &m, nil
}

func isMsgpack(contentType string) bool {
	mediaType, _, _ := strings.Cut(contentType, ";")
	mediaType = strings.TrimSpace(strings.ToLower(mediaType))
	return mediaType == "application/msgpack" ||
		mediaType == "application/x-msgpack"
}
