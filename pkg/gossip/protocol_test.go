package gossip

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleuton/arquitetura360/pkg/lww"
)

func TestMessage_Encode(t *testing.T) {
	msg := &Message{
		ID:     "7f3c",
		Sender: 6000,
		Entries: []lww.Entry{
			{Key: "device0:temperature", Timestamp: 100, WriterID: 6000, Value: 21.5},
			{Key: "device1:vibration", Timestamp: 101, WriterID: 6001, Value: 3},
		},
	}

	for _, enc := range []Encoding{EncodingJSON, EncodingMsgpack} {
		t.Run(string(enc), func(t *testing.T) {
			b, err := Encode(msg, enc)
			require.NoError(t, err)

			decoded, err := Decode(bytes.NewReader(b), enc.ContentType())
			require.NoError(t, err)
			assert.Equal(t, msg, decoded)
		})
	}

	t.Run("unsupported", func(t *testing.T) {
		_, err := Encode(msg, Encoding("xml"))
		assert.Error(t, err)
	})
}

func TestMessage_Decode(t *testing.T) {
	t.Run("wire format", func(t *testing.T) {
		// Messages without an ID or sender are accepted.
		body := `{"lww":[{"key":"k","ts":100,"node_id":2,"value":9.0}]}`
		msg, err := Decode(strings.NewReader(body), "application/json")
		require.NoError(t, err)
		assert.Equal(t, []lww.Entry{
			{Key: "k", Timestamp: 100, WriterID: 2, Value: 9},
		}, msg.Entries)
		assert.NoError(t, msg.Validate())
	})

	t.Run("empty", func(t *testing.T) {
		msg, err := Decode(strings.NewReader(`{"lww":[]}`), "application/json")
		require.NoError(t, err)
		assert.Empty(t, msg.Entries)
		assert.NoError(t, msg.Validate())
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := Decode(strings.NewReader(`{"lww":`), "application/json")
		assert.Error(t, err)
	})

	t.Run("trailing data", func(t *testing.T) {
		_, err := Decode(strings.NewReader(`{"lww":[]} garbage`), "application/json")
		assert.Error(t, err)

		_, err = Decode(strings.NewReader(`{"lww":[]}{"lww":[]}`), "application/json")
		assert.Error(t, err)

		// Trailing whitespace is allowed.
		msg, err := Decode(strings.NewReader("{\"lww\":[]}\n"), "application/json")
		require.NoError(t, err)
		assert.Empty(t, msg.Entries)
	})

	t.Run("schema violation", func(t *testing.T) {
		_, err := Decode(strings.NewReader(`{"lww":[{"key":"k","ts":"abc"}]}`), "")
		assert.Error(t, err)
	})

	t.Run("msgpack content type with params", func(t *testing.T) {
		b, err := Encode(&Message{Entries: []lww.Entry{}}, EncodingMsgpack)
		require.NoError(t, err)

		_, err = Decode(bytes.NewReader(b), "application/x-msgpack; charset=binary")
		assert.NoError(t, err)
	})
}

func TestMessage_Validate(t *testing.T) {
	tests := []struct {
		name  string
		entry lww.Entry
	}{
		{"missing key", lww.Entry{Key: "", Timestamp: 1}},
		{"negative timestamp", lww.Entry{Key: "k", Timestamp: -1}},
		{"nan", lww.Entry{Key: "k", Timestamp: 1, Value: math.NaN()}},
		{"inf", lww.Entry{Key: "k", Timestamp: 1, Value: math.Inf(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := &Message{
				Entries: []lww.Entry{
					{Key: "ok", Timestamp: 1, Value: 1},
					tt.entry,
				},
			}
			assert.Error(t, msg.Validate())
		})
	}
}

func TestParseEncoding(t *testing.T) {
	enc, err := ParseEncoding("msgpack")
	assert.NoError(t, err)
	assert.Equal(t, EncodingMsgpack, enc)
	assert.Equal(t, "application/msgpack", enc.ContentType())

	_, err = ParseEncoding("yaml")
	assert.Error(t, err)
}
