package main

import (
	"io"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/glimte/mmate-amqp/canonical"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type messageView struct {
	MessageID     string         `json:"messageId,omitempty"`
	Kind          string         `json:"kind"`
	Body          any            `json:"body,omitempty"`
	Properties    map[string]any `json:"properties,omitempty"`
	Priority      uint8          `json:"priority"`
	Persistent    bool           `json:"persistent"`
	CorrelationID string         `json:"correlationId,omitempty"`
	ReplyTo       string         `json:"replyTo,omitempty"`
	Destination   string         `json:"destination,omitempty"`
	Type          string         `json:"type,omitempty"`
	Timestamp     *time.Time     `json:"timestamp,omitempty"`
	Expiration    *time.Time     `json:"expiration,omitempty"`
	UserID        string         `json:"userId,omitempty"`
	GroupID       string         `json:"groupId,omitempty"`
	GroupSequence *int64         `json:"groupSequence,omitempty"`
	DeliveryCount int32          `json:"deliveryCount"`
	NativeFormat  bool           `json:"nativeFormat"`
	MessageFormat int64          `json:"messageFormat"`
}

type entryView struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

func printMessage(w io.Writer, msg *canonical.Message) error {
	body, err := bodyView(msg)
	if err != nil {
		return err
	}

	view := messageView{
		MessageID:     msg.MessageID,
		Kind:          msg.Kind.String(),
		Body:          body,
		Properties:    msg.Properties,
		Priority:      msg.Priority,
		Persistent:    msg.Persistent,
		CorrelationID: msg.CorrelationID,
		ReplyTo:       msg.ReplyTo,
		Destination:   msg.Destination,
		Type:          msg.Type,
		UserID:        msg.UserID,
		GroupID:       msg.GroupID,
		GroupSequence: msg.GroupSequence,
		DeliveryCount: msg.DeliveryCount,
		NativeFormat:  msg.NativeFormat,
		MessageFormat: msg.MessageFormat,
	}
	if !msg.Timestamp.IsZero() {
		view.Timestamp = &msg.Timestamp
	}
	if !msg.Expiration.IsZero() {
		view.Expiration = &msg.Expiration
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(view)
}

// bodyView renders the payload; bytes are base64 encoded by the encoder
func bodyView(msg *canonical.Message) (any, error) {
	switch msg.Kind {
	case canonical.KindText:
		return msg.Text()
	case canonical.KindBytes:
		return msg.Bytes()
	case canonical.KindMap:
		entries, err := msg.Map()
		if err != nil {
			return nil, err
		}
		out := make([]entryView, len(entries))
		for i, e := range entries {
			out[i] = entryView{Key: e.Key, Value: e.Value}
		}
		return out, nil
	case canonical.KindStream:
		return msg.Stream()
	case canonical.KindObject:
		return msg.Object()
	default:
		return nil, nil
	}
}
