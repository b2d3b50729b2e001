package transformer

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/glimte/mmate-amqp/amqpenv"
	"github.com/glimte/mmate-amqp/canonical"
)

// Properties that carry AMQP fields the canonical model has no slot for
const (
	reservedPrefix      = "JMS_AMQP_"
	propContentType     = "JMS_AMQP_CONTENT_TYPE"
	propContentEncoding = "JMS_AMQP_CONTENT_ENCODING"
	propReplyToGroupID  = "JMS_AMQP_REPLY_TO_GROUP_ID"
	propFirstAcquirer   = "JMS_AMQP_FIRST_ACQUIRER"
)

// populate maps the header, properties and application properties of env
// onto msg. In strict mode any value without a canonical form fails the
// message; otherwise it is skipped.
func (o options) populate(env *amqpenv.Envelope, msg *canonical.Message, strict bool) error {
	for name, v := range env.ApplicationProperties {
		s, err := toScalar(fmt.Sprintf("application-properties[%q]", name), v)
		if err != nil {
			if strict {
				return err
			}
			o.logger.Debug("skipping application property", "property", name, "error", err)
			continue
		}
		msg.Properties[name] = s
	}

	if h := env.Header; h != nil {
		msg.Priority = clampPriority(h.Priority)
		msg.Persistent = h.Durable
		if h.TTL != nil && *h.TTL > 0 {
			msg.Expiration = o.now().Add(*h.TTL)
		}
		if h.FirstAcquirer {
			msg.Properties[propFirstAcquirer] = true
		}
		count := h.DeliveryCount
		if count >= math.MaxInt32 {
			count = math.MaxInt32 - 1
		}
		msg.DeliveryCount = int32(count) + 1
	} else {
		// a missing header means the default delivery-count of zero
		msg.DeliveryCount = 1
	}

	p := env.Properties
	if p == nil {
		return nil
	}

	id, err := encodeID("properties.message-id", p.MessageID)
	if err != nil {
		if strict {
			return err
		}
		id = fmt.Sprint(p.MessageID)
	}
	msg.MessageID = id

	cid, err := encodeID("properties.correlation-id", p.CorrelationID)
	if err != nil {
		if strict {
			return err
		}
		cid = fmt.Sprint(p.CorrelationID)
	}
	msg.CorrelationID = cid

	msg.UserID = string(p.UserID)
	msg.Destination = p.To
	msg.Type = p.Subject
	msg.ReplyTo = p.ReplyTo
	msg.GroupID = p.GroupID
	if p.GroupSequence != nil {
		seq := int64(*p.GroupSequence)
		msg.GroupSequence = &seq
	}
	if !p.CreationTime.IsZero() {
		msg.Timestamp = p.CreationTime
	}
	// an absolute expiry overrides one derived from the header ttl
	if !p.AbsoluteExpiryTime.IsZero() {
		msg.Expiration = p.AbsoluteExpiryTime
	}

	setIfNotEmpty(msg, propContentType, p.ContentType)
	setIfNotEmpty(msg, propContentEncoding, p.ContentEncoding)
	setIfNotEmpty(msg, propReplyToGroupID, p.ReplyToGroupID)
	return nil
}

// envelopeHeaders builds the header, properties and application properties
// of an outbound envelope from msg
func (o options) envelopeHeaders(msg *canonical.Message, env *amqpenv.Envelope) {
	env.Header = &amqpenv.Header{
		Durable:       msg.Persistent,
		Priority:      clampPriority(msg.Priority),
		FirstAcquirer: msg.BoolProperty(propFirstAcquirer),
	}
	if msg.DeliveryCount > 1 {
		env.Header.DeliveryCount = uint32(msg.DeliveryCount - 1)
	}
	if !msg.Expiration.IsZero() {
		if ttl := msg.Expiration.Sub(o.now()); ttl > 0 {
			ttl = ttl.Truncate(time.Millisecond)
			env.Header.TTL = &ttl
		}
	}

	props := &amqpenv.Properties{
		MessageID:          decodeID(msg.MessageID),
		CorrelationID:      decodeID(msg.CorrelationID),
		To:                 msg.Destination,
		Subject:            msg.Type,
		ReplyTo:            msg.ReplyTo,
		GroupID:            msg.GroupID,
		CreationTime:       msg.Timestamp,
		AbsoluteExpiryTime: msg.Expiration,
		ContentType:        stringProperty(msg, propContentType),
		ContentEncoding:    stringProperty(msg, propContentEncoding),
		ReplyToGroupID:     stringProperty(msg, propReplyToGroupID),
	}
	if msg.UserID != "" {
		props.UserID = []byte(msg.UserID)
	}
	if s := msg.GroupSequence; s != nil && *s >= 0 && *s <= math.MaxUint32 {
		seq := uint32(*s)
		props.GroupSequence = &seq
	}
	if !emptyProperties(props) {
		env.Properties = props
	}

	for name, v := range msg.Properties {
		if strings.HasPrefix(name, reservedPrefix) {
			continue
		}
		if env.ApplicationProperties == nil {
			env.ApplicationProperties = make(map[string]any)
		}
		env.ApplicationProperties[name] = v
	}
}

func emptyProperties(p *amqpenv.Properties) bool {
	return p.MessageID == nil && p.CorrelationID == nil && p.UserID == nil &&
		p.To == "" && p.Subject == "" && p.ReplyTo == "" && p.GroupID == "" &&
		p.ContentType == "" && p.ContentEncoding == "" && p.ReplyToGroupID == "" &&
		p.CreationTime.IsZero() && p.AbsoluteExpiryTime.IsZero() && p.GroupSequence == nil
}

func setIfNotEmpty(msg *canonical.Message, name, value string) {
	if value != "" {
		msg.Properties[name] = value
	}
}

func stringProperty(msg *canonical.Message, name string) string {
	s, _ := msg.Properties[name].(string)
	return s
}
