package recorder

import (
	"bytes"
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/banshee-data/ouster-bridge/internal/lidar/msgs"
)

// Envelope field numbers.
const (
	fieldTopic   protowire.Number = 1
	fieldType    protowire.Number = 2
	fieldStampNs protowire.Number = 3
	fieldPayload protowire.Number = 4
)

// ErrUnsupportedType is returned by Envelope.Decode for message types that
// replay does not decode.
var ErrUnsupportedType = errors.New("unsupported message type")

// Envelope is one recorded message: the topic it was published on, its
// type name, acquisition stamp and serialised body.
type Envelope struct {
	Topic      string
	Type       string
	StampNanos int64
	Payload    []byte
}

// NewEnvelope serialises msg into an envelope.
func NewEnvelope(topic string, msg msgs.Message) (Envelope, error) {
	var buf bytes.Buffer
	if err := msg.Serialize(&buf); err != nil {
		return Envelope{}, fmt.Errorf("failed to serialize %s: %w", msg.TypeName(), err)
	}
	env := Envelope{Topic: topic, Type: msg.TypeName(), Payload: buf.Bytes()}
	if s, ok := msg.(msgs.Stamped); ok {
		env.StampNanos = int64(s.MsgHeader().Stamp.Duration())
	}
	return env, nil
}

// Marshal encodes the envelope in protobuf wire format.
func (e Envelope) Marshal() []byte {
	b := make([]byte, 0, len(e.Topic)+len(e.Type)+len(e.Payload)+24)
	b = protowire.AppendTag(b, fieldTopic, protowire.BytesType)
	b = protowire.AppendString(b, e.Topic)
	b = protowire.AppendTag(b, fieldType, protowire.BytesType)
	b = protowire.AppendString(b, e.Type)
	if e.StampNanos != 0 {
		b = protowire.AppendTag(b, fieldStampNs, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(e.StampNanos))
	}
	b = protowire.AppendTag(b, fieldPayload, protowire.BytesType)
	b = protowire.AppendBytes(b, e.Payload)
	return b
}

// UnmarshalEnvelope decodes an envelope. Unknown fields are skipped.
func UnmarshalEnvelope(b []byte) (Envelope, error) {
	var e Envelope
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Envelope{}, fmt.Errorf("failed to read envelope tag: %w", protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == fieldTopic && typ == protowire.BytesType:
			e.Topic, n = protowire.ConsumeString(b)
		case num == fieldType && typ == protowire.BytesType:
			e.Type, n = protowire.ConsumeString(b)
		case num == fieldStampNs && typ == protowire.VarintType:
			var v uint64
			v, n = protowire.ConsumeVarint(b)
			e.StampNanos = int64(v)
		case num == fieldPayload && typ == protowire.BytesType:
			var v []byte
			v, n = protowire.ConsumeBytes(b)
			e.Payload = append([]byte(nil), v...)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return Envelope{}, fmt.Errorf("failed to read envelope field %d: %w", num, protowire.ParseError(n))
		}
		b = b[n:]
	}
	return e, nil
}

// Decode parses the payload back into a message. Point clouds and scans
// are supported.
func (e Envelope) Decode() (msgs.Message, error) {
	var (
		msg msgs.Message
		err error
	)
	switch e.Type {
	case msgs.PointCloud2TypeName:
		msg, err = msgs.DecodePointCloud2(e.Payload)
	case msgs.LaserScanTypeName:
		msg, err = msgs.DecodeLaserScan(e.Payload)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, e.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", e.Type, err)
	}
	return msg, nil
}
