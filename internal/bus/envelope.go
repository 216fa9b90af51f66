package bus

import (
	"encoding/base64"
	"fmt"
	"strconv"

	"github.com/ThreeDotsLabs/watermill/message"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/simwire/simwire/internal/bus/msg"
)

// Messages crossing an external transport travel as a proto-encoded
// structpb envelope inside a Watermill message. Timestamps ride as decimal
// strings so nanosecond precision survives the float64 value space.

const (
	envFieldSource     = "source"
	envFieldDest       = "dest"
	envFieldOrigSource = "orig_source"
	envFieldOrigDest   = "orig_dest"
	envFieldPayload    = "payload"
	envFieldSendTime   = "send_time"
	envFieldRecvTime   = "receive_time"
)

func marshalEnvelope(m *msg.Message) (*message.Message, error) {
	st, err := structpb.NewStruct(map[string]any{
		envFieldSource:     m.Source,
		envFieldDest:       m.Dest,
		envFieldOrigSource: m.OrigSource,
		envFieldOrigDest:   m.OrigDest,
		envFieldPayload:    base64.StdEncoding.EncodeToString(m.Payload),
		envFieldSendTime:   strconv.FormatInt(int64(m.SendTime), 10),
		envFieldRecvTime:   strconv.FormatInt(int64(m.ReceiveTime), 10),
	})
	if err != nil {
		return nil, fmt.Errorf("building message envelope: %w", err)
	}

	payload, err := proto.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("marshalling message envelope: %w", err)
	}
	return message.NewMessage(m.UUID, payload), nil
}

func unmarshalEnvelope(wm *message.Message) (*msg.Message, error) {
	st := &structpb.Struct{}
	if err := proto.Unmarshal(wm.Payload, st); err != nil {
		return nil, fmt.Errorf("unmarshalling message envelope: %w", err)
	}
	fields := st.GetFields()

	stringField := func(key string) string {
		return fields[key].GetStringValue()
	}
	timeField := func(key string) (msg.Time, error) {
		raw := stringField(key)
		if raw == "" {
			return msg.TimeZero, nil
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return msg.TimeZero, fmt.Errorf("envelope field %s: %w", key, err)
		}
		return msg.Time(n), nil
	}

	payload, err := base64.StdEncoding.DecodeString(stringField(envFieldPayload))
	if err != nil {
		return nil, fmt.Errorf("envelope payload: %w", err)
	}
	sendTime, err := timeField(envFieldSendTime)
	if err != nil {
		return nil, err
	}
	recvTime, err := timeField(envFieldRecvTime)
	if err != nil {
		return nil, err
	}

	return &msg.Message{
		UUID:        wm.UUID,
		Source:      stringField(envFieldSource),
		Dest:        stringField(envFieldDest),
		OrigSource:  stringField(envFieldOrigSource),
		OrigDest:    stringField(envFieldOrigDest),
		Payload:     payload,
		SendTime:    sendTime,
		ReceiveTime: recvTime,
	}, nil
}
