// Package proto defines the Coordinator gRPC service shared by the coordination
// store daemon and its clients. Messages are protobuf well-known types, so the
// service needs no generated message code.
package proto

import (
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/nainya/metacoord/pkg/event"
)

// Field names of Struct payloads.
const (
	FieldKey   = "key"
	FieldValue = "value"
	FieldType  = "type"
)

// NewKeyValue builds the request of Persist and PersistIfAbsent.
func NewKeyValue(key, value string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldKey:   structpb.NewStringValue(key),
		FieldValue: structpb.NewStringValue(value),
	}}
}

// KeyValue reads a Persist request.
func KeyValue(s *structpb.Struct) (string, string) {
	return s.GetFields()[FieldKey].GetStringValue(), s.GetFields()[FieldValue].GetStringValue()
}

// FromEvent encodes a change event for the Watch stream.
func FromEvent(ev event.DataChangedEvent) *structpb.Struct {
	s := NewKeyValue(ev.Key, ev.Value)
	s.Fields[FieldType] = structpb.NewStringValue(ev.Type.String())
	return s
}

// ToEvent decodes a change event received from the Watch stream.
func ToEvent(s *structpb.Struct) (event.DataChangedEvent, error) {
	key, value := KeyValue(s)
	if key == "" {
		return event.DataChangedEvent{}, fmt.Errorf("change event without key")
	}
	typ, err := event.ParseType(s.GetFields()[FieldType].GetStringValue())
	if err != nil {
		return event.DataChangedEvent{}, err
	}
	return event.New(key, value, typ), nil
}
