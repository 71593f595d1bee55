// Parlor - Real-time Channel Gateway
// Copyright 2026 The Parlor Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parlor-chat/parlor

package gateway

import (
	"fmt"
	"time"

	"github.com/parlor-chat/parlor/internal/models"
	"github.com/parlor-chat/parlor/internal/validation"
)

// Method discriminates envelopes.
type Method string

const (
	MethodSubscribe   Method = "subscribe"
	MethodPublish     Method = "publish"
	MethodUnsubscribe Method = "unsubscribe"

	// MethodError is outbound only.
	MethodError Method = "error"
)

// Protocol error codes reported to the sender.
const (
	CodeMalformedEnvelope = "malformed_envelope"
	CodeUnknownMethod     = "unknown_method"
	CodeMissingChannel    = "missing_channel"
	CodeInvalidChannel    = "invalid_channel"
	CodeMissingMessage    = "missing_message"
	CodeNotRegistered     = "not_registered"
)

// EntityRef names an organization or team a message is scoped to.
type EntityRef struct {
	ID   string `json:"id" msgpack:"id"`
	Name string `json:"name,omitempty" msgpack:"name,omitempty"`
}

// RecipientRef names the target of a direct message.
type RecipientRef struct {
	ID string `json:"id" msgpack:"id"`
}

// Payload is the body of an envelope. User, IsOnline and CreatedAt are only
// ever set by the server.
type Payload struct {
	Channel      string          `json:"channel,omitempty" msgpack:"channel,omitempty"`
	Message      string          `json:"message,omitempty" msgpack:"message,omitempty"`
	Organization *EntityRef      `json:"organization,omitempty" msgpack:"organization,omitempty"`
	Team         *EntityRef      `json:"team,omitempty" msgpack:"team,omitempty"`
	Recipient    *RecipientRef   `json:"recipient,omitempty" msgpack:"recipient,omitempty"`
	User         *models.UserRef `json:"user,omitempty" msgpack:"user,omitempty"`
	IsOnline     *bool           `json:"isOnline,omitempty" msgpack:"isOnline,omitempty"`
	CreatedAt    *time.Time      `json:"createdAt,omitempty" msgpack:"createdAt,omitempty"`
	Code         string          `json:"code,omitempty" msgpack:"code,omitempty"`
}

// Envelope is the unit exchanged over a connection.
type Envelope struct {
	Method  Method   `json:"method" msgpack:"method" validate:"required,oneof=subscribe publish unsubscribe"`
	Payload *Payload `json:"payload,omitempty" msgpack:"payload,omitempty"`
}

// ProtocolError is a client mistake reported back on the same connection.
type ProtocolError struct {
	Code    string
	Message string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Envelope renders the error as an outbound envelope.
func (e *ProtocolError) Envelope() *Envelope {
	return &Envelope{
		Method:  MethodError,
		Payload: &Payload{Code: e.Code, Message: e.Message},
	}
}

func protocolError(code, format string, args ...interface{}) *ProtocolError {
	return &ProtocolError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// DecodeEnvelope decodes and validates one inbound frame. Every failure is a
// *ProtocolError.
func DecodeEnvelope(codec Codec, raw []byte) (*Envelope, error) {
	var env Envelope
	if err := codec.Unmarshal(raw, &env); err != nil {
		return nil, protocolError(CodeMalformedEnvelope, "cannot decode %s envelope", codec.Name())
	}
	if env.Method == "" {
		return nil, protocolError(CodeMalformedEnvelope, "missing method")
	}
	if verr := validation.ValidateStruct(&env); verr != nil {
		return nil, protocolError(CodeUnknownMethod, "unknown method %q", env.Method)
	}

	if env.Payload == nil || env.Payload.Channel == "" {
		return nil, protocolError(CodeMissingChannel, "%s requires a channel", env.Method)
	}
	if !validation.ValidChannel(env.Payload.Channel) {
		return nil, protocolError(CodeInvalidChannel, "invalid channel name")
	}
	if env.Method == MethodPublish && env.Payload.Message == "" {
		return nil, protocolError(CodeMissingMessage, "publish requires a message")
	}

	return &env, nil
}

// publishEnvelope builds the outbound copy of a publish request. Only routing
// fields are taken from the client; the originator and timestamp are stamped.
func publishEnvelope(in *Payload, from Identity, now time.Time) *Envelope {
	ts := now.UTC()
	return &Envelope{
		Method: MethodPublish,
		Payload: &Payload{
			Channel:      in.Channel,
			Message:      in.Message,
			Organization: in.Organization,
			Team:         in.Team,
			Recipient:    in.Recipient,
			User:         from.Ref(),
			CreatedAt:    &ts,
		},
	}
}

// presenceEnvelope builds an online/offline notification for channel.
func presenceEnvelope(channel string, who Identity, online bool) *Envelope {
	return &Envelope{
		Method: MethodPublish,
		Payload: &Payload{
			Channel:  channel,
			User:     who.Ref(),
			IsOnline: &online,
		},
	}
}
