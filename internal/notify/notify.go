package notify

import (
	"context"
	"errors"
)

// ErrNotAddressable is returned by a channel when the recipient carries no
// address for it. The dispatcher treats it as a silent skip, not a failure.
var ErrNotAddressable = errors.New("recipient not addressable on this channel")

// Kind labels what a notice is about. Channels may use it to pick message
// templates; the dispatcher treats it as opaque.
type Kind string

const (
	KindOTP           Kind = "otp"
	KindAlert         Kind = "alert"
	KindQuoteResponse Kind = "quote_response"
)

// Recipient addresses one person across the channels they can be reached on.
// Channels skip recipients that lack their address type.
type Recipient struct {
	PhoneNumber string
	LineUserID  string
}

// Notice is a single outbound message fanned out to every recipient on
// every channel that can reach them.
type Notice struct {
	Kind       Kind
	Text       string
	Recipients []Recipient
}

// Channel is one delivery transport. Send failures are reported back to the
// dispatcher but never abort sibling deliveries.
type Channel interface {
	Name() string
	Send(ctx context.Context, recipient Recipient, notice Notice) error
}
