package worker

// Event is the top-level webhook delivery shape. Only deliveries whose
// Object discriminator is "page" carry chat messages the pipeline handles.
type Event struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry groups the messaging events delivered for one page.
type Entry struct {
	ID        string      `json:"id"`
	Time      int64       `json:"time"`
	Messaging []Messaging `json:"messaging"`
}

// Messaging is one independent unit of work: a single user turn.
type Messaging struct {
	Sender    Participant `json:"sender"`
	Recipient Participant `json:"recipient"`
	Timestamp int64       `json:"timestamp"`
	Message   *Message    `json:"message,omitempty"`
	Postback  *Postback   `json:"postback,omitempty"`
}

// Participant identifies one side of the conversation by psid.
type Participant struct {
	ID string `json:"id"`
}

// Message is an inbound text message.
type Message struct {
	MID  string `json:"mid"`
	Text string `json:"text"`
}

// Postback is a button tap; its payload is routed like message text.
type Postback struct {
	Title   string `json:"title"`
	Payload string `json:"payload"`
}

const expectedObject = "page"

// flatten turns the nested entry/messaging arrays into a flat list of
// independently dispatchable units.
func (e Event) flatten() []Messaging {
	var units []Messaging
	for _, entry := range e.Entry {
		units = append(units, entry.Messaging...)
	}
	return units
}
