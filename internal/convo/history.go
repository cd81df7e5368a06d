package convo

// Role identifies the author of a history entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the conversation history.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// History is the ordered, append-only record of a session's exchanges. The
// system directive is never part of it; it is supplied per invocation as a
// fixed preamble.
type History struct {
	messages []Message
}

// Append adds a message at the end of the history.
func (h *History) Append(role Role, content string) {
	h.messages = append(h.messages, Message{Role: role, Content: content})
}

// Messages returns a copy of the history in order.
func (h *History) Messages() []Message {
	out := make([]Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// Len reports the number of entries.
func (h *History) Len() int {
	return len(h.messages)
}
