package model

import "fmt"

// Conversation is the ordered log of turns replayed to the chat service on
// every call. It has a single writer and is never persisted.
type Conversation struct {
	messages []Message
}

func NewConversation() *Conversation {
	return &Conversation{}
}

func (c *Conversation) Append(msgs ...Message) {
	c.messages = append(c.messages, msgs...)
}

// Snapshot returns the current turns. The slice shares storage with the
// conversation; callers must not modify it.
func (c *Conversation) Snapshot() []Message {
	return c.messages[:len(c.messages):len(c.messages)]
}

func (c *Conversation) Len() int {
	return len(c.messages)
}

// Truncate drops every turn at index n and beyond. It is used to roll back a
// failed interaction.
func (c *Conversation) Truncate(n int) error {
	if n < 0 || n > len(c.messages) {
		return fmt.Errorf("truncate out of range: %d (len %d)", n, len(c.messages))
	}
	clear(c.messages[n:])
	c.messages = c.messages[:n]
	return nil
}

// Last returns the most recent turn, if any.
func (c *Conversation) Last() (Message, bool) {
	if len(c.messages) == 0 {
		return Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}
