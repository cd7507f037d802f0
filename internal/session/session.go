// Package session stores per-chat conversation state for the bot wizard.
package session

import (
	"context"
	"time"
)

// DefaultTTL bounds how long an abandoned wizard is kept
const DefaultTTL = 24 * time.Hour

// State is the wizard position and the answers collected so far
type State struct {
	Step string            `json:"step"`
	Data map[string]string `json:"data,omitempty"`
}

// Get returns a data value or "" when unset
func (s *State) Get(key string) string {
	if s == nil || s.Data == nil {
		return ""
	}
	return s.Data[key]
}

// Put sets a data value
func (s *State) Put(key, value string) {
	if s.Data == nil {
		s.Data = make(map[string]string)
	}
	s.Data[key] = value
}

// Store persists State keyed by chat ID. Get returns nil, nil for an
// unknown chat.
type Store interface {
	Get(ctx context.Context, chatID int64) (*State, error)
	Set(ctx context.Context, chatID int64, state *State) error
	Clear(ctx context.Context, chatID int64) error
}

func clone(s *State) *State {
	c := &State{Step: s.Step}
	if s.Data != nil {
		c.Data = make(map[string]string, len(s.Data))
		for k, v := range s.Data {
			c.Data[k] = v
		}
	}
	return c
}
