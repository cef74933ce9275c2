// Package session keeps per-visitor cart state outside the relational store.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("session: cart not found")

type Line struct {
	ID        string         `json:"id"`
	ProductID uuid.UUID      `json:"product_id"`
	Quantity  int            `json:"quantity"`
	Options   map[string]any `json:"options,omitempty"`
	AddedAt   time.Time      `json:"added_at"`
}

type Cart struct {
	Lines     []Line    `json:"lines"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Cart) Find(lineID string) int {
	for i := range c.Lines {
		if c.Lines[i].ID == lineID {
			return i
		}
	}
	return -1
}

func (c *Cart) Remove(i int) {
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
}

// Store persists a cart per session. Each session has a single writer.
type Store interface {
	Load(ctx context.Context, sessionID string) (*Cart, error)
	Save(ctx context.Context, sessionID string, cart *Cart) error
	Delete(ctx context.Context, sessionID string) error
}

func Key(sessionID string) string {
	return "cart:" + sessionID
}
