package state

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

const (
	userKeyPrefix    = "telegram:user:"
	sessionKeyPrefix = "telegram:session:"
)

// Manager keeps per-user chat state and the reverse session -> user index
// in a key-value store.
type Manager struct {
	storage Storage
	now     func() time.Time
}

// NewManager creates a new state manager
func NewManager(storage Storage) *Manager {
	return &Manager{
		storage: storage,
		now:     time.Now,
	}
}

func userKey(userID int64) string {
	return userKeyPrefix + strconv.FormatInt(userID, 10)
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

// Get returns the user's state; a user without one gets a fresh state.
func (m *Manager) Get(ctx context.Context, userID int64) (*ChatState, error) {
	raw, ok, err := m.storage.Get(ctx, userKey(userID))
	if err != nil {
		return nil, fmt.Errorf("get chat state from storage: %w", err)
	}
	if !ok {
		return &ChatState{UserID: userID}, nil
	}

	var st ChatState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("unmarshal chat state: %w", err)
	}
	return &st, nil
}

// Save stores st and indexes its session.
func (m *Manager) Save(ctx context.Context, st *ChatState) error {
	st.UpdatedAt = m.now()

	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal chat state: %w", err)
	}

	if err := m.storage.Set(ctx, userKey(st.UserID), raw); err != nil {
		return fmt.Errorf("save chat state to storage: %w", err)
	}

	if st.SessionID != "" {
		if err := m.storage.Set(ctx, sessionKey(st.SessionID), []byte(strconv.FormatInt(st.UserID, 10))); err != nil {
			return fmt.Errorf("index session: %w", err)
		}
	}

	return nil
}

// Delete removes the user's state and its session index.
func (m *Manager) Delete(ctx context.Context, userID int64) error {
	st, err := m.Get(ctx, userID)
	if err != nil {
		return err
	}

	if st.SessionID != "" {
		if err := m.storage.Delete(ctx, sessionKey(st.SessionID)); err != nil {
			return fmt.Errorf("delete session index: %w", err)
		}
	}

	if err := m.storage.Delete(ctx, userKey(userID)); err != nil {
		return fmt.Errorf("delete chat state from storage: %w", err)
	}
	return nil
}

// BySession finds the state owning sessionID.
func (m *Manager) BySession(ctx context.Context, sessionID string) (*ChatState, bool, error) {
	raw, ok, err := m.storage.Get(ctx, sessionKey(sessionID))
	if err != nil || !ok {
		return nil, false, err
	}

	userID, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return nil, false, fmt.Errorf("parse session index: %w", err)
	}

	st, err := m.Get(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	if st.SessionID != sessionID {
		return nil, false, nil
	}
	return st, true, nil
}
