package session

import (
	"log"
	"sync"

	"tutorbot/internal/constants"
)

// SessionManager keeps the per-chat input state: what the next free-text
// message from that chat means. It holds nothing that must survive a restart.
type SessionManager struct {
	userStates     map[int64]string // key: chatID
	userStateMutex sync.RWMutex
}

// NewSessionManager creates an empty SessionManager.
func NewSessionManager() *SessionManager {
	return &SessionManager{
		userStates: make(map[int64]string),
	}
}

// GetState returns the chat's input state, STATE_IDLE when none is set.
func (sm *SessionManager) GetState(chatID int64) string {
	sm.userStateMutex.RLock()
	defer sm.userStateMutex.RUnlock()
	state, ok := sm.userStates[chatID]
	if !ok {
		return constants.STATE_IDLE
	}
	return state
}

// SetState records the input the chat is expected to send next.
func (sm *SessionManager) SetState(chatID int64, state string) {
	sm.userStateMutex.Lock()
	defer sm.userStateMutex.Unlock()
	if state == constants.STATE_IDLE {
		delete(sm.userStates, chatID)
	} else {
		sm.userStates[chatID] = state
	}
	log.Printf("SessionManager.SetState: chatID %d -> %s", chatID, state)
}

// ClearState resets the chat to STATE_IDLE.
func (sm *SessionManager) ClearState(chatID int64) {
	sm.userStateMutex.Lock()
	defer sm.userStateMutex.Unlock()
	delete(sm.userStates, chatID)
}

// TakeState returns the current state and resets it to STATE_IDLE in one step,
// so a prompt is consumed by exactly one reply.
func (sm *SessionManager) TakeState(chatID int64) string {
	sm.userStateMutex.Lock()
	defer sm.userStateMutex.Unlock()
	state, ok := sm.userStates[chatID]
	if !ok {
		return constants.STATE_IDLE
	}
	delete(sm.userStates, chatID)
	return state
}
