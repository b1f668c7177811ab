package checkout

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jmflorece/tindahan-pos/pkg/enums"
)

// Session is the checkout state for one terminal. A terminal with no stored
// session is Idle.
type Session struct {
	TerminalID    uuid.UUID           `json:"terminal_id"`
	State         enums.CheckoutState `json:"state"`
	PaymentMethod enums.PaymentMethod `json:"payment_method,omitempty"`
	GatewayStatus enums.GatewayStatus `json:"gateway_status,omitempty"`
	GatewayRef    string              `json:"gateway_reference,omitempty"`
	GatewayNote   string              `json:"gateway_note,omitempty"`
	SaleID        *uuid.UUID          `json:"sale_id,omitempty"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

type sessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[uuid.UUID]*Session)}
}

func (s *sessionStore) get(terminalID uuid.UUID) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(terminalID)
}

func (s *sessionStore) getLocked(terminalID uuid.UUID) Session {
	if session, ok := s.sessions[terminalID]; ok {
		return *session
	}
	return Session{TerminalID: terminalID, State: enums.CheckoutStateIdle}
}

// update applies fn to the terminal's session under the store lock. fn
// returning an error leaves the stored session untouched.
func (s *sessionStore) update(terminalID uuid.UUID, fn func(session *Session) error) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.getLocked(terminalID)
	if err := fn(&session); err != nil {
		return s.getLocked(terminalID), err
	}
	session.TerminalID = terminalID
	session.UpdatedAt = time.Now().UTC()

	if session.State == enums.CheckoutStateIdle {
		delete(s.sessions, terminalID)
		return session, nil
	}
	stored := session
	s.sessions[terminalID] = &stored
	return session, nil
}
