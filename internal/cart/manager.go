package cart

import (
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jmflorece/tindahan-pos/pkg/db/models"
	pkgerrors "github.com/jmflorece/tindahan-pos/pkg/errors"
)

// Snapshot is a point-in-time view of one terminal's cart.
type Snapshot struct {
	TerminalID uuid.UUID       `json:"terminal_id"`
	Items      []Item          `json:"items"`
	Total      decimal.Decimal `json:"total"`
}

// Manager owns every terminal's in-memory cart. Carts never touch the
// database; a sale snapshot is written only at finalization.
type Manager struct {
	mu    sync.Mutex
	carts map[uuid.UUID]*cart
}

func NewManager() *Manager {
	return &Manager{carts: make(map[uuid.UUID]*cart)}
}

func (m *Manager) get(terminalID uuid.UUID) *cart {
	c, ok := m.carts[terminalID]
	if !ok {
		c = &cart{}
		m.carts[terminalID] = c
	}
	return c
}

// Add puts qty units of the product into the terminal's cart, merging into an
// existing line for the same product.
func (m *Manager) Add(terminalID uuid.UUID, product *models.Product, qty int) (Snapshot, error) {
	if product == nil {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "product is required")
	}
	if qty < 1 {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.get(terminalID)
	c.add(product, qty)
	return m.snapshotLocked(terminalID, c), nil
}

// AdjustQuantity applies a signed delta to the product's line. Reaching zero
// removes the line.
func (m *Manager) AdjustQuantity(terminalID, productID uuid.UUID, delta int) (Snapshot, error) {
	if delta == 0 {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "delta cannot be zero")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.get(terminalID)
	if !c.adjust(productID, delta) {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not in cart")
	}
	return m.snapshotLocked(terminalID, c), nil
}

// Remove drops the product's line regardless of quantity.
func (m *Manager) Remove(terminalID, productID uuid.UUID) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.get(terminalID)
	if !c.remove(productID) {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not in cart")
	}
	return m.snapshotLocked(terminalID, c), nil
}

// Clear empties the terminal's cart.
func (m *Manager) Clear(terminalID uuid.UUID) Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.get(terminalID)
	c.clear()
	return m.snapshotLocked(terminalID, c)
}

// Get returns the current cart contents.
func (m *Manager) Get(terminalID uuid.UUID) Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked(terminalID, m.get(terminalID))
}

// IsEmpty reports whether the terminal's cart has no lines.
func (m *Manager) IsEmpty(terminalID uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.get(terminalID).items) == 0
}

func (m *Manager) snapshotLocked(terminalID uuid.UUID, c *cart) Snapshot {
	return Snapshot{
		TerminalID: terminalID,
		Items:      c.snapshot(),
		Total:      c.total(),
	}
}
