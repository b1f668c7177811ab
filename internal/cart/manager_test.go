package cart

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmflorece/tindahan-pos/pkg/db/models"
	pkgerrors "github.com/jmflorece/tindahan-pos/pkg/errors"
)

func testProduct(name string, price int64) *models.Product {
	return &models.Product{
		ID:    uuid.New(),
		SKU:   "SKU-" + name,
		Name:  name,
		Price: decimal.NewFromInt(price),
	}
}

func TestAddMergesSameProduct(t *testing.T) {
	m := NewManager()
	terminal := uuid.New()
	noodles := testProduct("Noodles", 15)

	_, err := m.Add(terminal, noodles, 2)
	require.NoError(t, err)
	snap, err := m.Add(terminal, noodles, 3)
	require.NoError(t, err)

	require.Len(t, snap.Items, 1)
	assert.Equal(t, 5, snap.Items[0].Quantity)
	assert.True(t, snap.Total.Equal(decimal.NewFromInt(75)))
}

func TestAddRejectsZeroQuantity(t *testing.T) {
	m := NewManager()

	_, err := m.Add(uuid.New(), testProduct("Soap", 40), 0)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestTotalMatchesLineSum(t *testing.T) {
	m := NewManager()
	terminal := uuid.New()

	_, err := m.Add(terminal, testProduct("A", 120), 2)
	require.NoError(t, err)
	snap, err := m.Add(terminal, testProduct("B", 90), 1)
	require.NoError(t, err)

	assert.True(t, snap.Total.Equal(decimal.NewFromInt(330)))
}

func TestAdjustQuantityRemovesAtZero(t *testing.T) {
	m := NewManager()
	terminal := uuid.New()
	bread := testProduct("Bread", 12)
	milk := testProduct("Milk", 85)

	_, err := m.Add(terminal, bread, 2)
	require.NoError(t, err)
	_, err = m.Add(terminal, milk, 1)
	require.NoError(t, err)

	snap, err := m.AdjustQuantity(terminal, bread.ID, -2)
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "Milk", snap.Items[0].Name)
	assert.True(t, snap.Total.Equal(decimal.NewFromInt(85)))
}

func TestAdjustQuantityBelowZeroRemoves(t *testing.T) {
	m := NewManager()
	terminal := uuid.New()
	bread := testProduct("Bread", 12)

	_, err := m.Add(terminal, bread, 1)
	require.NoError(t, err)

	snap, err := m.AdjustQuantity(terminal, bread.ID, -5)
	require.NoError(t, err)
	assert.Empty(t, snap.Items)
	assert.True(t, snap.Total.IsZero())
}

func TestAdjustQuantityUnknownProduct(t *testing.T) {
	m := NewManager()

	_, err := m.AdjustQuantity(uuid.New(), uuid.New(), 1)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestAdjustPreservesLineOrder(t *testing.T) {
	m := NewManager()
	terminal := uuid.New()
	first := testProduct("First", 10)
	second := testProduct("Second", 20)
	third := testProduct("Third", 30)

	for _, p := range []*models.Product{first, second, third} {
		_, err := m.Add(terminal, p, 1)
		require.NoError(t, err)
	}

	snap, err := m.AdjustQuantity(terminal, second.ID, 4)
	require.NoError(t, err)
	require.Len(t, snap.Items, 3)
	assert.Equal(t, "First", snap.Items[0].Name)
	assert.Equal(t, "Second", snap.Items[1].Name)
	assert.Equal(t, 5, snap.Items[1].Quantity)
	assert.Equal(t, "Third", snap.Items[2].Name)
}

func TestUnitPriceSnapshotIgnoresLaterEdits(t *testing.T) {
	m := NewManager()
	terminal := uuid.New()
	product := testProduct("Coffee", 11)

	_, err := m.Add(terminal, product, 3)
	require.NoError(t, err)

	product.Price = decimal.NewFromInt(999)

	snap := m.Get(terminal)
	assert.True(t, snap.Total.Equal(decimal.NewFromInt(33)))
}

func TestClearEmptiesSingleTerminal(t *testing.T) {
	m := NewManager()
	left := uuid.New()
	right := uuid.New()

	_, err := m.Add(left, testProduct("A", 10), 1)
	require.NoError(t, err)
	_, err = m.Add(right, testProduct("B", 20), 1)
	require.NoError(t, err)

	snap := m.Clear(left)
	assert.Empty(t, snap.Items)
	assert.False(t, m.IsEmpty(right))
}

func TestSnapshotIsACopy(t *testing.T) {
	m := NewManager()
	terminal := uuid.New()

	_, err := m.Add(terminal, testProduct("A", 10), 1)
	require.NoError(t, err)

	snap := m.Get(terminal)
	snap.Items[0].Quantity = 99

	again := m.Get(terminal)
	assert.Equal(t, 1, again.Items[0].Quantity)
}

func TestConcurrentAdds(t *testing.T) {
	m := NewManager()
	terminal := uuid.New()
	product := testProduct("Hot Item", 5)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Add(terminal, product, 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	snap := m.Get(terminal)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, 50, snap.Items[0].Quantity)
	assert.True(t, snap.Total.Equal(decimal.NewFromInt(250)))
}
