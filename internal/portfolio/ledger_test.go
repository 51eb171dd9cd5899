package portfolio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "riskledger/internal/errors"
	"riskledger/internal/models"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func fill(side models.Side, qty int, price, comm float64) models.Fill {
	return models.Fill{
		Date:       day(0),
		Symbol:     "spy.us",
		Side:       side,
		Qty:        qty,
		Price:      price,
		Commission: comm,
	}
}

func TestNewLedgerRequiresPositiveCash(t *testing.T) {
	_, err := NewLedger(0)
	require.ErrorIs(t, err, apperrors.ErrConfigInvalid)

	_, err = NewLedger(-100)
	require.ErrorIs(t, err, apperrors.ErrConfigInvalid)
}

func TestApplyFillRoundTrip(t *testing.T) {
	ledger, err := NewLedger(100_000)
	require.NoError(t, err)

	require.NoError(t, ledger.ApplyFill(fill(models.SideBuy, 25, 100, 1)))

	pos := ledger.GetPosition("spy.us")
	assert.Equal(t, 25, pos.Qty)
	assert.Equal(t, 100.0, pos.AvgCost)
	assert.Equal(t, 97_499.0, ledger.Cash())

	require.NoError(t, ledger.ApplyFill(fill(models.SideSell, 25, 110, 1)))

	assert.Equal(t, 0, pos.Qty)
	assert.Equal(t, 0.0, pos.AvgCost)
	assert.Equal(t, 100_248.0, ledger.Cash())
	assert.Equal(t, 249.0, ledger.RealizedPnL())
	assert.Len(t, ledger.Fills(), 2)
}

func TestBuyClampedToAffordableQuantity(t *testing.T) {
	ledger, err := NewLedger(5_000)
	require.NoError(t, err)

	require.NoError(t, ledger.ApplyFill(fill(models.SideBuy, 1000, 100, 0)))

	pos := ledger.GetPosition("spy.us")
	assert.Equal(t, 50, pos.Qty)
	assert.Equal(t, 0.0, ledger.Cash())

	// history records what was accepted, not what was asked for
	fills := ledger.Fills()
	require.Len(t, fills, 1)
	assert.Equal(t, 50, fills[0].Qty)
}

func TestBuyDroppedWhenNothingAffordable(t *testing.T) {
	ledger, err := NewLedger(50)
	require.NoError(t, err)

	require.NoError(t, ledger.ApplyFill(fill(models.SideBuy, 10, 100, 1)))

	assert.Equal(t, 50.0, ledger.Cash())
	assert.Equal(t, 0, ledger.GetPosition("spy.us").Qty)
	assert.Empty(t, ledger.Fills())
}

func TestSellCappedAtHeldQuantity(t *testing.T) {
	ledger, err := NewLedger(10_000)
	require.NoError(t, err)

	require.NoError(t, ledger.ApplyFill(fill(models.SideBuy, 3, 100, 0)))
	require.NoError(t, ledger.ApplyFill(fill(models.SideSell, 10, 100, 0)))

	pos := ledger.GetPosition("spy.us")
	assert.Equal(t, 0, pos.Qty)
	assert.Equal(t, 10_000.0, ledger.Cash())

	fills := ledger.Fills()
	require.Len(t, fills, 2)
	assert.Equal(t, 3, fills[1].Qty)
}

func TestSellDroppedWhenNothingHeld(t *testing.T) {
	ledger, err := NewLedger(10_000)
	require.NoError(t, err)

	require.NoError(t, ledger.ApplyFill(fill(models.SideSell, 5, 100, 1)))

	assert.Equal(t, 10_000.0, ledger.Cash())
	assert.Equal(t, 0.0, ledger.RealizedPnL())
	assert.Empty(t, ledger.Fills())
}

func TestApplyFillRejectsBadRequests(t *testing.T) {
	ledger, err := NewLedger(10_000)
	require.NoError(t, err)

	err = ledger.ApplyFill(fill(models.SideBuy, 0, 100, 0))
	assert.ErrorIs(t, err, apperrors.ErrInvalidFill)

	err = ledger.ApplyFill(fill(models.SideBuy, -5, 100, 0))
	assert.ErrorIs(t, err, apperrors.ErrInvalidFill)

	err = ledger.ApplyFill(fill(models.Side("HOLD"), 10, 100, 0))
	assert.ErrorIs(t, err, apperrors.ErrInvalidFill)

	// contract violations leave no trace
	assert.Equal(t, 10_000.0, ledger.Cash())
	assert.Empty(t, ledger.Fills())
}

func TestAvgCostIsQuantityWeighted(t *testing.T) {
	ledger, err := NewLedger(100_000)
	require.NoError(t, err)

	require.NoError(t, ledger.ApplyFill(fill(models.SideBuy, 10, 100, 0)))
	require.NoError(t, ledger.ApplyFill(fill(models.SideBuy, 30, 120, 0)))

	pos := ledger.GetPosition("spy.us")
	assert.Equal(t, 40, pos.Qty)
	assert.InDelta(t, 115.0, pos.AvgCost, 1e-9)
}

func TestSnapshotIsPure(t *testing.T) {
	ledger, err := NewLedger(100_000)
	require.NoError(t, err)
	require.NoError(t, ledger.ApplyFill(fill(models.SideBuy, 25, 100, 1)))

	prices := map[string]float64{"spy.us": 110}
	first := ledger.Snapshot(day(1), prices)
	second := ledger.Snapshot(day(1), prices)

	assert.Equal(t, first, second)
	assert.Equal(t, 97_499.0, ledger.Cash())

	assert.Equal(t, 2_750.0, first.MarketValue)
	assert.Equal(t, 100_249.0, first.Equity)
	assert.InDelta(t, 250.0, first.UnrealizedPnL, 1e-9)
	assert.Equal(t, 2_750.0, first.GrossExposure)
	assert.Equal(t, 2_750.0, first.NetExposure)
}

// A held symbol absent from the price map is valued at zero. Whether that
// should instead fail or carry the last known price forward is an open
// question; this pins the current behavior.
func TestSnapshotMissingPriceValuesPositionAtZero(t *testing.T) {
	ledger, err := NewLedger(100_000)
	require.NoError(t, err)
	require.NoError(t, ledger.ApplyFill(fill(models.SideBuy, 25, 100, 0)))

	snap := ledger.Snapshot(day(1), map[string]float64{})

	assert.Equal(t, 0.0, snap.MarketValue)
	assert.Equal(t, ledger.Cash(), snap.Equity)
	assert.InDelta(t, -2_500.0, snap.UnrealizedPnL, 1e-9)
}

func TestPositionsIncludeLazyZeroPositions(t *testing.T) {
	ledger, err := NewLedger(1_000)
	require.NoError(t, err)

	pos := ledger.GetPosition("aapl.us")
	assert.Equal(t, 0, pos.Qty)
	assert.Equal(t, 0.0, pos.AvgCost)

	positions := ledger.Positions()
	require.Len(t, positions, 1)
	assert.Equal(t, "aapl.us", positions[0].Symbol)
}
