// Package portfolio provides average-cost accounting over a stream of fills.
package portfolio

import (
	"math"
	"sort"
	"time"

	apperrors "riskledger/internal/errors"
	"riskledger/internal/models"
)

// Ledger owns cash and per-symbol positions and applies fills to them.
// It is single-currency and written to generalize to multi-symbol, with
// average-cost tracking for realized PnL attribution.
//
// A Ledger is owned by exactly one simulation run; it is not safe for
// concurrent use.
type Ledger struct {
	initialCash float64
	cash        float64
	positions   map[string]*models.Position
	realizedPnL float64
	fills       []models.Fill
}

// NewLedger creates a ledger funded with initialCash.
func NewLedger(initialCash float64) (*Ledger, error) {
	if initialCash <= 0 {
		return nil, apperrors.NewConfigError("initial_cash", "must be positive")
	}
	return &Ledger{
		initialCash: initialCash,
		cash:        initialCash,
		positions:   make(map[string]*models.Position),
	}, nil
}

// GetPosition returns the position for symbol, creating a zero position
// on first reference.
func (l *Ledger) GetPosition(symbol string) *models.Position {
	pos, ok := l.positions[symbol]
	if !ok {
		pos = &models.Position{Symbol: symbol}
		l.positions[symbol] = pos
	}
	return pos
}

// ApplyFill applies a fill to the ledger.
//
// A BUY that costs more than available cash is clamped to the largest
// affordable integer quantity, and dropped outright when nothing is
// affordable. A SELL is capped at the held quantity and dropped when
// nothing is held. Neither case is an error; the fill recorded into
// history carries the accepted quantity, which callers must treat as
// ground truth.
func (l *Ledger) ApplyFill(fill models.Fill) error {
	if fill.Qty <= 0 {
		return &apperrors.FillError{
			Symbol: fill.Symbol,
			Side:   string(fill.Side),
			Qty:    fill.Qty,
			Reason: "quantity must be positive",
		}
	}
	if !fill.Side.Valid() {
		return &apperrors.FillError{
			Symbol: fill.Symbol,
			Side:   string(fill.Side),
			Qty:    fill.Qty,
			Reason: "side must be BUY or SELL",
		}
	}

	pos := l.GetPosition(fill.Symbol)
	qty := fill.Qty
	px := fill.Price
	comm := fill.Commission

	if fill.Side == models.SideBuy {
		totalCost := float64(qty)*px + comm
		if totalCost > l.cash {
			qty = int(math.Floor((l.cash - comm) / px))
			totalCost = float64(qty)*px + comm
			// the floor can land one high when the division rounds up
			for qty > 0 && totalCost > l.cash {
				qty--
				totalCost = float64(qty)*px + comm
			}
			if qty <= 0 {
				return nil
			}
		}
		newQty := pos.Qty + qty
		if newQty == 0 {
			pos.AvgCost = 0
		} else {
			pos.AvgCost = (pos.AvgCost*float64(pos.Qty) + px*float64(qty)) / float64(newQty)
		}
		pos.Qty = newQty
		l.cash -= totalCost
	} else {
		sellQty := qty
		if pos.Qty < sellQty {
			sellQty = pos.Qty
		}
		if sellQty <= 0 {
			return nil
		}
		l.realizedPnL += (px-pos.AvgCost)*float64(sellQty) - comm
		pos.Qty -= sellQty
		if pos.Qty == 0 {
			pos.AvgCost = 0
		}
		l.cash += float64(sellQty)*px - comm
		qty = sellQty
	}

	l.fills = append(l.fills, models.Fill{
		Date:       fill.Date,
		Symbol:     fill.Symbol,
		Side:       fill.Side,
		Qty:        qty,
		Price:      px,
		Commission: comm,
	})
	return nil
}

// Snapshot marks the ledger to the supplied prices and returns an
// immutable point-in-time summary. It does not mutate the ledger.
//
// A held symbol missing from prices is valued at zero. Positions are
// summed in symbol order so repeated runs produce identical floats.
func (l *Ledger) Snapshot(date time.Time, prices map[string]float64) models.Snapshot {
	var gross, net, mvTotal, unreal float64

	for _, sym := range l.symbols() {
		pos := l.positions[sym]
		px := prices[sym]
		mv := pos.MarketValue(px)
		mvTotal += mv
		gross += math.Abs(mv)
		net += mv
		if pos.Qty != 0 {
			unreal += (px - pos.AvgCost) * float64(pos.Qty)
		}
	}

	return models.Snapshot{
		Date:          date,
		Cash:          l.cash,
		MarketValue:   mvTotal,
		Equity:        l.cash + mvTotal,
		RealizedPnL:   l.realizedPnL,
		UnrealizedPnL: unreal,
		GrossExposure: gross,
		NetExposure:   net,
	}
}

// InitialCash returns the cash the ledger was funded with.
func (l *Ledger) InitialCash() float64 {
	return l.initialCash
}

// Cash returns the current cash balance.
func (l *Ledger) Cash() float64 {
	return l.cash
}

// RealizedPnL returns cumulative realized PnL across all sells.
func (l *Ledger) RealizedPnL() float64 {
	return l.realizedPnL
}

// Fills returns the ordered history of accepted fills.
func (l *Ledger) Fills() []models.Fill {
	out := make([]models.Fill, len(l.fills))
	copy(out, l.fills)
	return out
}

// Positions returns all positions ordered by symbol, including zero
// positions that were referenced during the run.
func (l *Ledger) Positions() []models.Position {
	syms := l.symbols()
	out := make([]models.Position, 0, len(syms))
	for _, sym := range syms {
		out = append(out, *l.positions[sym])
	}
	return out
}

func (l *Ledger) symbols() []string {
	syms := make([]string, 0, len(l.positions))
	for sym := range l.positions {
		syms = append(syms, sym)
	}
	sort.Strings(syms)
	return syms
}
