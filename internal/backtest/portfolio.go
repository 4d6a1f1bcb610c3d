package backtest

import (
	"log/slog"
	"time"
)

// portfolio is the discrete-share simulation state: a cash balance and a
// share count. Owned exclusively by the simulator; strategies never touch
// it.
type portfolio struct {
	cash   float64
	shares float64
	trades []TradeRecord
	log    *slog.Logger
}

func newPortfolio(initialCash float64, log *slog.Logger) *portfolio {
	return &portfolio{cash: initialCash, log: log}
}

// value is the mark-to-market portfolio value at the given price.
func (p *portfolio) value(price float64) float64 {
	return p.cash + p.shares*price
}

// buy executes at price for qty shares if sufficient cash exists.
// No partial fills, no margin.
func (p *portfolio) buy(ts time.Time, price, qty float64) bool {
	cost := price * qty
	if p.cash < cost {
		return false
	}
	p.cash -= cost
	p.shares += qty
	p.trades = append(p.trades, TradeRecord{TS: ts, Action: "BUY", Qty: qty, Price: price})
	p.log.Info("buy", slog.Time("ts", ts), slog.Float64("qty", qty),
		slog.Float64("price", price), slog.Float64("cash", p.cash))
	return true
}

// sellAll liquidates the entire share position at price.
func (p *portfolio) sellAll(ts time.Time, price float64) bool {
	if p.shares <= 0 {
		return false
	}
	qty := p.shares
	p.cash += qty * price
	p.shares = 0
	p.trades = append(p.trades, TradeRecord{TS: ts, Action: "SELL", Qty: qty, Price: price})
	p.log.Info("sell all", slog.Time("ts", ts), slog.Float64("qty", qty),
		slog.Float64("price", price), slog.Float64("cash", p.cash))
	return true
}
