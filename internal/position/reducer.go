package position

import "math"

// Reduce is the pure transition function. Given the machine and one
// event it returns the next machine and the effects to execute. It
// never mutates its input and never does I/O.
func Reduce(m Machine, cfg Config, ev Event) (Machine, []Effect) {
	cfg = cfg.withDefaults()
	switch m.State {
	case StateIdle:
		return reduceIdle(m, cfg, ev)
	case StateEntering:
		return reduceEntering(m, cfg, ev)
	case StateOpen, StatePartiallyExited:
		return reduceHolding(m, cfg, ev)
	case StateClosing:
		return reduceClosing(m, cfg, ev)
	default:
		return m, nil
	}
}

func reduceIdle(m Machine, cfg Config, ev Event) (Machine, []Effect) {
	launch, ok := ev.(LaunchSeen)
	if !ok {
		return m, nil
	}
	if !m.LastSettledAt.IsZero() && launch.At.Sub(m.LastSettledAt) < cfg.Cooldown {
		return m, nil
	}

	next := m
	next.State = StateEntering
	next.Pos = Position{
		ID:      launch.PositionID,
		Mint:    launch.Mint,
		Creator: launch.Creator,
	}
	effects := []Effect{
		LogTransition{PositionID: launch.PositionID, From: StateIdle, To: StateEntering, Reason: "launch", At: launch.At},
		SubmitEntry{
			PositionID:  launch.PositionID,
			Mint:        launch.Mint,
			Creator:     launch.Creator,
			SolAmount:   cfg.BuyAmountSol,
			SlippageBps: cfg.EntrySlippageBps,
		},
	}
	return next, effects
}

// reduceEntering waits for the entry submission to resolve. No exit
// evaluation can run here: Tick and trade-driven events fall through,
// which is the structural guard against exiting a position that does
// not exist yet.
func reduceEntering(m Machine, cfg Config, ev Event) (Machine, []Effect) {
	switch evt := ev.(type) {
	case EntryResult:
		if !evt.OK {
			next := m
			next.State = StateIdle
			next.Pos = Position{}
			next.LastSettledAt = evt.At
			return next, []Effect{
				LogTransition{PositionID: m.Pos.ID, From: StateEntering, To: StateFailed, Reason: "submit: " + evt.Err, At: evt.At},
				LogTransition{PositionID: m.Pos.ID, From: StateFailed, To: StateIdle, Reason: "auto", At: evt.At},
			}
		}
		next := m
		next.State = StateOpen
		next.Pos.EntrySol = evt.SolSpent
		next.Pos.TokenBalance = evt.TokensBought
		next.Pos.EnteredAt = evt.At
		if !evt.Creator.IsZero() {
			// The curve state is the authority on the creator; the
			// launch heuristic may have guessed the wrong signer.
			next.Pos.Creator = evt.Creator
		}
		return next, []Effect{
			LogTransition{PositionID: m.Pos.ID, From: StateEntering, To: StateOpen, Reason: "entry confirmed", At: evt.At},
		}
	case ShutdownRequested:
		// Nothing on-chain to unwind yet; release the slot.
		next := m
		next.State = StateIdle
		next.Pos = Position{}
		next.LastSettledAt = evt.At
		return next, []Effect{
			LogTransition{PositionID: m.Pos.ID, From: StateEntering, To: StateIdle, Reason: ReasonShutdown, At: evt.At},
		}
	}
	return m, nil
}

func reduceHolding(m Machine, cfg Config, ev Event) (Machine, []Effect) {
	switch evt := ev.(type) {
	case Tick:
		return evaluateExit(m, cfg, evt)
	case ExitResult:
		if !evt.Partial {
			return m, nil
		}
		next := m
		next.Pos.PendingPartialSell = 0
		if evt.OK {
			next.Pos.TokenBalance -= evt.TokensSold
			if next.Pos.TokenBalance < 0 {
				next.Pos.TokenBalance = 0
			}
			return next, []Effect{
				LogTransition{PositionID: m.Pos.ID, From: m.State, To: m.State, Reason: "partial exit confirmed", At: evt.At},
			}
		}
		// A failed partial leaves the full balance in place; the
		// momentum exits still cover it.
		return next, []Effect{
			LogTransition{PositionID: m.Pos.ID, From: m.State, To: m.State, Reason: "partial exit failed: " + evt.Err, At: evt.At},
		}
	case ShutdownRequested:
		next := m
		next.State = StateClosing
		next.Pos.ExitReason = ReasonShutdown
		return next, []Effect{
			LogTransition{PositionID: m.Pos.ID, From: m.State, To: StateClosing, Reason: ReasonShutdown, At: evt.At},
			SubmitExit{
				PositionID:  m.Pos.ID,
				Mint:        m.Pos.Mint,
				Creator:     m.Pos.Creator,
				TokenAmount: settledBalance(m.Pos),
				SlippageBps: cfg.ExitSlippageBps,
				Reason:      ReasonShutdown,
			},
		}
	}
	return m, nil
}

// evaluateExit applies the exit policy in its fixed order: lull, ratio,
// timeout. The first satisfied condition names the exit even when
// several hold simultaneously. Only when no full exit fires is the
// breakeven partial considered.
//
// An empty window reads as ratio 0 but carries no pressure signal, so
// the ratio exit waits for at least one classified trade; a mint that
// never trades again is covered by the entry-anchored lull instead.
func evaluateExit(m Machine, cfg Config, tick Tick) (Machine, []Effect) {
	reason := ""
	switch {
	case sinceLastBuy(m, tick) >= cfg.LullThreshold.Seconds():
		reason = ReasonLull
	case tick.Momentum.BuyCount+tick.Momentum.SellCount > 0 &&
		tick.Momentum.Ratio < cfg.RatioThreshold:
		reason = ReasonRatio
	case tick.At.Sub(m.Pos.EnteredAt) >= cfg.MaxHold:
		reason = ReasonTimeout
	}

	if reason != "" {
		next := m
		next.State = StateClosing
		next.Pos.ExitReason = reason
		return next, []Effect{
			LogTransition{PositionID: m.Pos.ID, From: m.State, To: StateClosing, Reason: reason, At: tick.At},
			SubmitExit{
				PositionID:  m.Pos.ID,
				Mint:        m.Pos.Mint,
				Creator:     m.Pos.Creator,
				TokenAmount: settledBalance(m.Pos),
				SlippageBps: cfg.ExitSlippageBps,
				Reason:      reason,
			},
		}
	}

	if m.State == StateOpen && !m.Pos.PartialExitDone && tick.HasMarketValue &&
		tick.MarketValueSol >= m.Pos.EntrySol*cfg.BreakevenMultiple {
		sellAmount := m.Pos.TokenBalance * cfg.PartialExitFraction
		next := m
		next.State = StatePartiallyExited
		next.Pos.PartialExitDone = true
		next.Pos.PendingPartialSell = sellAmount
		return next, []Effect{
			LogTransition{PositionID: m.Pos.ID, From: StateOpen, To: StatePartiallyExited, Reason: ReasonBreakeven, At: tick.At},
			SubmitExit{
				PositionID:  m.Pos.ID,
				Mint:        m.Pos.Mint,
				Creator:     m.Pos.Creator,
				TokenAmount: sellAmount,
				SlippageBps: cfg.EntrySlippageBps,
				Partial:     true,
				Reason:      ReasonBreakeven,
			},
		}
	}

	return m, nil
}

// sinceLastBuy measures the lull. Our own entry counts as activity, so
// a position that never sees a follow-up buy lulls out relative to its
// entry time, not to +Inf.
func sinceLastBuy(m Machine, tick Tick) float64 {
	s := tick.Momentum.SecondsSinceLastBuy
	if math.IsInf(s, 1) || tick.Momentum.LastBuyAt.Before(m.Pos.EnteredAt) {
		return tick.At.Sub(m.Pos.EnteredAt).Seconds()
	}
	return s
}

// settledBalance is what a full exit may sell: the held balance minus
// any partial sell still awaiting its result.
func settledBalance(p Position) float64 {
	b := p.TokenBalance - p.PendingPartialSell
	if b < 0 {
		return 0
	}
	return b
}

func reduceClosing(m Machine, cfg Config, ev Event) (Machine, []Effect) {
	res, ok := ev.(ExitResult)
	if !ok || res.Partial {
		return m, nil
	}

	next := m
	next.State = StateIdle
	next.Pos = Position{}
	next.LastSettledAt = res.At

	if !res.OK {
		return next, []Effect{
			LogTransition{PositionID: m.Pos.ID, From: StateClosing, To: StateFailed, Reason: "submit: " + res.Err, At: res.At},
			LogTransition{PositionID: m.Pos.ID, From: StateFailed, To: StateIdle, Reason: "auto", At: res.At},
		}
	}
	return next, []Effect{
		LogTransition{PositionID: m.Pos.ID, From: StateClosing, To: StateClosed, Reason: m.Pos.ExitReason, At: res.At},
		LogTransition{PositionID: m.Pos.ID, From: StateClosed, To: StateIdle, Reason: "auto", At: res.At},
	}
}
