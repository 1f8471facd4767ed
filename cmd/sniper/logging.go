package main

import (
	"log"

	"github.com/misterhughesdale-arch/gitSniper-sub000/internal/jsonl"
)

type sniperLogEvent struct {
	TsMs  int64  `json:"ts_ms"`
	Event string `json:"event"`

	Mode string `json:"mode,omitempty"` // dry | live

	SessionID string `json:"session_id,omitempty"`
	Program   string `json:"program,omitempty"`
	Wallet    string `json:"wallet,omitempty"`

	// Strategy knobs echoed for replay.
	BuyAmountSol     float64 `json:"buy_amount_sol,omitempty"`
	EntrySlippageBps int64   `json:"entry_slippage_bps,omitempty"`
	ExitSlippageBps  int64   `json:"exit_slippage_bps,omitempty"`
	WindowMs         int64   `json:"window_ms,omitempty"`
	LullMs           int64   `json:"lull_ms,omitempty"`
	RatioThreshold   float64 `json:"ratio_threshold,omitempty"`
	MaxHoldMs        int64   `json:"max_hold_ms,omitempty"`
	CooldownMs       int64   `json:"cooldown_ms,omitempty"`
	RatioMode        string  `json:"ratio_mode,omitempty"`

	// Session summary.
	SlotsSeen        uint64 `json:"slots_seen,omitempty"`
	LaunchesSeen     int    `json:"launches_seen,omitempty"`
	TradesSeen       int    `json:"trades_seen,omitempty"`
	EntriesSubmitted int    `json:"entries_submitted,omitempty"`
	ExitsSubmitted   int    `json:"exits_submitted,omitempty"`

	EnableTrading bool   `json:"enable_trading,omitempty"`
	Ok            bool   `json:"ok,omitempty"`
	Err           string `json:"err,omitempty"`

	UptimeMs int64 `json:"uptime_ms,omitempty"`
}

func sniperMode(enableTrading bool) string {
	if enableTrading {
		return "live"
	}
	return "dry"
}

func logSniperEvent(w *jsonl.Writer, ev sniperLogEvent) {
	if w == nil {
		return
	}
	if err := w.Write(ev); err != nil {
		log.Printf("[warn] journal write failed: %v", err)
	}
}
