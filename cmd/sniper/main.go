package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"

	"github.com/misterhughesdale-arch/gitSniper-sub000/internal/dotenv"
	"github.com/misterhughesdale-arch/gitSniper-sub000/internal/jsonl"
	"github.com/misterhughesdale-arch/gitSniper-sub000/internal/momentum"
	"github.com/misterhughesdale-arch/gitSniper-sub000/internal/position"
	"github.com/misterhughesdale-arch/gitSniper-sub000/internal/pumpfun"
	"github.com/misterhughesdale-arch/gitSniper-sub000/internal/state"
	"github.com/misterhughesdale-arch/gitSniper-sub000/internal/stream"
	"github.com/misterhughesdale-arch/gitSniper-sub000/internal/submit"
	"github.com/misterhughesdale-arch/gitSniper-sub000/internal/txwatch"
)

type args struct {
	wsURL         string
	rpcURL        string
	privateKeyB58 string

	buyAmountSol        float64
	entrySlippageBps    int64
	exitSlippageBps     int64
	breakevenMultiple   float64
	partialExitFraction float64

	window    time.Duration
	lull      time.Duration
	ratio     float64
	maxHold   time.Duration
	cooldown  time.Duration
	ratioMode momentum.RatioMode

	commitment     string
	pollInterval   time.Duration
	enableTrading  bool
	checkpointFile string
	outFile        string
	envFile        string
}

const defaultJournalFile = "./out/sniper.jsonl"

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	envFile := preScanEnvFile()
	if err := dotenv.Load(envFile); err != nil {
		log.Printf("[warn] %v", err)
	}

	parsed, err := parseArgs()
	if err != nil {
		log.Fatalf("[fatal] %v", err)
	}

	runStartedAt := time.Now()
	sessionID := uuid.NewString()

	journal := jsonl.New(parsed.outFile)
	stats := &sessionStats{inner: journal}
	if journal != nil {
		log.Printf("Journal: %s (JSONL)", journal.Path())
		defer func() {
			if err := journal.Close(); err != nil {
				log.Printf("[warn] journal close: %v", err)
			}
		}()
		defer func() {
			logSniperEvent(journal, sniperLogEvent{
				TsMs:             time.Now().UnixMilli(),
				Event:            "shutdown",
				Mode:             sniperMode(parsed.enableTrading),
				SessionID:        sessionID,
				SlotsSeen:        stats.slotsSeen(),
				LaunchesSeen:     stats.launches(),
				TradesSeen:       stats.trades(),
				EntriesSubmitted: stats.entries(),
				ExitsSubmitted:   stats.exits(),
				EnableTrading:    parsed.enableTrading,
				Ok:               true,
				UptimeMs:         time.Since(runStartedAt).Milliseconds(),
			})
		}()
		logSniperEvent(journal, sniperLogEvent{
			TsMs:             time.Now().UnixMilli(),
			Event:            "start",
			Mode:             sniperMode(parsed.enableTrading),
			SessionID:        sessionID,
			Program:          pumpfun.ProgramID.String(),
			BuyAmountSol:     parsed.buyAmountSol,
			EntrySlippageBps: parsed.entrySlippageBps,
			ExitSlippageBps:  parsed.exitSlippageBps,
			WindowMs:         parsed.window.Milliseconds(),
			LullMs:           parsed.lull.Milliseconds(),
			RatioThreshold:   parsed.ratio,
			MaxHoldMs:        parsed.maxHold.Milliseconds(),
			CooldownMs:       parsed.cooldown.Milliseconds(),
			RatioMode:        string(parsed.ratioMode),
			EnableTrading:    parsed.enableTrading,
		})
	}

	log.Printf("Launch sniper → pump.fun bonding curves")
	log.Printf("Program: %s", pumpfun.ProgramID)
	log.Printf("Buy amount: %.4f SOL (entry slippage %d bps, exit slippage %d bps)", parsed.buyAmountSol, parsed.entrySlippageBps, parsed.exitSlippageBps)
	log.Printf("Momentum window: %s (%s-weighted ratio, threshold %.2f)", parsed.window, parsed.ratioMode, parsed.ratio)
	log.Printf("Exit policy: lull %s, max hold %s, cooldown %s", parsed.lull, parsed.maxHold, parsed.cooldown)
	log.Printf("Dry-run: %v", !parsed.enableTrading)

	signer, walletNote, err := resolveSigner(parsed)
	if err != nil {
		log.Fatalf("[fatal] %v", err)
	}
	if walletNote != "" {
		log.Printf("[warn] %s", walletNote)
	}
	log.Printf("Wallet: %s", signer.PublicKey())

	client := submit.New(parsed.rpcURL, signer, !parsed.enableTrading)

	ckpt, hasCkpt, err := state.LoadCheckpoint(parsed.checkpointFile)
	if err != nil {
		log.Fatalf("[fatal] %v", err)
	}
	if hasCkpt {
		log.Printf("Loaded checkpoint %s (slot=%d entries=%d exits=%d)", parsed.checkpointFile, ckpt.LastProcessedSlot, ckpt.EntriesSubmitted, ckpt.ExitsSubmitted)
	} else {
		ckpt = state.Checkpoint{}
	}
	ckpt.SessionID = sessionID
	stats.seed(ckpt)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		log.Printf("Shutting down...")
		cancel()
	}()

	ctrl := position.NewController(
		position.Config{
			BuyAmountSol:        parsed.buyAmountSol,
			EntrySlippageBps:    parsed.entrySlippageBps,
			ExitSlippageBps:     parsed.exitSlippageBps,
			BreakevenMultiple:   parsed.breakevenMultiple,
			PartialExitFraction: parsed.partialExitFraction,
			LullThreshold:       parsed.lull,
			RatioThreshold:      parsed.ratio,
			MaxHold:             parsed.maxHold,
			Cooldown:            parsed.cooldown,
		},
		momentum.Config{Window: parsed.window, Mode: parsed.ratioMode},
		position.Deps{
			Submitter:    client,
			Quoter:       client,
			Journal:      stats,
			PollInterval: parsed.pollInterval,
		},
	)

	ctrlDone := make(chan struct{})
	go func() {
		defer close(ctrlDone)
		if err := ctrl.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("[warn] controller stopped: %v", err)
		}
	}()

	records, streamErrs := stream.Start(ctx, parsed.wsURL, pumpfun.ProgramID, stream.Options{
		Commitment: parsed.commitment,
	})
	log.Printf("Listening on %s…", parsed.wsURL)

	saveTicker := time.NewTicker(5 * time.Second)
	defer saveTicker.Stop()

	saveCheckpoint := func() {
		snap := stats.checkpoint(ckpt)
		if err := state.SaveCheckpoint(parsed.checkpointFile, snap); err != nil {
			log.Printf("[warn] checkpoint save: %v", err)
		}
	}
	defer saveCheckpoint()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop

		case err, ok := <-streamErrs:
			if !ok {
				break loop
			}
			log.Printf("[warn] stream: %v", err)

		case <-saveTicker.C:
			saveCheckpoint()

		case rec, ok := <-records:
			if !ok {
				break loop
			}
			stats.observeSlot(rec.Slot)

			if created := txwatch.DetectCreation(&rec); created != nil {
				stats.observeLaunch(created.Mint)
				log.Printf("[info] launch %s by %s (sig=%s slot=%d)", created.Mint, created.Creator, shortSig(created.Signature), rec.Slot)
				ctrl.OnLaunch(created)
				continue
			}

			if mint, curve, ok := ctrl.Tracked(); ok {
				if tr := txwatch.DetectTrade(&rec, mint, curve); tr != nil {
					stats.observeTrade()
					ctrl.OnTrade(tr)
				}
			}
		}
	}

	cancel()
	select {
	case <-ctrlDone:
	case <-time.After(45 * time.Second):
		log.Printf("[warn] controller did not finish shutdown in time")
	}
	saveCheckpoint()
}

// sessionStats sits between the controller and the journal so the
// checkpoint can count submissions without the controller knowing
// about checkpoints.
type sessionStats struct {
	inner *jsonl.Writer

	mu               sync.Mutex
	lastSlot         uint64
	launchesSeen     int
	tradesSeen       int
	entriesSubmitted int
	exitsSubmitted   int
	lastMint         string
}

func (s *sessionStats) Write(v any) error {
	if rec, ok := v.(position.TransitionRecord); ok {
		s.mu.Lock()
		switch {
		case rec.To == position.StateEntering.String():
			s.entriesSubmitted++
		case rec.To == position.StateClosing.String(),
			rec.To == position.StatePartiallyExited.String():
			s.exitsSubmitted++
		}
		s.mu.Unlock()
	}
	return s.inner.Write(v)
}

func (s *sessionStats) seed(ckpt state.Checkpoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entriesSubmitted = ckpt.EntriesSubmitted
	s.exitsSubmitted = ckpt.ExitsSubmitted
	s.lastSlot = ckpt.LastProcessedSlot
	s.lastMint = ckpt.LastMint
}

func (s *sessionStats) observeSlot(slot uint64) {
	s.mu.Lock()
	if slot > s.lastSlot {
		s.lastSlot = slot
	}
	s.mu.Unlock()
}

func (s *sessionStats) observeLaunch(mint solana.PublicKey) {
	s.mu.Lock()
	s.launchesSeen++
	s.lastMint = mint.String()
	s.mu.Unlock()
}

func (s *sessionStats) observeTrade() {
	s.mu.Lock()
	s.tradesSeen++
	s.mu.Unlock()
}

func (s *sessionStats) checkpoint(base state.Checkpoint) state.Checkpoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	base.LastProcessedSlot = s.lastSlot
	base.EntriesSubmitted = s.entriesSubmitted
	base.ExitsSubmitted = s.exitsSubmitted
	base.LastMint = s.lastMint
	base.UpdatedAtMs = time.Now().UnixMilli()
	return base
}

func (s *sessionStats) slotsSeen() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSlot
}

func (s *sessionStats) launches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.launchesSeen
}

func (s *sessionStats) trades() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tradesSeen
}

func (s *sessionStats) entries() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entriesSubmitted
}

func (s *sessionStats) exits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exitsSubmitted
}

// resolveSigner picks the signing key. Dry-run without a key gets a
// throwaway wallet so derivations still work.
func resolveSigner(parsed args) (solana.PrivateKey, string, error) {
	raw := strings.TrimSpace(parsed.privateKeyB58)
	if raw != "" {
		pk, err := solana.PrivateKeyFromBase58(raw)
		if err != nil {
			return nil, "", fmt.Errorf("invalid private key: %w", err)
		}
		return pk, "", nil
	}
	if parsed.enableTrading {
		return nil, "", fmt.Errorf("enable-trading requires --private-key or PRIVATE_KEY")
	}
	w := solana.NewWallet()
	return w.PrivateKey, "no private key configured; using a throwaway wallet (dry-run only)", nil
}

// preScanEnvFile finds --env-file before flag.Parse so dotenv values
// can act as flag defaults.
func preScanEnvFile() string {
	for i, a := range os.Args[1:] {
		if a == "--env-file" || a == "-env-file" {
			rest := os.Args[1:]
			if i+1 < len(rest) {
				return rest[i+1]
			}
			return ""
		}
		for _, prefix := range []string{"--env-file=", "-env-file="} {
			if strings.HasPrefix(a, prefix) {
				return strings.TrimPrefix(a, prefix)
			}
		}
	}
	return ""
}

func parseArgs() (args, error) {
	var wsFlag string
	var rpcFlag string
	var privateKeyFlag string

	var buyAmountFlag float64
	var entrySlipFlag int64
	var exitSlipFlag int64
	var breakevenFlag float64
	var partialFlag float64

	var windowFlag time.Duration
	var lullFlag time.Duration
	var ratioFlag float64
	var maxHoldFlag time.Duration
	var cooldownFlag time.Duration
	var ratioModeFlag string

	var commitmentFlag string
	var pollFlag time.Duration
	var enableTradingFlag bool
	var checkpointFlag string
	var outFlag string
	var envFileFlag string

	enableTradingDefault := false
	if env := strings.TrimSpace(os.Getenv("ENABLE_TRADING")); env != "" {
		v, err := strconv.ParseBool(env)
		if err != nil {
			return args{}, fmt.Errorf("invalid ENABLE_TRADING %q: %w", env, err)
		}
		enableTradingDefault = v
	}

	flag.StringVar(&wsFlag, "ws-url", "", "Solana WebSocket PubSub URL (wss://...) (or RPC_WS_URL env)")
	flag.StringVar(&rpcFlag, "rpc-url", "", "Solana HTTP RPC URL (or RPC_URL env)")
	flag.StringVar(&privateKeyFlag, "private-key", "", "Wallet private key, base58 (or PRIVATE_KEY env)")

	flag.Float64Var(&buyAmountFlag, "buy-sol", 0.01, "SOL to spend per entry")
	flag.Int64Var(&entrySlipFlag, "entry-slippage-bps", 500, "Entry slippage tolerance in basis points")
	flag.Int64Var(&exitSlipFlag, "exit-slippage-bps", 1500, "Exit slippage tolerance in basis points (momentum exits)")
	flag.Float64Var(&breakevenFlag, "breakeven-multiple", 1.0, "Market value multiple of entry cost that triggers the partial exit")
	flag.Float64Var(&partialFlag, "partial-fraction", 0.5, "Fraction of the balance sold on the breakeven partial")

	flag.DurationVar(&windowFlag, "window", 10*time.Second, "Momentum window length")
	flag.DurationVar(&lullFlag, "lull", 3*time.Second, "Exit when no buy lands for this long")
	flag.Float64Var(&ratioFlag, "ratio", 0.5, "Exit when buy/sell pressure drops below this ratio")
	flag.DurationVar(&maxHoldFlag, "max-hold", 60*time.Second, "Hard cap on position hold time")
	flag.DurationVar(&cooldownFlag, "cooldown", 2*time.Second, "Minimum gap between settling and the next entry")
	flag.StringVar(&ratioModeFlag, "ratio-mode", "value", "Pressure ratio weighting: value or count")

	flag.StringVar(&commitmentFlag, "commitment", "confirmed", "Subscription commitment: processed, confirmed or finalized")
	flag.DurationVar(&pollFlag, "poll-interval", 500*time.Millisecond, "Market value poll interval while holding")
	flag.BoolVar(&enableTradingFlag, "enable-trading", enableTradingDefault, "Actually sign and send transactions (default is dry-run)")
	flag.StringVar(&checkpointFlag, "checkpoint-file", "./out/sniper.checkpoint.json", "Checkpoint path")
	flag.StringVar(&outFlag, "out", defaultJournalFile, "Journal path (JSONL; empty disables)")
	flag.StringVar(&envFileFlag, "env-file", "", "Dotenv path (default .env)")

	flag.Parse()

	wsURL := strings.TrimSpace(wsFlag)
	if wsURL == "" {
		wsURL = strings.TrimSpace(firstNonEmpty(os.Getenv("RPC_WS_URL"), os.Getenv("WS_URL")))
	}
	if wsURL == "" {
		return args{}, fmt.Errorf("websocket url required via --ws-url or RPC_WS_URL")
	}
	if !strings.HasPrefix(wsURL, "ws") {
		return args{}, fmt.Errorf("ws-url must be ws:// or wss:// (got %q)", wsURL)
	}

	rpcURL := strings.TrimSpace(rpcFlag)
	if rpcURL == "" {
		rpcURL = strings.TrimSpace(firstNonEmpty(os.Getenv("RPC_URL"), os.Getenv("RPC_HTTP_URL")))
	}
	if rpcURL == "" {
		return args{}, fmt.Errorf("rpc url required via --rpc-url or RPC_URL")
	}

	privateKey := strings.TrimSpace(privateKeyFlag)
	if privateKey == "" {
		privateKey = strings.TrimSpace(os.Getenv("PRIVATE_KEY"))
	}

	if buyAmountFlag <= 0 {
		return args{}, fmt.Errorf("buy-sol must be positive (got %v)", buyAmountFlag)
	}
	if entrySlipFlag < 0 || entrySlipFlag > 10_000 {
		return args{}, fmt.Errorf("entry-slippage-bps out of range [0,10000]: %d", entrySlipFlag)
	}
	if exitSlipFlag < 0 || exitSlipFlag > 10_000 {
		return args{}, fmt.Errorf("exit-slippage-bps out of range [0,10000]: %d", exitSlipFlag)
	}
	if partialFlag <= 0 || partialFlag > 1 {
		return args{}, fmt.Errorf("partial-fraction must be in (0,1]: %v", partialFlag)
	}
	if windowFlag <= 0 || lullFlag <= 0 || maxHoldFlag <= 0 {
		return args{}, fmt.Errorf("window, lull and max-hold must all be positive")
	}
	if ratioFlag < 0 {
		return args{}, fmt.Errorf("ratio must be non-negative (got %v)", ratioFlag)
	}

	var mode momentum.RatioMode
	switch strings.ToLower(strings.TrimSpace(ratioModeFlag)) {
	case "", "value":
		mode = momentum.RatioValueWeighted
	case "count":
		mode = momentum.RatioCountWeighted
	default:
		return args{}, fmt.Errorf("ratio-mode must be value or count (got %q)", ratioModeFlag)
	}

	commitment := strings.ToLower(strings.TrimSpace(commitmentFlag))
	switch commitment {
	case "processed", "confirmed", "finalized":
	default:
		return args{}, fmt.Errorf("commitment must be processed, confirmed or finalized (got %q)", commitmentFlag)
	}

	return args{
		wsURL:               wsURL,
		rpcURL:              rpcURL,
		privateKeyB58:       privateKey,
		buyAmountSol:        buyAmountFlag,
		entrySlippageBps:    entrySlipFlag,
		exitSlippageBps:     exitSlipFlag,
		breakevenMultiple:   breakevenFlag,
		partialExitFraction: partialFlag,
		window:              windowFlag,
		lull:                lullFlag,
		ratio:               ratioFlag,
		maxHold:             maxHoldFlag,
		cooldown:            cooldownFlag,
		ratioMode:           mode,
		commitment:          commitment,
		pollInterval:        pollFlag,
		enableTrading:       enableTradingFlag,
		checkpointFile:      strings.TrimSpace(checkpointFlag),
		outFile:             strings.TrimSpace(outFlag),
		envFile:             strings.TrimSpace(envFileFlag),
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func shortSig(sig string) string {
	if len(sig) <= 12 {
		return sig
	}
	return sig[:12] + "…"
}
