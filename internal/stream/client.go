// Package stream is the ledger event feed: a Solana PubSub
// blockSubscribe client filtered on the curve program, emitting
// flattened transaction records. Reconnect and backoff policy lives
// entirely here; the core never sees the transport.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gorilla/websocket"

	"github.com/misterhughesdale-arch/gitSniper-sub000/internal/txwatch"
)

const DefaultPingInterval = 15 * time.Second

type Options struct {
	PingInterval time.Duration

	BackoffMin time.Duration
	BackoffMax time.Duration

	OutBuffer int

	// Commitment for the subscription; defaults to "confirmed".
	Commitment string
}

func (o Options) withDefaults() Options {
	if o.PingInterval <= 0 {
		o.PingInterval = DefaultPingInterval
	}
	if o.BackoffMin <= 0 {
		o.BackoffMin = 500 * time.Millisecond
	}
	if o.BackoffMax <= 0 {
		o.BackoffMax = 15 * time.Second
	}
	if o.OutBuffer <= 0 {
		o.OutBuffer = 512
	}
	if o.Commitment == "" {
		o.Commitment = "confirmed"
	}
	return o
}

// Start connects to the PubSub endpoint and emits every transaction in
// blocks that mention program. It reconnects forever until ctx ends;
// both channels close on return.
func Start(ctx context.Context, url string, program solana.PublicKey, opts Options) (<-chan txwatch.TxRecord, <-chan error) {
	opts = opts.withDefaults()

	out := make(chan txwatch.TxRecord, opts.OutBuffer)
	errs := make(chan error, 16)

	go func() {
		defer close(out)
		defer close(errs)

		backoff := opts.BackoffMin
		for {
			if ctx.Err() != nil {
				return
			}

			conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
			if err != nil {
				emitErrNonBlocking(errs, fmt.Errorf("stream dial: %w", err))
				sleepWithJitter(ctx, backoff)
				backoff = nextBackoff(backoff, opts.BackoffMax)
				continue
			}

			backoff = opts.BackoffMin

			if err := runSession(ctx, conn, program, opts, out, errs); err != nil && ctx.Err() == nil {
				emitErrNonBlocking(errs, err)
			}

			_ = conn.Close()
			if ctx.Err() != nil {
				return
			}
			sleepWithJitter(ctx, backoff)
			backoff = nextBackoff(backoff, opts.BackoffMax)
		}
	}()

	return out, errs
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

func subscribeRequest(program solana.PublicKey, commitment string) rpcRequest {
	return rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "blockSubscribe",
		Params: []any{
			map[string]any{"mentionsAccountOrProgram": program.String()},
			map[string]any{
				"commitment":                     commitment,
				"encoding":                       "json",
				"transactionDetails":             "full",
				"showRewards":                    false,
				"maxSupportedTransactionVersion": 0,
			},
		},
	}
}

func runSession(
	ctx context.Context,
	conn *websocket.Conn,
	program solana.PublicKey,
	opts Options,
	out chan<- txwatch.TxRecord,
	errs chan<- error,
) error {
	if conn == nil {
		return fmt.Errorf("stream session: nil conn")
	}

	reqBytes, err := json.Marshal(subscribeRequest(program, opts.Commitment))
	if err != nil {
		return fmt.Errorf("stream subscribe marshal: %w", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, reqBytes); err != nil {
		return fmt.Errorf("stream subscribe write: %w", err)
	}

	var writeMu sync.Mutex
	stop := make(chan struct{})
	var stopOnce sync.Once
	stopAll := func() { stopOnce.Do(func() { close(stop) }) }

	go func() {
		defer stopAll()
		t := time.NewTicker(opts.PingInterval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case <-t.C:
				writeMu.Lock()
				_ = conn.SetWriteDeadline(time.Now().Add(3 * time.Second))
				werr := conn.WriteMessage(websocket.PingMessage, nil)
				writeMu.Unlock()
				if werr != nil {
					emitErrNonBlocking(errs, fmt.Errorf("stream ping: %w", werr))
					_ = conn.Close()
					return
				}
			}
		}
	}()

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		typ, msg, err := conn.ReadMessage()
		if err != nil {
			stopAll()
			if errors.Is(err, websocket.ErrCloseSent) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("stream read: %w", err)
		}

		if typ != websocket.TextMessage && typ != websocket.BinaryMessage {
			continue
		}
		if len(msg) == 0 {
			continue
		}

		records, perr := ParseBlockNotification(msg, time.Now())
		if perr != nil {
			emitErrNonBlocking(errs, perr)
			continue
		}
		for _, rec := range records {
			select {
			case out <- rec:
			default:
				// Slow consumer: dropping a block's tail is better than
				// stalling the read loop into a server disconnect.
			}
		}
	}
}

func emitErrNonBlocking(ch chan<- error, err error) {
	if err == nil {
		return
	}
	select {
	case ch <- err:
	default:
	}
}

func nextBackoff(cur, max time.Duration) time.Duration {
	next := cur * 2
	if next > max {
		return max
	}
	return next
}

func sleepWithJitter(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	j := int64(d) / 7
	if j > 0 {
		d = time.Duration(int64(d) + rand.Int63n(2*j+1) - j)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
