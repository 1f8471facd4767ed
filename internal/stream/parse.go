package stream

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/misterhughesdale-arch/gitSniper-sub000/internal/txwatch"
)

// Wire shapes for blockNotification payloads. Only the fields the
// classifier consumes are decoded.
type notification struct {
	Method string `json:"method"`
	Params struct {
		Result struct {
			Value struct {
				Slot  uint64 `json:"slot"`
				Block *struct {
					Transactions []blockTx `json:"transactions"`
				} `json:"block"`
			} `json:"value"`
		} `json:"result"`
	} `json:"params"`
}

type blockTx struct {
	Transaction struct {
		Signatures []string `json:"signatures"`
		Message    struct {
			AccountKeys []string `json:"accountKeys"`
		} `json:"message"`
	} `json:"transaction"`
	Meta *txMeta `json:"meta"`
}

type txMeta struct {
	Err               any              `json:"err"`
	PreBalances       []uint64         `json:"preBalances"`
	PostBalances      []uint64         `json:"postBalances"`
	PreTokenBalances  []wireTokenBal   `json:"preTokenBalances"`
	PostTokenBalances []wireTokenBal   `json:"postTokenBalances"`
	LoadedAddresses   *loadedAddresses `json:"loadedAddresses"`
}

type loadedAddresses struct {
	Writable []string `json:"writable"`
	Readonly []string `json:"readonly"`
}

type wireTokenBal struct {
	AccountIndex  int    `json:"accountIndex"`
	Mint          string `json:"mint"`
	Owner         string `json:"owner"`
	UITokenAmount struct {
		Amount string `json:"amount"`
	} `json:"uiTokenAmount"`
}

// ParseBlockNotification flattens one blockNotification into records.
// Non-notification frames (subscription acks, keepalives) yield an
// empty slice and no error. Individual malformed transactions are
// skipped; classification downstream is best-effort anyway.
func ParseBlockNotification(msg []byte, receivedAt time.Time) ([]txwatch.TxRecord, error) {
	var n notification
	if err := json.Unmarshal(msg, &n); err != nil {
		return nil, fmt.Errorf("stream decode: %w", err)
	}
	if n.Method != "blockNotification" || n.Params.Result.Value.Block == nil {
		return nil, nil
	}

	value := n.Params.Result.Value
	records := make([]txwatch.TxRecord, 0, len(value.Block.Transactions))
	for _, tx := range value.Block.Transactions {
		rec, ok := flattenTx(tx, value.Slot, receivedAt)
		if !ok {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func flattenTx(tx blockTx, slot uint64, receivedAt time.Time) (txwatch.TxRecord, bool) {
	if len(tx.Transaction.Signatures) == 0 || tx.Meta == nil {
		return txwatch.TxRecord{}, false
	}

	// Static keys first, then keys loaded from address lookup tables,
	// writable before readonly; balance arrays index into this order.
	keys := make([]solana.PublicKey, 0, len(tx.Transaction.Message.AccountKeys))
	appendKeys := func(raw []string) bool {
		for _, s := range raw {
			pk, err := solana.PublicKeyFromBase58(s)
			if err != nil {
				return false
			}
			keys = append(keys, pk)
		}
		return true
	}
	if !appendKeys(tx.Transaction.Message.AccountKeys) {
		return txwatch.TxRecord{}, false
	}
	if la := tx.Meta.LoadedAddresses; la != nil {
		if !appendKeys(la.Writable) || !appendKeys(la.Readonly) {
			return txwatch.TxRecord{}, false
		}
	}

	return txwatch.TxRecord{
		Signature:         tx.Transaction.Signatures[0],
		Slot:              slot,
		Failed:            tx.Meta.Err != nil,
		AccountKeys:       keys,
		PreBalances:       tx.Meta.PreBalances,
		PostBalances:      tx.Meta.PostBalances,
		PreTokenBalances:  convertTokenBalances(tx.Meta.PreTokenBalances),
		PostTokenBalances: convertTokenBalances(tx.Meta.PostTokenBalances),
		ReceivedAt:        receivedAt,
	}, true
}

func convertTokenBalances(in []wireTokenBal) []txwatch.TokenBalance {
	if len(in) == 0 {
		return nil
	}
	out := make([]txwatch.TokenBalance, 0, len(in))
	for _, tb := range in {
		mint, err := solana.PublicKeyFromBase58(tb.Mint)
		if err != nil {
			continue
		}
		var owner solana.PublicKey
		if tb.Owner != "" {
			if pk, err := solana.PublicKeyFromBase58(tb.Owner); err == nil {
				owner = pk
			}
		}
		amount, _ := strconv.ParseFloat(tb.UITokenAmount.Amount, 64)
		out = append(out, txwatch.TokenBalance{
			AccountIndex: tb.AccountIndex,
			Mint:         mint,
			Owner:        owner,
			Amount:       amount,
		})
	}
	return out
}
