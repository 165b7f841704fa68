package events

import "time"

// Type labels a ledger event for off-chain consumers.
type Type string

const (
	TypeTransfer    Type = "transfer"
	TypeMint        Type = "mint"
	TypeBurn        Type = "burn"
	TypePause       Type = "pause"
	TypeUnpause     Type = "unpause"
	TypeBlacklist   Type = "blacklist"
	TypeUnblacklist Type = "unblacklist"
	TypeSetTokenURI Type = "set_token_uri"
)

// Event is emitted after a successful ledger operation. Events are advisory:
// indexers and the rewards pipeline consume them, but no ledger invariant
// depends on delivery.
type Event struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	Actor     string    `json:"actor"`
	Sender    string    `json:"sender,omitempty"`
	Recipient string    `json:"recipient,omitempty"`
	Account   string    `json:"account,omitempty"`
	Amount    uint64    `json:"amount,omitempty"`
	Memo      []byte    `json:"memo,omitempty"`
	MintID    uint64    `json:"mint_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
