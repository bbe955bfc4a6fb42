package events

import (
	"strconv"
	"strings"

	"contractkit/core/types"
)

const (
	TypeFungibleTransfer = "fungible.transfer"
	TypeFungibleApproval = "fungible.approval"
	TypeFungibleMint     = "fungible.mint"

	TypeNFTMint           = "nft.mint"
	TypeNFTTransfer       = "nft.transfer"
	TypeNFTApproval       = "nft.approval"
	TypeNFTApprovalForAll = "nft.approval_for_all"
)

// FungibleTransfer is emitted once the ledger accepted a token movement.
type FungibleTransfer struct {
	Symbol  string
	From    string
	To      string
	Amount  uint64
	Spender string
}

func (FungibleTransfer) EventType() string { return TypeFungibleTransfer }

func (e FungibleTransfer) Event() *types.Event {
	attrs := map[string]string{
		"symbol": normalizeAsset(e.Symbol),
		"from":   e.From,
		"to":     e.To,
		"amount": strconv.FormatUint(e.Amount, 10),
	}
	if e.Spender != "" {
		attrs["spender"] = e.Spender
	}
	return &types.Event{Type: TypeFungibleTransfer, Attributes: attrs}
}

type FungibleApproval struct {
	Symbol  string
	Owner   string
	Spender string
	Amount  uint64
}

func (FungibleApproval) EventType() string { return TypeFungibleApproval }

func (e FungibleApproval) Event() *types.Event {
	return &types.Event{Type: TypeFungibleApproval, Attributes: map[string]string{
		"symbol":  normalizeAsset(e.Symbol),
		"owner":   e.Owner,
		"spender": e.Spender,
		"amount":  strconv.FormatUint(e.Amount, 10),
	}}
}

type FungibleMint struct {
	Symbol      string
	To          string
	Amount      uint64
	TotalSupply uint64
}

func (FungibleMint) EventType() string { return TypeFungibleMint }

func (e FungibleMint) Event() *types.Event {
	return &types.Event{Type: TypeFungibleMint, Attributes: map[string]string{
		"symbol":      normalizeAsset(e.Symbol),
		"to":          e.To,
		"amount":      strconv.FormatUint(e.Amount, 10),
		"totalSupply": strconv.FormatUint(e.TotalSupply, 10),
	}}
}

type NFTMint struct {
	Collection string
	TokenID    string
	Owner      string
}

func (NFTMint) EventType() string { return TypeNFTMint }

func (e NFTMint) Event() *types.Event {
	return &types.Event{Type: TypeNFTMint, Attributes: map[string]string{
		"collection": strings.TrimSpace(e.Collection),
		"tokenId":    e.TokenID,
		"owner":      e.Owner,
	}}
}

type NFTTransfer struct {
	Collection string
	TokenID    string
	From       string
	To         string
}

func (NFTTransfer) EventType() string { return TypeNFTTransfer }

func (e NFTTransfer) Event() *types.Event {
	return &types.Event{Type: TypeNFTTransfer, Attributes: map[string]string{
		"collection": strings.TrimSpace(e.Collection),
		"tokenId":    e.TokenID,
		"from":       e.From,
		"to":         e.To,
	}}
}

// NFTApproval carries an empty Spender when a single-token approval is cleared.
type NFTApproval struct {
	Collection string
	TokenID    string
	Owner      string
	Spender    string
}

func (NFTApproval) EventType() string { return TypeNFTApproval }

func (e NFTApproval) Event() *types.Event {
	return &types.Event{Type: TypeNFTApproval, Attributes: map[string]string{
		"collection": strings.TrimSpace(e.Collection),
		"tokenId":    e.TokenID,
		"owner":      e.Owner,
		"spender":    e.Spender,
	}}
}

type NFTApprovalForAll struct {
	Collection string
	Owner      string
	Operator   string
	Approved   bool
}

func (NFTApprovalForAll) EventType() string { return TypeNFTApprovalForAll }

func (e NFTApprovalForAll) Event() *types.Event {
	return &types.Event{Type: TypeNFTApprovalForAll, Attributes: map[string]string{
		"collection": strings.TrimSpace(e.Collection),
		"owner":      e.Owner,
		"operator":   e.Operator,
		"approved":   strconv.FormatBool(e.Approved),
	}}
}

func normalizeAsset(asset string) string {
	trimmed := strings.TrimSpace(asset)
	if trimmed == "" {
		return ""
	}
	return strings.ToUpper(trimmed)
}
