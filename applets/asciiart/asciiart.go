// Package asciiart is a non-fungible token applet of one-line drawings.
// Six tokens are minted to the deployer at init; later mints are limited to
// controllers.
package asciiart

import (
	"strconv"

	"contractkit/collections"
	"contractkit/contracts/nonfungible"
	cerrors "contractkit/core/errors"
	"contractkit/runtime"
)

const Name = "AsciiArt"

// ControllersNamespace does not overlap the namespaces of the embedded token.
const ControllersNamespace collections.Namespace = 0

var initialTokens = []nonfungible.Metadata{
	{Title: "A fish going left!", Name: "fish 1", Description: "A one line ASCII drawing of a fish", Payload: "<><"},
	{Title: "A fish going right!", Name: "fish 2", Description: "A one line ASCII drawing of a fish swimming to the right", Payload: "><>"},
	{Title: "A big fish going left!", Name: "fish 3", Description: "A one line ASCII drawing of a fish swimming to the left", Payload: "<'))><"},
	{Title: "A big fish going right!", Name: "fish 4", Description: "A one line ASCII drawing of a fish swimming to the right", Payload: "><(('>"},
	{Title: "A Face", Name: "face 1", Description: "A one line ASCII drawing of a face", Payload: "(-_-)"},
	{Title: "Arms raised", Name: "arms 1", Description: "A one line ASCII drawing of a person with arms raised", Payload: `\o/`},
}

// InitialTokenCount is the number of tokens minted at init, with ids "0".."5".
var InitialTokenCount = len(initialTokens)

type State struct {
	Controllers collections.Set[string] `json:"controllers"`
	Inner       nonfungible.Token       `json:"inner"`
}

type addrArgs struct {
	Addr string `json:"addr"`
}

type tokenArgs struct {
	TokenID string `json:"token_id"`
}

type approveArgs struct {
	Spender string `json:"spender"`
	TokenID string `json:"token_id"`
}

type approveForAllArgs struct {
	Spender  string `json:"spender"`
	Approval bool   `json:"approval"`
}

type transferArgs struct {
	ToAddr  string `json:"to_addr"`
	TokenID string `json:"token_id"`
}

type transferFromArgs struct {
	FromAddr string `json:"from_addr"`
	ToAddr   string `json:"to_addr"`
	TokenID  string `json:"token_id"`
}

type ownerSpenderArgs struct {
	Owner   string `json:"owner"`
	Spender string `json:"spender"`
}

type mintArgs struct {
	TokenID     string `json:"token_id"`
	Title       string `json:"title"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Payload     string `json:"payload"`
}

func Contract() *runtime.Contract {
	return &runtime.Contract{
		Name: "asciiart",
		Init: runtime.Init(initState),
		Methods: map[string]runtime.Method{
			"name": runtime.Query(func(_ runtime.Context, s *State, _ runtime.NoArgs) (string, error) {
				return s.Inner.Name, nil
			}),
			"creator": runtime.Query(func(_ runtime.Context, s *State, _ runtime.NoArgs) (string, error) {
				return s.Inner.Creator, nil
			}),
			"balance_of": runtime.Query(func(ctx runtime.Context, s *State, a addrArgs) (uint64, error) {
				return s.Inner.BalanceOf(ctx, a.Addr)
			}),
			"owner_of": runtime.Query(func(ctx runtime.Context, s *State, a tokenArgs) (string, error) {
				return s.Inner.OwnerOf(ctx, a.TokenID)
			}),
			"details": runtime.Query(func(ctx runtime.Context, s *State, a tokenArgs) (nonfungible.Metadata, error) {
				return s.Inner.Details(ctx, a.TokenID)
			}),
			"get_approved": runtime.Query(func(ctx runtime.Context, s *State, a tokenArgs) ([]string, error) {
				return s.Inner.GetApproved(ctx, a.TokenID)
			}),
			"is_approved_for_all": runtime.Query(func(ctx runtime.Context, s *State, a ownerSpenderArgs) (bool, error) {
				return s.Inner.IsApprovedForAll(ctx, a.Owner, a.Spender)
			}),
			"approve": runtime.Mutate(func(ctx runtime.Context, s *State, a approveArgs) (runtime.Unit, error) {
				return runtime.Unit{}, s.Inner.Approve(ctx, a.Spender, a.TokenID)
			}),
			"set_approve_for_all": runtime.Mutate(func(ctx runtime.Context, s *State, a approveForAllArgs) (runtime.Unit, error) {
				return runtime.Unit{}, s.Inner.SetApproveForAll(ctx, a.Spender, a.Approval)
			}),
			"transfer": runtime.Mutate(func(ctx runtime.Context, s *State, a transferArgs) (runtime.Unit, error) {
				return runtime.Unit{}, s.Inner.Transfer(ctx, a.ToAddr, a.TokenID)
			}),
			"transfer_from": runtime.Mutate(func(ctx runtime.Context, s *State, a transferFromArgs) (runtime.Unit, error) {
				return runtime.Unit{}, s.Inner.TransferFrom(ctx, a.FromAddr, a.ToAddr, a.TokenID)
			}),
			"mint": runtime.Mutate(mint),
		},
	}
}

func initState(ctx runtime.Context, _ runtime.NoArgs) (*State, error) {
	s := &State{
		Controllers: collections.NewSet[string](ControllersNamespace),
		Inner:       nonfungible.New(ctx, Name),
	}
	if err := s.Controllers.Insert(ctx.Store(), ctx.Sender()); err != nil {
		return nil, err
	}
	for i, meta := range initialTokens {
		if err := s.Inner.Mint(ctx, strconv.Itoa(i), meta); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func mint(ctx runtime.Context, s *State, a mintArgs) (runtime.Unit, error) {
	isController, err := s.Controllers.Contains(ctx.Store(), ctx.Sender())
	if err != nil {
		return runtime.Unit{}, err
	}
	if !isController {
		return runtime.Unit{}, cerrors.Authorization("", "only controllers can mint")
	}
	return runtime.Unit{}, s.Inner.Mint(ctx, a.TokenID, nonfungible.Metadata{
		Title:       a.Title,
		Name:        a.Name,
		Description: a.Description,
		Payload:     a.Payload,
	})
}
