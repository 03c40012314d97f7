package validation

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"cca-agent/pkg/types"
)

func baseConfig() types.AuctionConfig {
	return types.AuctionConfig{
		StartBlock:  100,
		EndBlock:    200,
		ClaimBlock:  210,
		TotalSupply: types.TokenAmountFromUint64(1_000_000),
		TickSpacing: types.TickSpacingFromUint64(10),
		FloorPrice:  types.PriceFromUint64(1_000),
		MaxBidPrice: types.PriceFromUint64(10_000),
	}
}

func baseState(block uint64, clearing uint64) types.AuctionState {
	cfg := baseConfig()
	return types.AuctionState{
		CurrentBlock:   types.BlockNumber(block),
		Phase:          types.ComputePhase(cfg, types.BlockNumber(block), types.TokenDepositReceived),
		Checkpoint:     types.Checkpoint{ClearingPrice: types.PriceFromUint64(clearing)},
		Graduation:     types.NotGraduated,
		TokensReceived: types.TokenDepositReceived,
	}
}

func kindOf(t *testing.T, err error) types.ValidationErrorKind {
	t.Helper()
	ve, ok := err.(*types.ValidationError)
	if !ok {
		t.Fatalf("expected *types.ValidationError, got %T (%v)", err, err)
	}
	return ve.Kind_
}

func TestSubmitBid(t *testing.T) {
	owner := common.HexToAddress("0x1")
	cfg := baseConfig()

	cases := []struct {
		name  string
		input types.SubmitBidInput
		state types.AuctionState
		want  *types.ValidationErrorKind
	}{
		{
			name:  "happy path",
			input: types.SubmitBidInput{MaxPrice: types.PriceFromUint64(1_050), Amount: types.CurrencyAmountFromUint64(500), Owner: owner},
			state: baseState(150, 1_020),
			want:  nil,
		},
		{
			name:  "not started",
			input: types.SubmitBidInput{MaxPrice: types.PriceFromUint64(1_050), Amount: types.CurrencyAmountFromUint64(500), Owner: owner},
			state: baseState(50, 1_020),
			want:  kindPtr(types.AuctionNotStarted),
		},
		{
			name:  "is over",
			input: types.SubmitBidInput{MaxPrice: types.PriceFromUint64(1_050), Amount: types.CurrencyAmountFromUint64(500), Owner: owner},
			state: baseState(250, 1_020),
			want:  kindPtr(types.AuctionIsOver),
		},
		{
			name:  "below clearing",
			input: types.SubmitBidInput{MaxPrice: types.PriceFromUint64(1_100), Amount: types.CurrencyAmountFromUint64(100), Owner: owner},
			state: baseState(150, 1_200),
			want:  kindPtr(types.BidBelowClearingPrice),
		},
		{
			name:  "amount zero",
			input: types.SubmitBidInput{MaxPrice: types.PriceFromUint64(1_050), Amount: types.CurrencyAmountFromUint64(0), Owner: owner},
			state: baseState(150, 1_020),
			want:  kindPtr(types.AmountTooSmall),
		},
		{
			name:  "owner zero",
			input: types.SubmitBidInput{MaxPrice: types.PriceFromUint64(1_050), Amount: types.CurrencyAmountFromUint64(500), Owner: common.Address{}},
			state: baseState(150, 1_020),
			want:  kindPtr(types.OwnerIsZeroAddress),
		},
		{
			name:  "invalid price not aligned",
			input: types.SubmitBidInput{MaxPrice: types.PriceFromUint64(1_055), Amount: types.CurrencyAmountFromUint64(500), Owner: owner},
			state: baseState(150, 1_020),
			want:  kindPtr(types.InvalidPrice),
		},
		{
			name:  "invalid price above ceiling",
			input: types.SubmitBidInput{MaxPrice: types.PriceFromUint64(20_000), Amount: types.CurrencyAmountFromUint64(500), Owner: owner},
			state: baseState(150, 1_020),
			want:  kindPtr(types.InvalidPrice),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := SubmitBid(tc.input, tc.state, cfg)
			if tc.want == nil {
				if err != nil {
					t.Fatalf("expected ok, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected %v, got nil", *tc.want)
			}
			if got := kindOf(t, err); got != *tc.want {
				t.Fatalf("expected %v, got %v", *tc.want, got)
			}
		})
	}
}

func kindPtr(k types.ValidationErrorKind) *types.ValidationErrorKind { return &k }

func TestSoldOutRejected(t *testing.T) {
	cfg := baseConfig()
	state := baseState(150, 1_020)
	state.Checkpoint.CumulativeMps = types.MpsFull

	err := SubmitBid(types.SubmitBidInput{
		MaxPrice: types.PriceFromUint64(1_050),
		Amount:   types.CurrencyAmountFromUint64(500),
		Owner:    common.HexToAddress("0x1"),
	}, state, cfg)

	if kindOf(t, err) != types.AuctionSoldOut {
		t.Fatalf("expected AuctionSoldOut, got %v", err)
	}
}

func TestExitBidITMAfterGraduation(t *testing.T) {
	cfg := baseConfig()
	state := baseState(205, 1_500)
	state.Graduation = types.Graduated

	bid := types.Bid{MaxPrice: types.PriceFromUint64(2_000)}
	if err := ExitBid(bid, state, cfg); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
}

func TestExitBidNotOverYet(t *testing.T) {
	cfg := baseConfig()
	state := baseState(150, 1_500)
	bid := types.Bid{MaxPrice: types.PriceFromUint64(2_000)}
	if kindOf(t, ExitBid(bid, state, cfg)) != types.AuctionNotOver {
		t.Fatalf("expected AuctionNotOver")
	}
}

func TestExitBidNotITMAfterGraduation(t *testing.T) {
	cfg := baseConfig()
	state := baseState(205, 2_000)
	state.Graduation = types.Graduated
	bid := types.Bid{MaxPrice: types.PriceFromUint64(1_500)}
	if kindOf(t, ExitBid(bid, state, cfg)) != types.BidNotITM {
		t.Fatalf("expected BidNotITM")
	}
}

func TestExitPartiallyFilledBranches(t *testing.T) {
	cfg := baseConfig()

	t.Run("graduated not ended OTM passes", func(t *testing.T) {
		state := baseState(180, 2_000)
		state.Graduation = types.Graduated
		bid := types.Bid{MaxPrice: types.PriceFromUint64(1_500)}
		if err := ExitPartiallyFilled(bid, state, cfg); err != nil {
			t.Fatalf("expected ok, got %v", err)
		}
	})

	t.Run("graduated not ended ITM rejected", func(t *testing.T) {
		state := baseState(180, 1_000)
		state.Graduation = types.Graduated
		bid := types.Bid{MaxPrice: types.PriceFromUint64(1_500)}
		if kindOf(t, ExitPartiallyFilled(bid, state, cfg)) != types.BidNotOutbid {
			t.Fatalf("expected BidNotOutbid")
		}
	})

	t.Run("graduated ended ITM rejected as BidIsITM", func(t *testing.T) {
		state := baseState(205, 1_000)
		state.Graduation = types.Graduated
		bid := types.Bid{MaxPrice: types.PriceFromUint64(1_500)}
		if kindOf(t, ExitPartiallyFilled(bid, state, cfg)) != types.BidIsITM {
			t.Fatalf("expected BidIsITM")
		}
	})

	t.Run("graduated ended OTM passes", func(t *testing.T) {
		state := baseState(205, 2_000)
		state.Graduation = types.Graduated
		bid := types.Bid{MaxPrice: types.PriceFromUint64(1_500)}
		if err := ExitPartiallyFilled(bid, state, cfg); err != nil {
			t.Fatalf("expected ok, got %v", err)
		}
	})

	t.Run("not graduated ended use exit bid", func(t *testing.T) {
		state := baseState(205, 2_000)
		bid := types.Bid{MaxPrice: types.PriceFromUint64(1_500)}
		if kindOf(t, ExitPartiallyFilled(bid, state, cfg)) != types.UseExitBidForRefund {
			t.Fatalf("expected UseExitBidForRefund")
		}
	})

	t.Run("not graduated not ended cannot exit", func(t *testing.T) {
		state := baseState(150, 2_000)
		bid := types.Bid{MaxPrice: types.PriceFromUint64(1_500)}
		if kindOf(t, ExitPartiallyFilled(bid, state, cfg)) != types.CannotPartiallyExitBeforeGraduation {
			t.Fatalf("expected CannotPartiallyExitBeforeGraduation")
		}
	})

	t.Run("already exited rejected first", func(t *testing.T) {
		state := baseState(150, 2_000)
		block := types.BlockNumber(140)
		bid := types.Bid{MaxPrice: types.PriceFromUint64(1_500), ExitedBlock: &block}
		if kindOf(t, ExitPartiallyFilled(bid, state, cfg)) != types.BidAlreadyExited {
			t.Fatalf("expected BidAlreadyExited")
		}
	})
}

func TestClaim(t *testing.T) {
	cfg := baseConfig()
	owner := common.HexToAddress("0x1")
	exitBlock := types.BlockNumber(205)

	t.Run("happy path", func(t *testing.T) {
		state := baseState(215, 2_000)
		state.Graduation = types.Graduated
		bids := []types.Bid{
			{Owner: owner, ExitedBlock: &exitBlock, TokensFilled: types.TokenAmountFromUint64(10)},
			{Owner: owner, ExitedBlock: &exitBlock, TokensFilled: types.TokenAmountFromUint64(20)},
		}
		if err := Claim(bids, owner, state, cfg); err != nil {
			t.Fatalf("expected ok, got %v", err)
		}
	})

	t.Run("block not reached", func(t *testing.T) {
		state := baseState(205, 2_000)
		state.Graduation = types.Graduated
		if kindOf(t, Claim(nil, owner, state, cfg)) != types.ClaimBlockNotReached {
			t.Fatalf("expected ClaimBlockNotReached")
		}
	})

	t.Run("not graduated", func(t *testing.T) {
		state := baseState(215, 2_000)
		if kindOf(t, Claim(nil, owner, state, cfg)) != types.NotGraduatedErr {
			t.Fatalf("expected NotGraduatedErr")
		}
	})

	t.Run("bid not exited", func(t *testing.T) {
		state := baseState(215, 2_000)
		state.Graduation = types.Graduated
		bids := []types.Bid{{Owner: owner}}
		if kindOf(t, Claim(bids, owner, state, cfg)) != types.BidNotExited {
			t.Fatalf("expected BidNotExited")
		}
	})

	t.Run("owner mismatch", func(t *testing.T) {
		state := baseState(215, 2_000)
		state.Graduation = types.Graduated
		bids := []types.Bid{{Owner: common.HexToAddress("0x2"), ExitedBlock: &exitBlock, TokensFilled: types.TokenAmountFromUint64(5)}}
		if kindOf(t, Claim(bids, owner, state, cfg)) != types.OwnerMismatch {
			t.Fatalf("expected OwnerMismatch")
		}
	})
}
