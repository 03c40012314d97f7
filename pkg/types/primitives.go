// Package types defines the domain vocabulary shared across every layer of
// the agent — block heights, on-chain prices and amounts, addresses, and
// the entities built from them. It has no dependency on internal packages
// so it can be imported anywhere.
package types

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ————————————————————————————————————————————————————————————————————————
// BlockNumber
// ————————————————————————————————————————————————————————————————————————

// BlockNumber is a chain height. TailSentinel terminates the on-chain
// checkpoint linked list.
type BlockNumber uint64

// TailSentinel marks "no next node" in the on-chain checkpoint list.
const TailSentinel BlockNumber = BlockNumber(^uint64(0))

func (b BlockNumber) IsTail() bool { return b == TailSentinel }

func (b BlockNumber) String() string { return fmt.Sprintf("%d", uint64(b)) }

// ————————————————————————————————————————————————————————————————————————
// 256-bit primitives, backed by uint256.Int for fixed-width overflow-checked
// arithmetic — see DESIGN.md for why math/big.Int is not used here.
// ————————————————————————————————————————————————————————————————————————

// Price is a Q96 fixed-point bid/clearing price. Ordered; alignment to a
// TickSpacing is checked with IsAligned, never implied by the type alone.
type Price struct{ v uint256.Int }

func PriceFromUint64(v uint64) Price { return Price{v: *uint256.NewInt(v)} }

func PriceFromBig(v *big.Int) Price {
	var u uint256.Int
	u.SetFromBig(v)
	return Price{v: u}
}

func (p Price) Big() *big.Int { return p.v.ToBig() }

func (p Price) Cmp(o Price) int { return p.v.Cmp(&o.v) }
func (p Price) GT(o Price) bool { return p.Cmp(o) > 0 }
func (p Price) GE(o Price) bool { return p.Cmp(o) >= 0 }
func (p Price) LT(o Price) bool { return p.Cmp(o) < 0 }
func (p Price) LE(o Price) bool { return p.Cmp(o) <= 0 }
func (p Price) Eq(o Price) bool { return p.Cmp(o) == 0 }
func (p Price) IsZero() bool    { return p.v.IsZero() }

func (p Price) String() string { return p.v.Dec() }

// AddTicks returns p+d, advancing a price by one whole tick. Prices are not
// generally additive in the domain, so this is exposed narrowly rather than
// via an operator.
func (p Price) AddTicks(d TickSpacing) Price {
	var r uint256.Int
	r.Add(&p.v, &d.v)
	return Price{v: r}
}

// AddTicksN returns p + n*spacing, for strategies that bid a fixed number
// of ticks above some reference price (e.g. the clearing price).
func (p Price) AddTicksN(spacing TickSpacing, n uint64) Price {
	var scaled, r uint256.Int
	scaled.Mul(&spacing.v, uint256.NewInt(n))
	r.Add(&p.v, &scaled)
	return Price{v: r}
}

// IsAligned reports whether p sits on the tick lattice defined by spacing.
func (p Price) IsAligned(spacing TickSpacing) bool {
	if spacing.v.IsZero() {
		return false
	}
	var mod uint256.Int
	mod.Mod(&p.v, &spacing.v)
	return mod.IsZero()
}

// ClampToNearestTick rounds p to whichever neighboring tick-aligned value
// on the lattice anchored at floor (spaced by spacing) is nearer, ties
// rounding down, then clamps the result to cap. Per original_source's
// Price::clamp_to_nearest_tick.
func (p Price) ClampToNearestTick(spacing TickSpacing, floor, cap Price) Price {
	if p.GE(cap) {
		return cap
	}
	if p.LE(floor) {
		return floor
	}

	var offset, rem uint256.Int
	offset.Sub(&p.v, &floor.v)
	rem.Mod(&offset, &spacing.v)
	if rem.IsZero() {
		return p
	}

	var down, up, remainder uint256.Int
	down.Sub(&p.v, &rem)
	up.Add(&down, &spacing.v)
	remainder.Sub(&spacing.v, &rem)

	candidate := down
	if rem.Cmp(&remainder) > 0 {
		candidate = up
	}

	result := Price{v: candidate}
	if result.GT(cap) {
		return cap
	}
	return result
}

// TickSpacing defines the lattice of admissible bid prices above floor_price.
// Minimum valid value is 2.
type TickSpacing struct{ v uint256.Int }

const MinTickSpacing = 2

func TickSpacingFromUint64(v uint64) TickSpacing { return TickSpacing{v: *uint256.NewInt(v)} }

func (t TickSpacing) Big() *big.Int { return t.v.ToBig() }
func (t TickSpacing) IsValid() bool { return t.v.CmpUint64(MinTickSpacing) >= 0 }
func (t TickSpacing) String() string { return t.v.Dec() }

// CurrencyAmount is the auction's quote-asset unit.
type CurrencyAmount struct{ v uint256.Int }

func CurrencyAmountFromUint64(v uint64) CurrencyAmount { return CurrencyAmount{v: *uint256.NewInt(v)} }
func CurrencyAmountFromBig(v *big.Int) CurrencyAmount {
	var u uint256.Int
	u.SetFromBig(v)
	return CurrencyAmount{v: u}
}
func (c CurrencyAmount) Big() *big.Int  { return c.v.ToBig() }
func (c CurrencyAmount) IsZero() bool   { return c.v.IsZero() }
func (c CurrencyAmount) String() string { return c.v.Dec() }
func (c CurrencyAmount) Add(o CurrencyAmount) (CurrencyAmount, bool) {
	var r uint256.Int
	overflow := r.AddOverflow(&c.v, &o.v)
	return CurrencyAmount{v: r}, overflow
}
func (c CurrencyAmount) GE(o CurrencyAmount) bool { return c.v.Cmp(&o.v) >= 0 }

// Sub returns c-o. Panics on underflow — callers only subtract an amount
// already known not to exceed c (see Inventory.Remaining).
func (c CurrencyAmount) Sub(o CurrencyAmount) CurrencyAmount {
	var r uint256.Int
	if r.SubUnderflow(&c.v, &o.v) {
		panic("types: CurrencyAmount underflow")
	}
	return CurrencyAmount{v: r}
}

// TokenAmount is the auctioned-asset unit. Additive with overflow checking.
type TokenAmount struct{ v uint256.Int }

func TokenAmountFromUint64(v uint64) TokenAmount { return TokenAmount{v: *uint256.NewInt(v)} }
func TokenAmountFromBig(v *big.Int) TokenAmount {
	var u uint256.Int
	u.SetFromBig(v)
	return TokenAmount{v: u}
}
func (t TokenAmount) Big() *big.Int  { return t.v.ToBig() }
func (t TokenAmount) IsZero() bool   { return t.v.IsZero() }
func (t TokenAmount) GE(o TokenAmount) bool { return t.v.Cmp(&o.v) >= 0 }
func (t TokenAmount) String() string { return t.v.Dec() }

// Add returns t+o. Panics on overflow — 256-bit token-supply overflow is
// an invariant violation, not a recoverable condition, anywhere this is
// called (summing TokensClaimed logs from a single finite supply).
func (t TokenAmount) Add(o TokenAmount) TokenAmount {
	var r uint256.Int
	if r.AddOverflow(&t.v, &o.v) {
		panic("types: TokenAmount overflow")
	}
	return TokenAmount{v: r}
}

// Mps ("milli-parts of supply") tracks how much of the auctioned supply has
// sold, as a 24-bit fraction of MpsFull.
type Mps uint32

const MpsFull Mps = 10_000_000

func (m Mps) IsSoldOut() bool { return m >= MpsFull }

// BidId is an opaque 256-bit identifier assigned by the auction contract.
type BidId struct{ v uint256.Int }

func BidIdFromUint64(v uint64) BidId { return BidId{v: *uint256.NewInt(v)} }
func BidIdFromBig(v *big.Int) BidId {
	var u uint256.Int
	u.SetFromBig(v)
	return BidId{v: u}
}
func (b BidId) Big() *big.Int  { return b.v.ToBig() }
func (b BidId) Eq(o BidId) bool { return b.v.Cmp(&o.v) == 0 }
func (b BidId) String() string { return b.v.Dec() }

// ————————————————————————————————————————————————————————————————————————
// Addresses
// ————————————————————————————————————————————————————————————————————————

// CurrencyAddr is the ERC-20 address of the auction's quote asset, or the
// zero address for native currency.
type CurrencyAddr common.Address

func (a CurrencyAddr) IsNative() bool       { return a == CurrencyAddr{} }
func (a CurrencyAddr) Address() common.Address { return common.Address(a) }
func (a CurrencyAddr) String() string       { return common.Address(a).Hex() }

// TokenAddr is the ERC-20 address of the auctioned asset.
type TokenAddr common.Address

func (a TokenAddr) Address() common.Address { return common.Address(a) }
func (a TokenAddr) String() string          { return common.Address(a).Hex() }

// HookAddr is the address of an optional ValidationHook contract.
type HookAddr common.Address

func (a HookAddr) IsConfigured() bool          { return a != HookAddr{} }
func (a HookAddr) Address() common.Address     { return common.Address(a) }
func (a HookAddr) String() string              { return common.Address(a).Hex() }
