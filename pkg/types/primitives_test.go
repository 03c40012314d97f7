package types

import "testing"

func TestClampToNearestTickRoundsToNearerNeighbor(t *testing.T) {
	spacing := TickSpacingFromUint64(10)
	floor := PriceFromUint64(0)
	cap := PriceFromUint64(1000)

	cases := []struct {
		name string
		p    uint64
		want uint64
	}{
		{"already aligned", 100, 100},
		{"rounds down when nearer", 101, 100},
		{"rounds up when nearer", 108, 110},
		{"tie rounds down", 105, 100},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := PriceFromUint64(tc.p).ClampToNearestTick(spacing, floor, cap)
			if !got.Eq(PriceFromUint64(tc.want)) {
				t.Fatalf("ClampToNearestTick(%d) = %s, want %d", tc.p, got, tc.want)
			}
		})
	}
}

func TestClampToNearestTickClampsToCapAndFloor(t *testing.T) {
	spacing := TickSpacingFromUint64(10)
	floor := PriceFromUint64(50)
	cap := PriceFromUint64(195)

	if got := PriceFromUint64(500).ClampToNearestTick(spacing, floor, cap); !got.Eq(cap) {
		t.Fatalf("expected clamp to cap, got %s", got)
	}
	if got := PriceFromUint64(10).ClampToNearestTick(spacing, floor, cap); !got.Eq(floor) {
		t.Fatalf("expected clamp to floor, got %s", got)
	}
	// 196 rounds up to the 200 tick, past the 195 cap, so it must clamp
	// down to the cap rather than returning the out-of-range candidate.
	if got := PriceFromUint64(196).ClampToNearestTick(spacing, floor, cap); !got.Eq(cap) {
		t.Fatalf("expected rounded-up candidate to clamp to cap, got %s", got)
	}
}

func TestAddTicksN(t *testing.T) {
	spacing := TickSpacingFromUint64(5)
	got := PriceFromUint64(100).AddTicksN(spacing, 3)
	if want := PriceFromUint64(115); !got.Eq(want) {
		t.Fatalf("AddTicksN(5, 3) from 100 = %s, want %s", got, want)
	}
	if got := PriceFromUint64(100).AddTicksN(spacing, 0); !got.Eq(PriceFromUint64(100)) {
		t.Fatalf("AddTicksN with n=0 should be a no-op, got %s", got)
	}
}
