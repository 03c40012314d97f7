package strategy

import "math/big"

// maxUint256 returns 2^256-1, used to exercise CurrencyAmount overflow paths.
func maxUint256() *big.Int {
	max := new(big.Int).Lsh(big.NewInt(1), 256)
	return max.Sub(max, big.NewInt(1))
}
