// Package units converts between wei and the human readable ether and gwei
// denominations.
package units

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

const (
	GweiDecimals  = 9
	EtherDecimals = 18
)

var ErrInvalidValue = fmt.Errorf("invalid value")

// ParseEther converts a decimal ether string such as "0.007" to wei.
func ParseEther(value string) (*big.Int, error) {
	return parse(value, EtherDecimals)
}

// ParseGwei converts a decimal gwei string such as "20.5" to wei.
func ParseGwei(value string) (*big.Int, error) {
	return parse(value, GweiDecimals)
}

// FromEther converts a decimal ether amount to wei, truncating fractions of a
// wei.
func FromEther(value decimal.Decimal) *big.Int {
	return value.Shift(EtherDecimals).BigInt()
}

func ToEther(wei *big.Int) decimal.Decimal {
	return toDecimal(wei, EtherDecimals)
}

func ToGwei(wei *big.Int) decimal.Decimal {
	return toDecimal(wei, GweiDecimals)
}

// FormatEther renders wei as an ether string without trailing zeros.
func FormatEther(wei *big.Int) string {
	return ToEther(wei).String()
}

func parse(value string, decimals int32) (*big.Int, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidValue, err.Error())
	}

	if d.IsNegative() {
		return nil, fmt.Errorf("%w: negative amount %s", ErrInvalidValue, value)
	}

	shifted := d.Shift(decimals)
	if !shifted.Equal(shifted.Truncate(0)) {
		return nil, fmt.Errorf("%w: %s has more than %d decimals", ErrInvalidValue, value, decimals)
	}

	return shifted.BigInt(), nil
}

func toDecimal(wei *big.Int, decimals int32) decimal.Decimal {
	if wei == nil {
		return decimal.Zero
	}

	return decimal.NewFromBigInt(wei, -decimals)
}
