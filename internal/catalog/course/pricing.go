// Copyright (c) 2026 Academia. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package course

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/taibuivan/academia/internal/platform/apperr"
	"github.com/taibuivan/academia/internal/platform/constants"
)

/*
ToMinorUnits converts a displayed whole-unit price ("49") into minor units (4900).

The input must be a base-10 integer; fractional parts are separated upstream.
Malformed, negative or overflowing input fails rather than being coerced.

Returns:
  - int64: The price in minor units
  - error: apperr.InvalidPrice
*/
func ToMinorUnits(raw string) (int64, error) {
	value, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || value < 0 {
		return 0, apperr.InvalidPrice(raw)
	}

	if value > math.MaxInt64/constants.MinorUnitsPerMajor {
		return 0, apperr.InvalidPrice(raw)
	}

	return value * constants.MinorUnitsPerMajor, nil
}

// FromMinorUnits renders minor units as a two-decimal string (4900 -> "49.00").
func FromMinorUnits(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%02d", sign, amount/constants.MinorUnitsPerMajor, amount%constants.MinorUnitsPerMajor)
}
