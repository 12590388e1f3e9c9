package spatial

const base32 = "0123456789bcdefghjkmnpqrstuvwxyz"

// approximate cell width in meters at the equator, indexed by precision
var geohashCellSizes = [...]float64{0, 5000000, 625000, 123000, 19500, 3900, 610, 120, 19, 3.7, 0.6, 0.12, 0.019}

// EncodeGeohash encodes latitude and longitude into a geohash string.
// precision is clamped to 1..12 characters.
func EncodeGeohash(lat, lon float64, precision int) string {
	if precision < 1 {
		precision = 1
	}
	if precision > 12 {
		precision = 12
	}

	latRange := [2]float64{-90, 90}
	lonRange := [2]float64{-180, 180}

	hash := make([]byte, 0, precision)
	bits, ch := 0, 0
	for even := true; len(hash) < precision; even = !even {
		if even {
			mid := (lonRange[0] + lonRange[1]) / 2
			if lon > mid {
				ch |= 1 << (4 - bits)
				lonRange[0] = mid
			} else {
				lonRange[1] = mid
			}
		} else {
			mid := (latRange[0] + latRange[1]) / 2
			if lat > mid {
				ch |= 1 << (4 - bits)
				latRange[0] = mid
			} else {
				latRange[1] = mid
			}
		}

		bits++
		if bits == 5 {
			hash = append(hash, base32[ch])
			bits, ch = 0, 0
		}
	}
	return string(hash)
}

// GeohashPrecisionForDistance returns the coarsest precision whose cells are
// no wider than distanceMeters
func GeohashPrecisionForDistance(distanceMeters float64) int {
	for precision := 1; precision < len(geohashCellSizes); precision++ {
		if geohashCellSizes[precision] <= distanceMeters {
			return precision
		}
	}
	return 12
}
