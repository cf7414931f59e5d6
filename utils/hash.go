package utils

// Bob Jenkins lookup8 mixing, as used by Diesel idstrings.
func mix64(a, b, c uint64) (uint64, uint64, uint64) {
	a -= b
	a -= c
	a ^= c >> 43
	b -= c
	b -= a
	b ^= a << 9
	c -= a
	c -= b
	c ^= b >> 8
	a -= b
	a -= c
	a ^= c >> 38
	b -= c
	b -= a
	b ^= a << 23
	c -= a
	c -= b
	c ^= b >> 5
	a -= b
	a -= c
	a ^= c >> 35
	b -= c
	b -= a
	b ^= a << 49
	c -= a
	c -= b
	c ^= b >> 11
	a -= b
	a -= c
	a ^= c >> 12
	b -= c
	b -= a
	b ^= a << 18
	c -= a
	c -= b
	c ^= b >> 22
	return a, b, c
}

func le64(k []byte) uint64 {
	var v uint64
	for i := len(k) - 1; i >= 0; i-- {
		v = v<<8 | uint64(k[i])
	}
	return v
}

// Hash64 is lookup8 hash() over k with the given level.
func Hash64(k []byte, level uint64) uint64 {
	length := uint64(len(k))
	a, b := level, level
	c := uint64(0x9e3779b97f4a7c13)

	for len(k) >= 24 {
		a += le64(k[0:8])
		b += le64(k[8:16])
		c += le64(k[16:24])
		a, b, c = mix64(a, b, c)
		k = k[24:]
	}

	c += length
	// the low byte of c is reserved for the length
	switch {
	case len(k) > 16:
		c += le64(k[16:]) << 8
		b += le64(k[8:16])
		a += le64(k[0:8])
	case len(k) > 8:
		b += le64(k[8:])
		a += le64(k[0:8])
	default:
		a += le64(k)
	}
	_, _, c = mix64(a, b, c)
	return c
}

// HashString hashes a name the way the engine hashes idstrings.
func HashString(s string) uint64 {
	return Hash64(EncodeName(s), 0)
}
