package utils

import (
	"crypto/rand"
	"errors"
	"strings"
)

// SixIDHookFunc defines the signature for the NewSixID test hook.
// It returns a SixID and a boolean indicating whether to override the default generation.
type SixIDHookFunc func() (id SixID, override bool)

// NewSixIDHook is a package-level variable that tests can set to override NewSixID behavior.
var NewSixIDHook SixIDHookFunc

// SixID is a 6-byte random record id. Records store it in its
// Crockford Base32 string form (see NewID).
type SixID [6]byte

// NewSixID creates a new 6-byte SixID using random data
func NewSixID() SixID {
	if NewSixIDHook != nil {
		if id, override := NewSixIDHook(); override {
			return id
		}
	}

	var id SixID
	if _, err := rand.Read(id[:]); err != nil {
		// fallback to zeros if random fails; inserts retry on collision
		return SixID{}
	}
	return id
}

// NewID returns a fresh record id as a 10 character Crockford Base32 string.
func NewID() string {
	return NewSixID().String()
}

// Crockford Base32 encoding alphabet (uppercase)
const crockfordAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

var crockfordDecodeMap map[byte]byte

func init() {
	crockfordDecodeMap = make(map[byte]byte, 40)
	for i := range crockfordAlphabet {
		crockfordDecodeMap[crockfordAlphabet[i]] = byte(i)
	}
	lower := strings.ToLower(crockfordAlphabet)
	for i := 10; i < len(lower); i++ {
		crockfordDecodeMap[lower[i]] = byte(i)
	}
	// Commonly confused characters
	crockfordDecodeMap['o'] = crockfordDecodeMap['0']
	crockfordDecodeMap['O'] = crockfordDecodeMap['0']
	crockfordDecodeMap['i'] = crockfordDecodeMap['1']
	crockfordDecodeMap['I'] = crockfordDecodeMap['1']
	crockfordDecodeMap['l'] = crockfordDecodeMap['1']
	crockfordDecodeMap['L'] = crockfordDecodeMap['1']
}

// String returns the Crockford Base32 (uppercase) representation of the SixID.
func (u SixID) String() string {
	// 48 bits need ceil(48/5) = 10 characters
	result := make([]byte, 0, 10)
	var bits, offset uint
	for i := 0; i < 6; i++ {
		bits |= uint(u[i]) << offset
		offset += 8
		for offset >= 5 {
			result = append(result, crockfordAlphabet[bits&0x1F])
			bits >>= 5
			offset -= 5
		}
	}
	if offset > 0 {
		result = append(result, crockfordAlphabet[bits&0x1F])
	}
	return string(result)
}

// ParseSixID converts a Crockford Base32 string back to a SixID.
// Hyphens and spaces are ignored.
func ParseSixID(s string) (SixID, error) {
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, " ", "")
	if len(s) != 10 {
		return SixID{}, errors.New("invalid SixID: string length must be 10")
	}

	var id SixID
	var bits uint64
	var offset uint
	byteIndex := 0
	for i := 0; i < 10; i++ {
		val, ok := crockfordDecodeMap[s[i]]
		if !ok {
			return SixID{}, errors.New("invalid character in SixID")
		}
		bits |= uint64(val) << offset
		offset += 5
		for offset >= 8 && byteIndex < 6 {
			id[byteIndex] = byte(bits & 0xFF)
			byteIndex++
			bits >>= 8
			offset -= 8
		}
	}
	if byteIndex != 6 {
		return SixID{}, errors.New("invalid SixID: couldn't decode 6 bytes")
	}
	return id, nil
}

// CanonicalID returns the canonical spelling of a record id typed by hand:
// lower case, hyphens and the O/0 and I/L/1 confusions resolve to the id
// NewID produced. Ids that are not SixIDs, such as the seeded numeric ones,
// come back trimmed but otherwise unchanged.
func CanonicalID(s string) string {
	s = strings.TrimSpace(s)
	if id, err := ParseSixID(s); err == nil {
		return id.String()
	}
	return s
}
