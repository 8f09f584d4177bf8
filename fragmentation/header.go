package fragmentation

import "encoding/binary"

// The engine never walks IPv6 extension headers or the fragment header
// itself (spec.md §1, "out of scope"); the only wire-level knowledge it
// needs is the layout of the fixed 40-byte IPv6 header it stashes as the
// unfragmentable part, so it can patch two fields — the next-header byte
// when the header is stashed and the payload length on completion
// (spec.md §4.6 step 7, §4.7) — the way the original's
// "(struct ip6_hdr*) flow->unfragmentable" casts did.
const (
	ipv6HeaderSize       = 40
	ipv6PayloadLenOffset = 4 // 2 bytes, network byte order
	ipv6NextHeaderOffset = 6 // 1 byte
)

// patchNextHeader overwrites the next-header byte of an IPv6 header
// stashed as the unfragmentable part, so the reassembled datagram is
// ready for the upper-layer parser and carries no trace of the fragment
// header (spec.md §4.6 step 7).
func patchNextHeader(unfragmentable []byte, nextHeader uint8) {
	if len(unfragmentable) > ipv6NextHeaderOffset {
		unfragmentable[ipv6NextHeaderOffset] = nextHeader
	}
}

// patchPayloadLength overwrites the payload-length field of an IPv6
// header with count+unfragmentableLength-ipv6HeaderSize, in network
// byte order (spec.md §4.7).
func patchPayloadLength(unfragmentable []byte, payloadLen uint16) {
	if len(unfragmentable) >= ipv6PayloadLenOffset+2 {
		binary.BigEndian.PutUint16(unfragmentable[ipv6PayloadLenOffset:], payloadLen)
	}
}
