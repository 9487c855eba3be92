package rxcall

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

// defaultSecurity is a keyed-MAC "unshare" stand-in for a real krb5-based
// security class. It verifies a trailing keyed digest and is useful for
// headless tests and as a security_index==0-equivalent default; production
// deployments supply their own Security implementation.
type defaultSecurity struct {
	key [32]byte
}

// NewDefaultSecurity returns a Security implementation that checks a
// trailing blake2b-256 keyed MAC over the packet body, truncated to 16
// bytes on the wire.
func NewDefaultSecurity(key [32]byte) Security {
	return &defaultSecurity{key: key}
}

const macTagLen = 16

func (s *defaultSecurity) Unshare(pkt PacketView) error {
	body := pkt.Body()
	if len(body) < macTagLen {
		return errShortHeader
	}
	payload, tag := body[:len(body)-macTagLen], body[len(body)-macTagLen:]

	mac, err := blake2b.New(macTagLen, s.key[:])
	if err != nil {
		return err
	}
	hdr := pkt.Header()
	var hdrBuf [8]byte
	binary.BigEndian.PutUint32(hdrBuf[0:4], uint32(hdr.Serial))
	binary.BigEndian.PutUint32(hdrBuf[4:8], uint32(hdr.Seq))
	mac.Write(hdrBuf[:])
	mac.Write(payload)
	sum := mac.Sum(nil)

	if !constantTimeEqual(sum, tag) {
		return errDropSegment
	}
	return nil
}

func constantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var v byte
	for i := range a {
		v |= a[i] ^ b[i]
	}
	return v == 0
}
