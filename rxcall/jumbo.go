package rxcall

import "time"

// splitJumbo expands a jumbo-carrying DATA packet into a sequence of
// per-subpacket DATA units, walking the buffer and peeling off fixed-size
// leading chunks until the final, non-jumbo remainder is reached.
//
// pkt is released exactly once, regardless of how many logical subpackets
// are produced from it.
func (c *Call) splitJumbo(pkt PacketView, now time.Time) error {
	defer pkt.Release()

	hdr := pkt.Header()
	seq := hdr.Seq
	serial := hdr.Serial
	flags := hdr.Flags
	body := pkt.Body()

	for flags.Has(FlagJumboPacket) {
		if len(body) < JumboSubpktLen+jumboHeaderLen {
			return newProtocolError("VLD", seq)
		}
		if flags.Has(FlagLastPacket) {
			// LAST flag is only legal on the final, non-jumbo remainder.
			return newProtocolError("VLD", seq)
		}

		if err := c.receiveData(seq, serial, flags&^FlagJumboPacket, true, now); err != nil {
			return err
		}

		body = body[JumboSubpktLen:]
		next, err := decodeJumboHeader(body)
		if err != nil {
			return newProtocolError("VLD", seq)
		}
		body = body[jumboHeaderLen:]

		seq = seq.Add(1)
		serial = Serial(uint32(serial) + 1)
		flags = next.Flags
	}

	// Final (non-jumbo) remainder, processed as an ordinary DATA packet.
	return c.receiveData(seq, serial, flags, false, now)
}
