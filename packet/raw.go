package packet

import "bytes"

// RawPacket is a single decoded header-plus-body pair, used by
// higher-level code (openpgp's SignKey/EncryptKey) that hand-builds
// small packets in memory and needs to split or inspect them without
// running the full Parser/Stack machinery.
type RawPacket struct {
	Tag  Tag
	Body []byte
}

// ParsePacket decodes one packet (of either format) from the front of
// data and returns it along with whatever bytes follow it. Mirrors
// KAction-passphrase2pgp's top-level ParsePacket helper (referenced by
// signkey.go's Certify but not present in the two vendored files),
// rebuilt here on top of the shared header codec instead of ad hoc
// offsets.
func ParsePacket(data []byte) (*RawPacket, []byte, error) {
	hdr, err := readHeader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, err
	}
	// Re-derive how many bytes the header itself occupied by
	// re-encoding it; the packets this helper is used for are always
	// short, in-memory, and new-format, so this round trip is exact.
	var hdrLen int
	if hdr.indeterminate {
		return nil, nil, newError(KindMalformed, "RAW", "ParsePacket does not support indeterminate length", nil)
	}
	if hdr.oldFormat {
		hdrLen = len(encodeOldHeader(hdr.tag, int(hdr.length), false))
	} else {
		hdrLen = len(encodeNewHeader(hdr.tag, int(hdr.length)))
	}
	if len(data) < hdrLen+int(hdr.length) {
		return nil, nil, newError(KindMalformed, "RAW", "packet body truncated", nil)
	}
	body := data[hdrLen : hdrLen+int(hdr.length)]
	rest := data[hdrLen+int(hdr.length):]
	return &RawPacket{Tag: hdr.tag, Body: body}, rest, nil
}
