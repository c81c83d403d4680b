package openpgp

import (
	"bytes"

	"nullprogram.com/x/openpgp/packet"
)

// UserID is an OpenPGP User ID packet (tag 13): a single UTF-8 string,
// conventionally "Name <email>". Reconstructed here because
// signkey.go's SelfSign takes a *UserID but the type itself was not
// among the retrieved teacher files; its shape follows from the call
// site (userid.Packet() returning a tag-13 packet).
type UserID struct {
	ID string
}

// Packet returns the tag-13 packet encoding of the user ID.
func (u *UserID) Packet() []byte {
	var buf bytes.Buffer
	ci := packet.NewCreateInfo(&buf)
	// WriteUserID cannot fail writing to a bytes.Buffer.
	_ = ci.WriteUserID([]byte(u.ID))
	return buf.Bytes()
}
