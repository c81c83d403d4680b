package openpgp

import (
	"crypto/sha1"
	"encoding/binary"

	"golang.org/x/crypto/curve25519"
)

// EncryptKey represents an X25519 ECDH encryption subkey (algorithm
// 18, RFC 4880bis), the counterpart to SignKey's EdDSA. Reconstructed
// from signkey.go's SelfSign/Bind call sites, which reference an
// *EncryptKey not present among the retrieved teacher files; curve25519
// is already pulled in transitively via golang.org/x/crypto alongside
// ed25519.
type EncryptKey struct {
	priv    [32]byte
	pub     [32]byte
	created int64
	expires int64
	packet  []byte
}

// ecdhOID is the OpenPGP algorithm OID for Curve25519, RFC 4880bis
// section 9.2's ECC curve registry.
var ecdhOID = []byte{0x2b, 0x06, 0x01, 0x04, 0x01, 0x97, 0x55, 0x01, 0x05, 0x01}

// Generate creates a fresh X25519 key pair from the given 32-byte seed.
func (k *EncryptKey) Generate(seed []byte) error {
	copy(k.priv[:], seed)
	// Clamp per RFC 7748, matching the teacher's ed25519 seed handling
	// convention of deriving everything from an opaque 32-byte seed.
	k.priv[0] &= 248
	k.priv[31] &= 127
	k.priv[31] |= 64
	pub, err := curve25519.X25519(k.priv[:], curve25519.Basepoint)
	if err != nil {
		return err
	}
	copy(k.pub[:], pub)
	k.packet = nil
	return nil
}

// Created returns the key's creation date in unix epoch seconds.
func (k *EncryptKey) Created() int64 { return k.created }

// SetCreated sets the creation date in unix epoch seconds.
func (k *EncryptKey) SetCreated(t int64) {
	k.created = t
	k.packet = nil
}

// Expires returns the key's expiration time in unix epoch seconds. A
// value of zero means the key doesn't expire.
func (k *EncryptKey) Expires() int64 { return k.expires }

// SetExpires sets the key's expiration time in unix epoch seconds.
func (k *EncryptKey) SetExpires(t int64) { k.expires = t }

// Packet returns an OpenPGP secret subkey packet (tag 7, unencrypted)
// for this key, mirroring SignKey.Packet()'s hand-rolled construction.
func (k *EncryptKey) Packet() []byte {
	be := binary.BigEndian
	if k.packet != nil {
		return k.packet
	}

	pub := k.PubPacket()
	pkt := make([]byte, len(pub))
	copy(pkt, pub)
	pkt[0] = 0xc0 | 7 // Secret-Subkey Packet (7)

	pkt = append(pkt, 0) // string-to-key usage, unencrypted
	mpikey := mpiEncode(k.priv[:])
	pkt = append(pkt, mpikey...)
	var cksum [2]byte
	be.PutUint16(cksum[:], checksum16(mpikey))
	pkt = append(pkt, cksum[:]...)

	pkt[1] = byte(len(pkt) - 2)
	k.packet = pkt
	return pkt
}

// PubPacket returns the public subkey packet (tag 14) for this key.
func (k *EncryptKey) PubPacket() []byte {
	be := binary.BigEndian
	pkt := make([]byte, 0, 64)
	pkt = append(pkt, 0xc0|14, 0) // header, length patched below
	pkt = append(pkt, 0x04)       // version 4
	var ts [4]byte
	be.PutUint32(ts[:], uint32(k.created))
	pkt = append(pkt, ts[:]...)
	pkt = append(pkt, 18) // algorithm, ECDH
	pkt = append(pkt, byte(len(ecdhOID)))
	pkt = append(pkt, ecdhOID...)
	// MPI point, prefixed with the 0x40 "native point" tag byte used
	// by Curve25519 OpenPGP keys.
	point := append([]byte{0x40}, k.pub[:]...)
	pkt = append(pkt, mpiEncode(point)...)
	// KDF parameters: length, reserved, hash=SHA-256, cipher=AES-128
	pkt = append(pkt, 3, 1, 8, 7)
	pkt[1] = byte(len(pkt) - 2)
	return pkt
}

// KeyID returns the low-8-bytes v4 key ID of this subkey.
func (k *EncryptKey) KeyID() []byte {
	pub := k.PubPacket()
	h := sha1.New()
	h.Write([]byte{0x99, 0, byte(len(pub) - 2)})
	h.Write(pub[2:])
	sum := h.Sum(nil)
	return sum[len(sum)-8:]
}

