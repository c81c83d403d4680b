package openpgp

import (
	"bytes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha1"
	"io"

	"github.com/pkg/errors"

	"nullprogram.com/x/openpgp/armor"
	"nullprogram.com/x/openpgp/packet"
	"nullprogram.com/x/openpgp/s2k"
)

// defaultEncryptCipher matches signkey.go's own choice of cipher for
// passphrase-protected secret key material: AES-256.
const defaultEncryptCipher = packet.CipherAES256

// mdcHeader is the fixed two-byte new-format header RFC 4880 specifies
// for tag-19 MDC packets (always exactly a 20-byte body): 0xc0|19, 20.
var mdcHeader = []byte{0xd3, 0x14}

// Encrypt produces a passphrase-protected OpenPGP message: an SKESK
// packet carrying the String-to-Key specifier, followed by a
// Symmetrically Encrypted Integrity Protected Data (SEIP) packet
// wrapping a literal-data packet and its MDC trailer, armored as a
// PGP MESSAGE block. Grounded on signkey.go's EncPacket (S2K-derived
// AES-CFB key wrap) generalized to packet.NewBlockCipher's
// multi-algorithm dispatch and extended with the MDC integrity
// trailer symmetrically_encrypted.go's seMDCReader verifies.
func Encrypt(passphrase []byte, src io.Reader) ([]byte, error) {
	plain, err := io.ReadAll(src)
	if err != nil {
		return nil, errors.Wrap(err, "openpgp: reading plaintext")
	}

	cipherAlgo := defaultEncryptCipher
	keySize := cipherAlgo.KeySize()

	salt := make([]byte, 8)
	if _, err := rand.Read(salt); err != nil {
		return nil, errors.Wrap(err, "openpgp: generating salt")
	}
	count := s2k.EncodeCount(1 << 20)
	sp := &s2k.Specifier{Mode: s2k.ModeIteratedSalted, HashAlgo: 8, Salt: salt, Count: count}
	key := sp.Derive(passphrase, keySize)

	block, err := packet.NewBlockCipher(cipherAlgo, key)
	if err != nil {
		return nil, errors.Wrap(err, "openpgp: building cipher")
	}

	var litBuf bytes.Buffer
	ci := packet.NewCreateInfo(&litBuf)
	if err := ci.WriteLiteral(&packet.LiteralPacket{Format: packet.LiteralBinary, Body: plain}); err != nil {
		return nil, errors.Wrap(err, "openpgp: building literal packet")
	}

	prefix := make([]byte, block.BlockSize()+2)
	if _, err := rand.Read(prefix[:block.BlockSize()]); err != nil {
		return nil, errors.Wrap(err, "openpgp: generating prefix")
	}
	copy(prefix[block.BlockSize():], prefix[block.BlockSize()-2:block.BlockSize()])

	h := sha1.New()
	h.Write(prefix)
	h.Write(litBuf.Bytes())
	h.Write(mdcHeader)
	sum := h.Sum(nil)

	plaintext := append(append(append([]byte{}, prefix...), litBuf.Bytes()...), mdcHeader...)
	plaintext = append(plaintext, sum...)

	iv := make([]byte, block.BlockSize())
	stream := cipher.NewCFBEncrypter(block, iv)
	ciphertext := make([]byte, len(plaintext))
	stream.XORKeyStream(ciphertext, plaintext)

	var out bytes.Buffer
	oci := packet.NewCreateInfo(&out)
	skesk := &packet.SKESKPacket{
		Version:    4,
		CipherAlgo: cipherAlgo,
		S2K:        &packet.S2KSpecifier{Type: byte(sp.Mode), Raw: sp.Encode()},
	}
	if err := oci.WriteSKESK(skesk); err != nil {
		return nil, errors.Wrap(err, "openpgp: writing SKESK packet")
	}
	seip := &packet.SymmetricallyEncryptedPacket{MDC: true, Ciphertext: ciphertext}
	if err := oci.WriteSymmetricallyEncrypted(seip); err != nil {
		return nil, errors.Wrap(err, "openpgp: writing SEIP packet")
	}

	var armored bytes.Buffer
	if err := armor.Encode(&armored, armor.TypeMessage, nil, out.Bytes()); err != nil {
		return nil, errors.Wrap(err, "openpgp: armor message")
	}
	return armored.Bytes(), nil
}

// Decrypt reverses Encrypt: it dearmors data if needed, decrypts the
// SEIP payload with the passphrase-derived session key, verifies the
// MDC trailer, and returns the literal packet's payload bytes.
func Decrypt(passphrase []byte, data []byte) ([]byte, error) {
	if bytes.HasPrefix(bytes.TrimLeft(data, "\r\n\t "), []byte("-----BEGIN")) {
		block, err := Dearmor(data)
		if err != nil {
			return nil, err
		}
		data = block.Bytes
	}

	rawSKESK, rest, err := packet.ParsePacket(data)
	if err != nil {
		return nil, errors.Wrap(err, "openpgp: parsing SKESK packet")
	}
	if rawSKESK.Tag != packet.TagSKESK {
		return nil, errors.New("openpgp: expected an SKESK packet")
	}
	skesk, err := packet.ParseSKESKBody(rawSKESK.Body)
	if err != nil {
		return nil, errors.Wrap(err, "openpgp: decoding SKESK packet")
	}
	if len(skesk.EncryptedSessionKey) != 0 {
		return nil, errors.New("openpgp: SKESK packets with a wrapped session key are not supported")
	}

	rawSEIP, _, err := packet.ParsePacket(rest)
	if err != nil {
		return nil, errors.Wrap(err, "openpgp: parsing SEIP packet")
	}
	if rawSEIP.Tag != packet.TagSymEncryptedIntegrity {
		return nil, errors.New("openpgp: expected a SEIP packet")
	}
	seip, err := packet.ParseSymmetricallyEncryptedBody(rawSEIP.Body, true)
	if err != nil {
		return nil, errors.Wrap(err, "openpgp: decoding SEIP packet")
	}

	sp, _, err := s2k.Parse(skesk.S2K.Raw)
	if err != nil {
		return nil, errors.Wrap(err, "openpgp: decoding S2K specifier")
	}
	key := sp.Derive(passphrase, skesk.CipherAlgo.KeySize())

	block, err := packet.NewBlockCipher(skesk.CipherAlgo, key)
	if err != nil {
		return nil, errors.Wrap(err, "openpgp: building cipher")
	}

	iv := make([]byte, block.BlockSize())
	stream := cipher.NewCFBDecrypter(block, iv)
	plaintext := make([]byte, len(seip.Ciphertext))
	stream.XORKeyStream(plaintext, seip.Ciphertext)

	prefixLen := block.BlockSize() + 2
	if len(plaintext) < prefixLen+len(mdcHeader)+sha1.Size {
		return nil, errors.New("openpgp: decrypted payload too short")
	}
	trailer := plaintext[len(plaintext)-len(mdcHeader)-sha1.Size:]
	body := plaintext[prefixLen : len(plaintext)-len(mdcHeader)-sha1.Size]

	if !bytes.Equal(trailer[:len(mdcHeader)], mdcHeader) {
		return nil, errors.New("openpgp: missing MDC packet header")
	}
	h := sha1.New()
	h.Write(plaintext[:prefixLen])
	h.Write(body)
	h.Write(mdcHeader)
	if !bytes.Equal(h.Sum(nil), trailer[len(mdcHeader):]) {
		return nil, packet.ErrBadCrypto
	}

	rawLit, _, err := packet.ParsePacket(body)
	if err != nil {
		return nil, errors.Wrap(err, "openpgp: parsing literal packet")
	}
	if rawLit.Tag != packet.TagLiteral {
		return nil, errors.New("openpgp: expected a literal data packet")
	}
	lit, err := packet.ParseLiteralBody(rawLit.Body)
	if err != nil {
		return nil, errors.Wrap(err, "openpgp: decoding literal packet")
	}
	return lit.Body, nil
}
