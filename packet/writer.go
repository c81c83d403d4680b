package packet

import "io"

// CreateInfo is the consumer-facing create_info of spec section 6/4.H:
// carries the active sink and an optional stack of writer layers
// (armor, compress, hash-tap). Unlike the read path's Stack, writer
// layers here are a simple ordered slice since writes only ever
// append, never need stacked-substrate reads.
type CreateInfo struct {
	sink   io.Writer
	layers []io.Writer
}

// NewCreateInfo creates a CreateInfo writing to sink.
func NewCreateInfo(sink io.Writer) *CreateInfo {
	return &CreateInfo{sink: sink}
}

// PushLayer installs an additional writer layer (e.g. armor encoder)
// as the new innermost sink; subsequent WritePacket calls write
// through it.
func (c *CreateInfo) PushLayer(w io.Writer) {
	c.layers = append(c.layers, w)
}

func (c *CreateInfo) current() io.Writer {
	if n := len(c.layers); n > 0 {
		return c.layers[n-1]
	}
	return c.sink
}

// WritePacket serializes content with the given tag and writes the
// resulting packet (header + body) to the current sink layer.
func (c *CreateInfo) WritePacket(tag Tag, body []byte) error {
	hdr := encodeNewHeader(tag, len(body))
	w := c.current()
	if _, err := w.Write(hdr); err != nil {
		return newError(KindIO, "WR", "writing packet header", err)
	}
	if _, err := w.Write(body); err != nil {
		return newError(KindIO, "WR", "writing packet body", err)
	}
	return nil
}

// WriteIndeterminate writes an old-format packet with an indeterminate
// length header, then body verbatim with no further framing — used
// for streaming literal data of unknown size during signing, per
// spec section 4.D.
func (c *CreateInfo) WriteIndeterminate(tag Tag, body io.Reader) error {
	w := c.current()
	if _, err := w.Write(encodeOldHeader(tag, 0, true)); err != nil {
		return newError(KindIO, "WR", "writing indeterminate header", err)
	}
	if _, err := io.Copy(w, body); err != nil {
		return newError(KindIO, "WR", "streaming indeterminate body", err)
	}
	return nil
}

// WriteSignature serializes and writes a signature packet.
func (c *CreateInfo) WriteSignature(sig *SignaturePacket) error {
	return c.WritePacket(TagSignature, writeSignature(sig))
}

// WriteOnePassSignature serializes and writes a one-pass signature packet.
func (c *CreateInfo) WriteOnePassSignature(ops *OnePassSignaturePacket) error {
	return c.WritePacket(TagOnePassSignature, writeOnePassSignature(ops))
}

// WriteLiteral serializes and writes a literal-data packet.
func (c *CreateInfo) WriteLiteral(lp *LiteralPacket) error {
	return c.WritePacket(TagLiteral, writeLiteral(lp))
}

// WritePublicKey serializes and writes a public-key (or subkey) packet.
func (c *CreateInfo) WritePublicKey(pk *PublicKeyPacket) error {
	return c.WritePacket(pk.contentTag(), writePublicKey(pk))
}

// WriteUserID serializes and writes a user ID packet.
func (c *CreateInfo) WriteUserID(id []byte) error {
	return c.WritePacket(TagUserID, writeUserID(id))
}

// WritePKESK serializes and writes a PKESK packet.
func (c *CreateInfo) WritePKESK(p *PKESKPacket) error {
	return c.WritePacket(TagPKESK, writePKESK(p))
}

// WriteSKESK serializes and writes an SKESK packet.
func (c *CreateInfo) WriteSKESK(p *SKESKPacket) error {
	return c.WritePacket(TagSKESK, writeSKESK(p))
}

// WriteSymmetricallyEncrypted serializes and writes a tag-9/18 packet.
func (c *CreateInfo) WriteSymmetricallyEncrypted(p *SymmetricallyEncryptedPacket) error {
	return c.WritePacket(p.contentTag(), writeSymmetricallyEncrypted(p))
}

// WriteMDC serializes and writes a tag-19 MDC packet.
func (c *CreateInfo) WriteMDC(m *MDCPacket) error {
	return c.WritePacket(TagMDC, writeMDC(m))
}

// Envelope builds a message whose packets are optionally wrapped in
// one compressed packet; it does not sign or armor them. Its shape follows spec section 9's suggestion
// that "a builder pattern for envelopes (sign -> compress -> armor)
// makes the layering declarative."
type Envelope struct {
	create     *CreateInfo
	compress   CompressionAlgorithm
	compressed *compressWriter
}

// NewEnvelope starts building a message onto ci.
func NewEnvelope(ci *CreateInfo) *Envelope {
	return &Envelope{create: ci}
}

// Compress selects a compression algorithm for the envelope's
// contents; CompressionNone (the default) writes packets directly.
func (e *Envelope) Compress(algo CompressionAlgorithm) *Envelope {
	e.compress = algo
	if algo != CompressionNone {
		e.compressed = NewCompressWriter(algo)
	}
	return e
}

// sink returns where packet bytes should currently be written: either
// directly to the CreateInfo, or buffered for later compression.
func (e *Envelope) sink() *CreateInfo {
	if e.compressed == nil {
		return e.create
	}
	return NewCreateInfo(e.compressed)
}

// Finish flushes any buffered compression and writes the resulting
// compressed packet to the underlying CreateInfo. No-op if
// compression was not selected.
func (e *Envelope) Finish() error {
	if e.compressed == nil {
		return nil
	}
	body, err := e.compressed.Finish()
	if err != nil {
		return err
	}
	return e.create.WritePacket(TagCompressed, body)
}
