package packet

import (
	"io"

	"github.com/pkg/errors"
)

// Parser is the consumer-facing parse_info of spec section 6: owns
// the reader stack, the current region, the callback handler chain,
// and the accumulated error Chain. One Parser instance is never
// shared across goroutines (spec section 5's concurrency model).
type Parser struct {
	stack         Stack
	handlers      Handlers
	errors        Chain
	hashes        HashAccumulator
	depth         int
	compressDepth int
}

// maxCompressionDepth bounds compressed-packet-over-compressed-packet
// recursion (a compression bomb guards against runaway nesting), the
// same shape as subpacket.go's maxRecursionDepth guard for embedded
// signature subpackets.
const maxCompressionDepth = 16

// NewParser creates a Parser with no source installed; call
// SetSource or PushLayer before Parse.
func NewParser() *Parser {
	return &Parser{}
}

// SetSource installs r as the bottom of the reader stack.
func (p *Parser) SetSource(r io.Reader) {
	p.stack.Push(NewIOLayer(r))
}

// PushLayer installs an additional layer on top of the stack (e.g. an
// armor decoder in front of the raw byte source).
func (p *Parser) PushLayer(l Layer) {
	p.stack.Push(l)
}

// SetCallback registers cb as the (first) event handler.
func (p *Parser) SetCallback(cb Callback) {
	p.handlers.Push(cb)
}

// AddHash registers an active signature-hash context; literal-data
// bytes seen by Parse will be written into it.
func (p *Parser) AddHash(h interface{ Write([]byte) (int, error) }) {
	// accept the narrow io.Writer-shaped hash.Hash without importing
	// "hash" here to keep Parser's public surface small; HashAccumulator
	// does the real bookkeeping.
	if hh, ok := h.(interface {
		Write([]byte) (int, error)
		Sum([]byte) []byte
		Reset()
		Size() int
		BlockSize() int
	}); ok {
		p.hashes.Add(hh)
	}
}

// Errors returns the accumulated error chain after Parse returns.
func (p *Parser) Errors() []*Error {
	return p.errors.Errors()
}

// Parse runs the top loop of spec section 4.E: read header, construct
// region, dispatch on tag, emit callbacks, verify region, repeat until
// EOF, Stop, Abort, or an unrecoverable error.
func (p *Parser) Parse() error {
	return p.parseStream()
}

// parseStream drives parseOnePacket until a clean EOF or a terminal
// disposition. It is also the recursion target for a compressed
// packet's decompressed substream (spec section 4.E: "the parser
// pushes a decompression reader layer ... and recursively invokes
// itself"), so it must not assume it is only ever called once per
// Parser.
func (p *Parser) parseStream() error {
	for {
		done, err := p.parseOnePacket()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// parseOnePacket reads and dispatches a single packet. Any layer
// pushed for the duration of this one packet (a partial-body stitch)
// is popped before returning, via defer scoped to this call rather
// than to the enclosing loop — a defer inside Parse's old for-loop
// left the layer on the stack until the whole parse finished, which
// corrupted header reads for every packet after a partial-body one.
func (p *Parser) parseOnePacket() (done bool, err error) {
	hdr, herr := readHeader(topReader{p})
	if herr != nil {
		if isCleanEOF(herr) {
			return true, nil
		}
		return false, p.fail(toError(herr))
	}

	reg := regionInit(nil, hdr.length, hdr.indeterminate)
	if hdr.indeterminate && !hdr.oldFormat {
		// New-format partial-body: splice a transparent stitching
		// layer in front of the packet body so the rest of the
		// parser sees one continuous stream.
		p.stack.Push(NewPartialBodyLayer(&belowReader{stack: &p.stack}, hdr.length))
		defer p.stack.Pop()
	}

	disp := p.handlers.Dispatch(Event{Kind: EventStart, Tag: hdr.tag})
	if disp == Abort {
		return false, p.fail(ErrCallbackAbort)
	}
	if disp == Stop {
		return true, nil
	}

	content, perr := p.parseBody(hdr, reg)
	if perr != nil {
		if perr.Recoverable() {
			p.errors.Append(perr)
			ev := Event{Kind: EventUnsupported, Tag: hdr.tag, Err: perr}
			if p.handlers.Dispatch(ev) == Abort {
				return false, p.fail(ErrCallbackAbort)
			}
			if err := p.skipRegion(reg); err != nil {
				return false, p.fail(toError(err))
			}
			return false, nil
		}
		return false, p.fail(perr)
	}

	ev := Event{Kind: EventContent, Tag: hdr.tag, Content: content}
	switch p.handlers.Dispatch(ev) {
	case Abort:
		return false, p.fail(ErrCallbackAbort)
	case Stop:
		return true, nil
	}

	// parseCompressedBody already checked that the decompressor and the
	// region boundary coincide, via VerifyEndOfStream; skip the generic
	// exhaustion check for it rather than relying on region bookkeeping
	// that flows through an extra decompression layer.
	if hdr.tag != TagCompressed && !hdr.indeterminate && !reg.exhausted() {
		return false, p.fail(ErrPacketNotConsumed)
	}

	if p.handlers.Dispatch(Event{Kind: EventEnd, Tag: hdr.tag}) == Abort {
		return false, p.fail(ErrCallbackAbort)
	}
	return false, nil
}

func (p *Parser) fail(err *Error) error {
	p.errors.Append(err)
	return err
}

// topReader adapts the Parser's stack top into an io.Reader for the
// header codec, which predates the Layer abstraction and works
// naturally over io.Reader.
type topReader struct{ p *Parser }

func (t topReader) Read(dst []byte) (int, error) {
	top := t.p.stack.Top()
	if top == nil {
		return 0, io.EOF
	}
	if err := top.Pull(dst); err != nil {
		return 0, err
	}
	return len(dst), nil
}

func isCleanEOF(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

func toError(err error) *Error {
	if e, ok := err.(*Error); ok {
		return e
	}
	return newError(KindIO, "IO", "%s", err)
}

// skipRegion discards the remainder of an unsupported packet's body.
func (p *Parser) skipRegion(r *region) error {
	if r.indeterminate {
		return nil
	}
	remaining := r.remaining()
	buf := make([]byte, 4096)
	for remaining > 0 {
		n := int64(len(buf))
		if remaining < n {
			n = remaining
		}
		if err := p.stack.LimitedRead(buf[:n], r); err != nil {
			return err
		}
		remaining -= n
	}
	return nil
}

// parseBody dispatches on tag and decodes the packet body, per spec
// section 4.E. Unknown tags return an UnsupportedContent wrapped in a
// recoverable *Error.
func (p *Parser) parseBody(hdr header, reg *region) (Content, *Error) {
	body := &regionReader{stack: &p.stack, region: reg, hashes: &p.hashes, tag: hdr.tag}

	switch hdr.tag {
	case TagSignature:
		sig, err := parseSignature(body, p.depth)
		return wrapErr(sig, err)
	case TagOnePassSignature:
		ops, err := parseOnePassSignature(body)
		return wrapErr(ops, err)
	case TagPublicKey, TagPublicSubkey:
		pk, err := parsePublicKey(body, hdr.tag)
		return wrapErr(pk, err)
	case TagSecretKey, TagSecretSubkey:
		sk, err := parseSecretKey(body, hdr.tag)
		return wrapErr(sk, err)
	case TagUserID:
		b, ioerr := io.ReadAll(body)
		if ioerr != nil {
			return nil, newError(KindIO, "UID", "reading user id", ioerr)
		}
		return UserIDPacket{ID: b}, nil
	case TagUserAttribute:
		ua, err := parseUserAttribute(body)
		return wrapErr(ua, err)
	case TagLiteral:
		lit, err := parseLiteral(body)
		return wrapErr(lit, err)
	case TagMarker:
		if _, ioerr := io.Copy(io.Discard, body); ioerr != nil {
			return nil, newError(KindIO, "MRK", "reading marker", ioerr)
		}
		return MarkerPacket{}, nil
	case TagTrust:
		b, ioerr := io.ReadAll(body)
		if ioerr != nil {
			return nil, newError(KindIO, "TRU", "reading trust packet", ioerr)
		}
		return TrustPacket{Body: b}, nil
	case TagPKESK:
		pk, err := parsePKESK(body)
		return wrapErr(pk, err)
	case TagSKESK:
		sk, err := parseSKESK(body)
		return wrapErr(sk, err)
	case TagSymmetricallyEncrypted:
		se, err := parseSymmetricallyEncrypted(body, false)
		return wrapErr(se, err)
	case TagSymEncryptedIntegrity:
		se, err := parseSymmetricallyEncrypted(body, true)
		return wrapErr(se, err)
	case TagMDC:
		m, err := parseMDC(body)
		return wrapErr(m, err)
	case TagCompressed:
		return p.parseCompressedBody(body, reg)
	default:
		return UnsupportedContent{PacketTag: hdr.tag, Length: hdr.length}, ErrUnsupportedPacket
	}
}

// parseCompressedBody reads a compressed packet's algorithm byte, then
// pushes a decompression reader layer over the remaining region and
// recursively parses the decompressed substream (spec section 4.E),
// mirroring adv_compress.c's ops_reader_push/ops_parse/ops_reader_pop.
// Decompressed sub-packets are dispatched through the same Handlers
// chain as everything else; CompressedPacket itself carries only the
// algorithm, since the decompressed bytes are never the caller's to
// hold onto (they are re-parsed, not returned).
func (p *Parser) parseCompressedBody(r io.Reader, reg *region) (Content, *Error) {
	var algoByte [1]byte
	if _, err := io.ReadFull(r, algoByte[:]); err != nil {
		return nil, newError(KindIO, "ZIP", "reading compression algorithm", err)
	}
	algo := CompressionAlgorithm(algoByte[0])

	if p.compressDepth >= maxCompressionDepth {
		return nil, newError(KindMalformed, "ZIP", "compressed packet nesting too deep", nil)
	}

	layer, err := NewDecompressLayer(&p.stack, reg, algo)
	if err != nil {
		return nil, toError(err)
	}
	p.stack.Push(layer)
	p.compressDepth++
	nerr := p.parseStream()
	p.compressDepth--

	verr := layer.(*decompressLayer).VerifyEndOfStream()
	p.stack.Pop()

	if nerr != nil {
		return nil, toError(nerr)
	}
	if verr != nil {
		return nil, toError(verr)
	}
	return CompressedPacket{Algo: algo}, nil
}

// wrapErr converts a (*T, error) decoder result into (Content, *Error),
// handling the generic-pointer-to-Content boilerplate in one place.
func wrapErr[T Content](v T, err error) (Content, *Error) {
	if err != nil {
		if e, ok := err.(*Error); ok {
			return nil, e
		}
		return nil, newError(KindMalformed, "PKT", "%s", err)
	}
	return v, nil
}

// regionReader adapts a Stack+region pair into an io.Reader for the
// per-packet decoders, which work over plain io.Reader for clarity
// (mirroring the a8a4ecf1_perkeep-perkeep readSignaturePacket/
// readPublicKeyPacket style of taking an io.Reader). Literal-data
// bytes pulled through it are fanned into the active hash contexts.
type regionReader struct {
	stack  *Stack
	region *region
	hashes *HashAccumulator
	tag    Tag

	// payload gates the literal-data hash tap: parseLiteral flips this
	// once it has consumed the format byte, filename-length, filename,
	// and timestamp, so only the literal's actual payload bytes (plus
	// the v4 trailer appended at FinishV4 time) reach the active hash
	// contexts, per spec section 4.G/8's exact-byte coverage invariant.
	payload bool
}

// startPayload marks the start of a literal packet's payload region.
// Called by parseLiteral via a type assertion once the packet's own
// header fields have been read through this reader.
func (r *regionReader) startPayload() { r.payload = true }

func (r *regionReader) Read(dst []byte) (int, error) {
	remaining := r.region.remaining()
	n := len(dst)
	if !r.region.indeterminate {
		if remaining == 0 {
			return 0, io.EOF
		}
		if int64(n) > remaining {
			n = int(remaining)
		}
	} else if n > 1 {
		// An indeterminate region (partial-body packet, or an
		// old-format packet with no declared length) has no
		// remaining() to clamp against, and the Layer.Pull contract
		// below fills its request completely or fails outright —
		// asking for more than is actually left would silently drop
		// whatever bytes were available right before the stream's
		// true end. Pull a byte at a time so the terminal read
		// always lands on an empty, cleanly-EOF'd request instead of
		// an oversized one that partially succeeds then errors.
		n = 1
	}
	if err := r.stack.LimitedRead(dst[:n], r.region); err != nil {
		if r.region.indeterminate && isCleanEOF(err) {
			return 0, io.EOF
		}
		return 0, err
	}
	if r.tag == TagLiteral && r.payload {
		r.hashes.Write(dst[:n])
	}
	return n, nil
}
