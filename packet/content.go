package packet

// Content is the tagged-union payload of a decoded packet, per spec
// section 3. Each standardized packet type implements it; the method
// exists purely to close the union (a la golang.org/x/tools style
// sealed interfaces) and to let callback code type-switch cheaply.
type Content interface {
	contentTag() Tag
}

// UnsupportedContent is emitted for packet tags this module does not
// decode; the region is skipped and the parse continues (spec section
// 4.E, "Unknown tags").
type UnsupportedContent struct {
	PacketTag Tag
	Length    uint64
}

func (UnsupportedContent) contentTag() Tag { return TagNone }

// OpaqueContent carries a packet body this module recognizes the tag
// of but treats as pass-through (Marker, Trust) or not yet decoded.
type OpaqueContent struct {
	PacketTag Tag
	Body      []byte
}

func (o OpaqueContent) contentTag() Tag { return o.PacketTag }
