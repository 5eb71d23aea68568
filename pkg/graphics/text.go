package graphics

// Justification is a bit set describing horizontal and vertical placement
// of text within an area.
type Justification int

const (
	JustifyLeft                 Justification = 1 << iota
	JustifyRight                              // right edge
	JustifyHorizontallyCentred                // centred across
	JustifyTop                                // top edge
	JustifyBottom                             // bottom edge
	JustifyVerticallyCentred                  // centred down
	JustifyHorizontallyJustified              // stretched to both edges

	JustifyCentred     = JustifyHorizontallyCentred | JustifyVerticallyCentred
	JustifyCentredLeft = JustifyLeft | JustifyVerticallyCentred
	JustifyTopLeft     = JustifyLeft | JustifyTop
)

// TextAttribute applies a font and colour to a byte range of an
// AttributedString. Nil fields fall back to the string's defaults.
type TextAttribute struct {
	Start, End int
	Font       *Font
	Colour     *Colour
}

// AttributedString is text with per-range font and colour attributes and
// layout options.
type AttributedString struct {
	Text          string
	Attributes    []TextAttribute
	Justification Justification
	WordWrap      bool
	LineSpacing   float64
}

// NewAttributedString creates a word-wrapped, top-left justified string.
func NewAttributedString(text string) *AttributedString {
	return &AttributedString{Text: text, Justification: JustifyTopLeft, WordWrap: true}
}

// Append adds text with its own font and colour.
func (s *AttributedString) Append(text string, font Font, colour Colour) {
	start := len(s.Text)
	s.Text += text
	f, c := font, colour
	s.Attributes = append(s.Attributes, TextAttribute{Start: start, End: len(s.Text), Font: &f, Colour: &c})
}

// SetColour applies colour to the whole string, replacing earlier colours.
func (s *AttributedString) SetColour(colour Colour) {
	c := colour
	for i := range s.Attributes {
		s.Attributes[i].Colour = nil
	}
	s.Attributes = append(s.Attributes, TextAttribute{Start: 0, End: len(s.Text), Colour: &c})
}

// SetFont applies font to the whole string, replacing earlier fonts.
func (s *AttributedString) SetFont(font Font) {
	f := font
	for i := range s.Attributes {
		s.Attributes[i].Font = nil
	}
	s.Attributes = append(s.Attributes, TextAttribute{Start: 0, End: len(s.Text), Font: &f})
}

// AttributesAt returns the font and colour in effect at byte offset i.
// Later attributes take precedence over earlier ones.
func (s *AttributedString) AttributesAt(i int) (font *Font, colour *Colour) {
	for _, a := range s.Attributes {
		if i < a.Start || i >= a.End {
			continue
		}
		if a.Font != nil {
			font = a.Font
		}
		if a.Colour != nil {
			colour = a.Colour
		}
	}
	return font, colour
}
