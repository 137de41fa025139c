package printer

import (
	"bytes"
	"fmt"
	"strings"
)

// ESC/POS control bytes
const (
	esc = 0x1B
	gs  = 0x1D
	lf  = 0x0A
)

// Align is an ESC a alignment argument.
type Align byte

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// FontSize is a GS ! character size argument.
type FontSize byte

const (
	FontNormal FontSize = 0x00
	FontDouble FontSize = 0x11 // double width and height
	FontWide   FontSize = 0x10
	FontTall   FontSize = 0x01
)

// Document builds an ESC/POS byte stream for till receipts and shift reports.
type Document struct {
	buf   bytes.Buffer
	width int // 32 for 58mm paper, 48 for 80mm
}

// NewDocument starts a document with the given character width.
func NewDocument(charWidth int) *Document {
	if charWidth <= 0 {
		charWidth = 32
	}
	d := &Document{width: charWidth}
	d.Init()
	return d
}

func (d *Document) cmd(b ...byte) *Document {
	d.buf.Write(b)
	return d
}

func (d *Document) line(s string) *Document {
	d.buf.WriteString(s)
	d.buf.WriteByte(lf)
	return d
}

// Init sends ESC @.
func (d *Document) Init() *Document {
	return d.cmd(esc, '@')
}

func (d *Document) LineFeed() *Document {
	return d.cmd(lf)
}

func (d *Document) FeedLines(n int) *Document {
	for i := 0; i < n; i++ {
		d.buf.WriteByte(lf)
	}
	return d
}

func (d *Document) SetAlign(a Align) *Document {
	return d.cmd(esc, 'a', byte(a))
}

func (d *Document) SetBold(on bool) *Document {
	b := byte(0)
	if on {
		b = 1
	}
	return d.cmd(esc, 'E', b)
}

func (d *Document) SetFontSize(size FontSize) *Document {
	return d.cmd(gs, '!', byte(size))
}

// Text writes one line.
func (d *Document) Text(s string) *Document {
	return d.line(s)
}

func (d *Document) TextF(format string, args ...interface{}) *Document {
	return d.line(fmt.Sprintf(format, args...))
}

// Title prints a centered, bold, double size line and leaves the
// alignment centered for the address lines that usually follow.
func (d *Document) Title(s string) *Document {
	return d.SetAlign(AlignCenter).
		SetBold(true).
		SetFontSize(FontDouble).
		line(d.fit(s)).
		SetFontSize(FontNormal).
		SetBold(false)
}

// Banner prints a bold marker such as "*** REPRINT ***".
func (d *Document) Banner(s string) *Document {
	return d.SetBold(true).line("*** " + s + " ***").SetBold(false)
}

// Separator fills one line with char.
func (d *Document) Separator(char byte) *Document {
	return d.line(strings.Repeat(string(char), d.width))
}

// KeyValue prints key on the left and value flush right, e.g.
// "Subtotal:                200.00".
func (d *Document) KeyValue(key, value string) *Document {
	spaces := d.width - len(key) - len(value)
	if spaces < 1 {
		spaces = 1
	}
	return d.line(key + strings.Repeat(" ", spaces) + value)
}

// Total is a bold KeyValue line.
func (d *Document) Total(key, value string) *Document {
	return d.SetBold(true).KeyValue(key, value).SetBold(false)
}

// Deduction prints an amount taken off the bill, e.g. a discount.
func (d *Document) Deduction(key, value string) *Document {
	return d.KeyValue(key, "-"+value)
}

// ItemLine prints "2x Burger" with the line total flush right. Names too
// long for one line get the total on a line of its own.
func (d *Document) ItemLine(qty int, name, total string) *Document {
	prefix := fmt.Sprintf("%dx %s", qty, name)
	if len(prefix)+1+len(total) > d.width {
		d.line(d.fit(prefix))
		prefix = ""
	}
	spaces := d.width - len(prefix) - len(total)
	if spaces < 1 {
		spaces = 1
	}
	return d.line(prefix + strings.Repeat(" ", spaces) + total)
}

// Indented prints a detail line under an item, e.g. a discount or a void mark.
func (d *Document) Indented(key, value string) *Document {
	return d.KeyValue("  "+key, value)
}

// Signature prints a label followed by a blank line to sign on.
func (d *Document) Signature(label string) *Document {
	return d.line(label).LineFeed().Separator('_')
}

func (d *Document) fit(s string) string {
	if len(s) <= d.width {
		return s
	}
	return s[:d.width]
}

// PartialCut sends a partial cut, leaving the slip attached at one point.
func (d *Document) PartialCut() *Document {
	return d.cmd(gs, 'V', 0x01)
}

// Finish feeds the slip past the cutter and cuts it.
func (d *Document) Finish() *Document {
	return d.FeedLines(3).PartialCut()
}

// Bytes returns the accumulated ESC/POS byte stream.
func (d *Document) Bytes() []byte {
	return d.buf.Bytes()
}
