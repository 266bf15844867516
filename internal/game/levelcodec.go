package game

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// WriteLevel writes g as a token stream: "W H" followed by one two-letter
// token per cell in row-major order, wall code then item code. Fires are not
// part of a level.
func WriteLevel(w io.Writer, g *Grid) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d %d\n", g.Width, g.Height)
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			c := g.Cell(Position{X: x, Y: y})
			if x > 0 {
				bw.WriteByte(' ')
			}
			bw.WriteByte(wallCodes[c.Wall])
			bw.WriteByte(itemTable[c.Item].code)
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// MaxLevelSide bounds the width and height a level file may declare.
const MaxLevelSide = 255

// EncodeLevel returns the token stream of g as a string.
func EncodeLevel(g *Grid) string {
	var sb strings.Builder
	_ = WriteLevel(&sb, g) // strings.Builder never fails
	return sb.String()
}

// ReadLevel parses a token stream produced by WriteLevel.
func ReadLevel(r io.Reader) (*Grid, error) {
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)
	next := func(what string) (string, error) {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return "", fmt.Errorf("read %s: %w", what, err)
			}
			return "", fmt.Errorf("read %s: unexpected end of level", what)
		}
		return sc.Text(), nil
	}
	dim := func(what string) (int, error) {
		tok, err := next(what)
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(tok)
		if err != nil || n <= 0 || n > MaxLevelSide {
			return 0, fmt.Errorf("invalid %s %q", what, tok)
		}
		return n, nil
	}

	width, err := dim("width")
	if err != nil {
		return nil, err
	}
	height, err := dim("height")
	if err != nil {
		return nil, err
	}
	g := NewGrid(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			tok, err := next(fmt.Sprintf("cell (%d,%d)", x, y))
			if err != nil {
				return nil, err
			}
			if len(tok) != 2 {
				return nil, fmt.Errorf("cell (%d,%d): malformed token %q", x, y, tok)
			}
			wall, ok := wallFromCode(tok[0])
			if !ok {
				return nil, fmt.Errorf("cell (%d,%d): unknown wall code %q", x, y, tok[0])
			}
			item, ok := itemFromCode(tok[1])
			if !ok {
				return nil, fmt.Errorf("cell (%d,%d): unknown item code %q", x, y, tok[1])
			}
			c := g.Cell(Position{X: x, Y: y})
			c.Wall, c.Item = wall, item
		}
	}
	if sc.Scan() {
		return nil, fmt.Errorf("trailing token %q after %dx%d cells", sc.Text(), width, height)
	}
	return g, nil
}

// DecodeLevel parses a level from its string form.
func DecodeLevel(s string) (*Grid, error) {
	return ReadLevel(strings.NewReader(s))
}

func wallFromCode(b byte) (Wall, bool) {
	for i, c := range wallCodes {
		if c == b {
			return Wall(i), true
		}
	}
	return 0, false
}

func itemFromCode(b byte) (Item, bool) {
	for i, info := range itemTable {
		if info.code == b {
			return Item(i), true
		}
	}
	return 0, false
}
