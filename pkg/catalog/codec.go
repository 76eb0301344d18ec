package catalog

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"blockstore/pkg/catalog/schema"
	"blockstore/pkg/dberror"
	"blockstore/pkg/types"
)

// Encode writes c as newline-terminated header lines. The modification
// timestamp is refreshed; the creation timestamp is set only if it was
// never set before.
func Encode(w io.Writer, c *Catalog) error {
	now := timeNow()
	if c.Created.IsZero() {
		c.Created = now
	}
	c.Modified = now

	_, err := w.Write(Marshal(c))
	return err
}

// Marshal renders the header lines of c without touching its timestamps.
func Marshal(c *Catalog) []byte {
	var buf bytes.Buffer
	line := func(s string) {
		buf.WriteString(s)
		buf.WriteByte('\n')
	}

	line(c.TableName)
	line(strings.Join(c.Schema.FieldNames(), ","))
	if c.Kind.HasWidths() {
		line(joinInts(c.Schema.FieldWidths()))
	}
	line(joinTypes(c.Schema.FieldTypes()))
	line(strconv.Itoa(c.RecordCount))

	switch c.Kind {
	case FixedHeap:
		line(strconv.Itoa(c.BlockingFactor))
		line(c.Reclaimed.String())
	case VariableHeap:
		line(strconv.Itoa(c.BlockCount))
		line(strconv.Itoa(c.DeletedCount))
	case OrderedFile:
		line(strconv.Itoa(c.BlockingFactor))
		line(strconv.Itoa(c.BlockCount))
		line(strconv.Itoa(c.DeletedCount))
	case StaticHash:
		line(strconv.Itoa(c.BlockingFactor))
		line(strconv.Itoa(c.BlockCount))
		line(strconv.Itoa(c.OverflowCount))
	}

	line(c.Created.Format(TimestampLayout))
	line(c.Modified.Format(TimestampLayout))
	return buf.Bytes()
}

// Decode reads the header lines of a kind store from r and returns the
// catalog together with the number of bytes the header occupies, which is
// where the block region begins.
func Decode(r io.Reader, kind Kind) (*Catalog, int64, error) {
	lines, n, err := readLines(r, kind.LineCount())
	if err != nil {
		return nil, 0, err
	}

	d := &decoder{lines: lines}
	c := &Catalog{Kind: kind}

	c.TableName = d.next()
	names := strings.Split(d.next(), ",")
	var widths []int
	if kind.HasWidths() {
		widths = d.intList()
	}
	fieldTypes := d.typeList()
	c.RecordCount = d.count()

	switch kind {
	case FixedHeap:
		c.BlockingFactor = d.count()
		if d.err == nil {
			c.Reclaimed, d.err = parseSlotQueue(d.next())
		}
	case VariableHeap:
		c.BlockCount = d.count()
		c.DeletedCount = d.count()
	case OrderedFile:
		c.BlockingFactor = d.count()
		c.BlockCount = d.count()
		c.DeletedCount = d.count()
	case StaticHash:
		c.BlockingFactor = d.count()
		c.BlockCount = d.count()
		c.OverflowCount = d.count()
	}

	c.Created = d.timestamp()
	c.Modified = d.timestamp()

	if d.err != nil {
		return nil, 0, dberror.CorruptCatalog("%s header: %v", kind, d.err).In("Decode", "Catalog")
	}

	sch, err := schema.FromLists(names, widths, fieldTypes)
	if err != nil {
		return nil, 0, dberror.CorruptCatalog("%s header: %v", kind, err).In("Decode", "Catalog")
	}
	c.Schema = sch
	return c, n, nil
}

// HeaderLength replays Decode to measure where the block region starts.
func HeaderLength(r io.Reader, kind Kind) (int64, error) {
	_, n, err := Decode(r, kind)
	return n, err
}

func readLines(r io.Reader, count int) ([]string, int64, error) {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}

	lines := make([]string, 0, count)
	var n int64
	for len(lines) < count {
		s, err := br.ReadString('\n')
		n += int64(len(s))
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, 0, dberror.CorruptCatalog("header ended after %d of %d lines", len(lines), count).In("Decode", "Catalog")
			}
			return nil, 0, dberror.Wrap(err, dberror.CodeIO, "Decode", "Catalog")
		}
		lines = append(lines, strings.TrimSuffix(s, "\n"))
	}
	return lines, n, nil
}

// decoder consumes header lines in order and keeps the first parse error.
type decoder struct {
	lines []string
	pos   int
	err   error
}

func (d *decoder) next() string {
	if d.pos >= len(d.lines) {
		return ""
	}
	s := d.lines[d.pos]
	d.pos++
	return s
}

func (d *decoder) fail(format string, args ...any) {
	if d.err == nil {
		d.err = dberror.CorruptCatalog(format, args...)
	}
}

func (d *decoder) count() int {
	line := d.pos + 1
	s := d.next()
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v < 0 {
		d.fail("line %d: %q is not a count", line, s)
	}
	return v
}

func (d *decoder) intList() []int {
	line := d.pos + 1
	parts := strings.Split(d.next(), ",")
	out := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || v <= 0 {
			d.fail("line %d: width %q is not a positive integer", line, p)
		}
		out[i] = v
	}
	return out
}

func (d *decoder) typeList() []types.Type {
	line := d.pos + 1
	parts := strings.Split(d.next(), ",")
	out := make([]types.Type, len(parts))
	for i, p := range parts {
		t, err := types.Parse(p)
		if err != nil {
			d.fail("line %d: %v", line, err)
		}
		out[i] = t
	}
	return out
}

func (d *decoder) timestamp() time.Time {
	line := d.pos + 1
	s := d.next()
	ts, err := time.ParseInLocation(TimestampLayout, s, time.Local)
	if err != nil {
		d.fail("line %d: %q is not a timestamp", line, s)
	}
	return ts
}

func joinInts(vals []int) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func joinTypes(ts []types.Type) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ",")
}
