package pack

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"

	"go.trai.ch/zerr"

	"github.com/packforge/twpatch/internal/core/domain"
	"github.com/packforge/twpatch/internal/core/ports"
)

const tableFormatVersion = 1

var _ ports.TableCodec = (*Codec)(nil)

// EncodeTable serializes rows in schema column order. Cells are fixed-width
// little-endian except strings, which carry a u16 length prefix.
func (c *Codec) EncodeTable(schema *domain.TableSchema, rows []domain.Row) ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, uint32(tableFormatVersion)); err != nil {
		return nil, zerr.Wrap(err, "failed to encode table header")
	}
	if err := binary.Write(&buf, binary.LittleEndian, uint32(schema.Version)); err != nil {
		return nil, zerr.Wrap(err, "failed to encode table header")
	}
	if err := binary.Write(&buf, binary.LittleEndian, uint32(len(rows))); err != nil {
		return nil, zerr.Wrap(err, "failed to encode table header")
	}

	for _, row := range rows {
		for _, col := range schema.Columns {
			cell := row[col.Name]
			switch col.Type {
			case domain.TypeInt:
				_ = binary.Write(&buf, binary.LittleEndian, cell.Int)
			case domain.TypeFloat:
				_ = binary.Write(&buf, binary.LittleEndian, math.Float64bits(cell.Float))
			case domain.TypeBool:
				b := byte(0)
				if cell.Bool {
					b = 1
				}
				buf.WriteByte(b)
			case domain.TypeString, domain.TypeBlobRef:
				writeString(&buf, cell.Str)
			}
		}
	}
	return buf.Bytes(), nil
}

// DecodeTable is the inverse of EncodeTable.
func (c *Codec) DecodeTable(schema *domain.TableSchema, data []byte) ([]domain.Row, error) {
	return decodeTable(schema, data)
}

func decodeTable(schema *domain.TableSchema, data []byte) ([]domain.Row, error) {
	r := bytes.NewReader(data)

	var format, version, count uint32
	if err := binary.Read(r, binary.LittleEndian, &format); err != nil || format != tableFormatVersion {
		return nil, zerr.Wrap(domain.ErrCorruptArchive, "bad table format")
	}
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, zerr.Wrap(domain.ErrCorruptArchive, "truncated table header")
	}
	if int(version) != schema.Version {
		return nil, zerr.With(zerr.With(zerr.With(zerr.Wrap(domain.ErrUnknownSchema, "table version mismatch"),
			"table", schema.Name), "file_version", int(version)), "schema_version", schema.Version)
	}
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, zerr.Wrap(domain.ErrCorruptArchive, "truncated table header")
	}

	// Every row carries at least one byte per column, so a count beyond the
	// remaining length is corruption, not data.
	if uint64(count) > uint64(r.Len()) {
		return nil, zerr.Wrap(domain.ErrCorruptArchive, "row count exceeds data")
	}
	rows := make([]domain.Row, 0, count)
	for i := uint32(0); i < count; i++ {
		row := make(domain.Row, len(schema.Columns))
		for _, col := range schema.Columns {
			switch col.Type {
			case domain.TypeInt:
				var v int64
				if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
					return nil, zerr.Wrap(domain.ErrCorruptArchive, "truncated row data")
				}
				row[col.Name] = domain.IntValue(v)
			case domain.TypeFloat:
				var bits uint64
				if err := binary.Read(r, binary.LittleEndian, &bits); err != nil {
					return nil, zerr.Wrap(domain.ErrCorruptArchive, "truncated row data")
				}
				row[col.Name] = domain.FloatValue(math.Float64frombits(bits))
			case domain.TypeBool:
				var b uint8
				if err := binary.Read(r, binary.LittleEndian, &b); err != nil {
					return nil, zerr.Wrap(domain.ErrCorruptArchive, "truncated row data")
				}
				row[col.Name] = domain.BoolValue(b != 0)
			case domain.TypeString, domain.TypeBlobRef:
				s, err := readString(r)
				if err != nil {
					return nil, zerr.Wrap(domain.ErrCorruptArchive, "truncated row data")
				}
				row[col.Name] = domain.Value{Type: col.Type, Str: s}
			}
		}
		rows = append(rows, row)
	}

	if r.Len() != 0 {
		return nil, zerr.Wrap(domain.ErrCorruptArchive, "trailing bytes after last row")
	}
	return rows, nil
}

const locFormatVersion = 1

// EncodeLoc serializes loc entries in the given order.
func (c *Codec) EncodeLoc(entries []domain.LocEntry) ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, uint32(locFormatVersion)); err != nil {
		return nil, zerr.Wrap(err, "failed to encode loc header")
	}
	if err := binary.Write(&buf, binary.LittleEndian, uint32(len(entries))); err != nil {
		return nil, zerr.Wrap(err, "failed to encode loc header")
	}
	for _, e := range entries {
		writeString(&buf, string(e.Key))
		writeLongString(&buf, e.Value)
		b := byte(0)
		if e.Tooltip {
			b = 1
		}
		buf.WriteByte(b)
	}
	return buf.Bytes(), nil
}

// DecodeLoc is the inverse of EncodeLoc.
func (c *Codec) DecodeLoc(data []byte) ([]domain.LocEntry, error) {
	return decodeLoc(data)
}

func decodeLoc(data []byte) ([]domain.LocEntry, error) {
	r := bytes.NewReader(data)

	var format, count uint32
	if err := binary.Read(r, binary.LittleEndian, &format); err != nil || format != locFormatVersion {
		return nil, zerr.Wrap(domain.ErrCorruptArchive, "bad loc format")
	}
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, zerr.Wrap(domain.ErrCorruptArchive, "truncated loc header")
	}

	if uint64(count) > uint64(r.Len()) {
		return nil, zerr.Wrap(domain.ErrCorruptArchive, "entry count exceeds data")
	}
	entries := make([]domain.LocEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		key, err := readString(r)
		if err != nil {
			return nil, zerr.Wrap(domain.ErrCorruptArchive, "truncated loc entry")
		}
		value, err := readLongString(r)
		if err != nil {
			return nil, zerr.Wrap(domain.ErrCorruptArchive, "truncated loc entry")
		}
		var tooltip uint8
		if err := binary.Read(r, binary.LittleEndian, &tooltip); err != nil {
			return nil, zerr.Wrap(domain.ErrCorruptArchive, "truncated loc entry")
		}
		entries = append(entries, domain.LocEntry{Key: domain.LocKey(key), Value: value, Tooltip: tooltip != 0})
	}
	return entries, nil
}

// Loc values can exceed the u16 path-string limit, so they get a u32 prefix.
func writeLongString(buf *bytes.Buffer, s string) {
	_ = binary.Write(buf, binary.LittleEndian, uint32(len(s)))
	buf.WriteString(s)
}

func readLongString(r *bytes.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	if uint64(n) > uint64(r.Len()) {
		return "", zerr.Wrap(domain.ErrCorruptArchive, "string length exceeds data")
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}
