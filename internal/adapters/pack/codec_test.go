package pack_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packforge/twpatch/internal/adapters/pack"
	"github.com/packforge/twpatch/internal/core/domain"
)

func testSchema() *domain.TableSchema {
	return &domain.TableSchema{
		Name:    "land_units",
		Version: 3,
		Columns: []domain.ColumnDef{
			{Name: "key", Type: domain.TypeString, Key: true},
			{Name: "num_men", Type: domain.TypeInt},
			{Name: "charge_bonus", Type: domain.TypeFloat},
			{Name: "can_siege", Type: domain.TypeBool},
		},
	}
}

func testRows() []domain.Row {
	return []domain.Row{
		{
			"key":          domain.StringValue("emp_halberdiers"),
			"num_men":      domain.IntValue(120),
			"charge_bonus": domain.FloatValue(12.5),
			"can_siege":    domain.BoolValue(false),
		},
		{
			"key":          domain.StringValue("emp_cannon"),
			"num_men":      domain.IntValue(4),
			"charge_bonus": domain.FloatValue(1),
			"can_siege":    domain.BoolValue(true),
		},
	}
}

func writeArchive(t *testing.T, patch *domain.PatchArchive) string {
	t.Helper()
	codec := pack.NewCodec()

	var buf bytes.Buffer
	require.NoError(t, codec.Encode(&buf, patch))

	path := filepath.Join(t.TempDir(), patch.Name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestCodec_RoundTrip(t *testing.T) {
	codec := pack.NewCodec()
	schema := testSchema()

	tableData, err := codec.EncodeTable(schema, testRows())
	require.NoError(t, err)

	locData, err := codec.EncodeLoc([]domain.LocEntry{
		{Key: "land_units_onscreen_name_emp_halberdiers", Value: "Halberdiers"},
		{Key: "land_units_onscreen_name_emp_cannon", Value: "Great Cannon", Tooltip: true},
	})
	require.NoError(t, err)

	path := writeArchive(t, &domain.PatchArchive{
		Name:     "mod_a.pack",
		Category: domain.CategoryData,
		Files: []domain.PatchFile{
			{Path: "db/land_units_tables/data__", Data: tableData},
			{Path: "text/db/land_units.loc", Data: locData},
		},
	})

	a, err := codec.Open(path, domain.CategoryData)
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, "mod_a.pack", a.Name())
	assert.Equal(t, []string{"land_units"}, a.Tables())
	assert.True(t, a.HasTable("land_units"))
	assert.False(t, a.HasTable("main_units"))

	rows, err := a.DecodeTable("land_units", schema)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(120), rows[0]["num_men"].Int)
	assert.InDelta(t, 12.5, rows[0]["charge_bonus"].Float, 1e-9)
	assert.True(t, rows[1]["can_siege"].Bool)

	entries, err := a.DecodeLoc()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Great Cannon", entries[1].Value)
	assert.True(t, entries[1].Tooltip)
}

func TestCodec_EncodeDeterministic(t *testing.T) {
	codec := pack.NewCodec()
	patch := &domain.PatchArchive{
		Name:         "patch.pack",
		Category:     domain.CategoryMovie,
		Dependencies: []string{"mod_a.pack", "mod_b.pack"},
		Real:         true,
		Files: []domain.PatchFile{
			{Path: "b", Data: []byte("bbb")},
			{Path: "a", Data: []byte("aaa")},
		},
	}

	var first, second bytes.Buffer
	require.NoError(t, codec.Encode(&first, patch))
	require.NoError(t, codec.Encode(&second, patch))
	assert.Equal(t, first.Bytes(), second.Bytes())
}

func TestCodec_MovieCategoryFromContainer(t *testing.T) {
	codec := pack.NewCodec()
	path := writeArchive(t, &domain.PatchArchive{
		Name:     "movie_pack.pack",
		Category: domain.CategoryMovie,
		Files:    []domain.PatchFile{{Path: "movies/intro.ca_vp8", Data: []byte{1}}},
	})

	// Opened with the wrong declared category: the container wins.
	a, err := codec.Open(path, domain.CategoryData)
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryMovie, a.Category())
}

func TestCodec_CorruptArchive(t *testing.T) {
	codec := pack.NewCodec()
	path := filepath.Join(t.TempDir(), "broken.pack")
	require.NoError(t, os.WriteFile(path, []byte("not a pack at all"), 0o644))

	_, err := codec.Open(path, domain.CategoryData)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCorruptArchive))
}

func TestCodec_TruncatedPayload(t *testing.T) {
	codec := pack.NewCodec()
	patch := &domain.PatchArchive{
		Name:     "t.pack",
		Category: domain.CategoryData,
		Files:    []domain.PatchFile{{Path: "blob", Data: bytes.Repeat([]byte{7}, 256)}},
	}
	var buf bytes.Buffer
	require.NoError(t, codec.Encode(&buf, patch))

	path := filepath.Join(t.TempDir(), "t.pack")
	require.NoError(t, os.WriteFile(path, buf.Bytes()[:buf.Len()-10], 0o644))

	_, err := codec.Open(path, domain.CategoryData)
	assert.True(t, errors.Is(err, domain.ErrCorruptArchive))
}

func TestCodec_OversizedIndexEntry(t *testing.T) {
	// Hand-built container whose single index entry claims a payload far
	// beyond the file itself.
	var buf bytes.Buffer
	buf.WriteString("TWPK")
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(1))) // container version
	buf.WriteByte(0)                                                       // category
	buf.WriteByte(0)                                                       // real flag
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(0))) // dependency count
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(1))) // file count
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint16(4)))
	buf.WriteString("blob")
	buf.WriteByte(0)                                                             // flags
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint64(1)<<62))   // stored size
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint64(0)))       // raw size
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint64(0)))       // hash

	path := filepath.Join(t.TempDir(), "huge.pack")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	_, err := pack.NewCodec().Open(path, domain.CategoryData)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCorruptArchive))
}

func TestCodec_RowCountExceedsData(t *testing.T) {
	codec := pack.NewCodec()
	schema := testSchema()
	data, err := codec.EncodeTable(schema, testRows())
	require.NoError(t, err)

	// Inflate the declared row count without supplying row bytes.
	binary.LittleEndian.PutUint32(data[8:], math.MaxUint32)
	_, err = codec.DecodeTable(schema, data)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCorruptArchive))
}

func TestCodec_LocCountExceedsData(t *testing.T) {
	codec := pack.NewCodec()
	data, err := codec.EncodeLoc([]domain.LocEntry{{Key: "k", Value: "v"}})
	require.NoError(t, err)

	binary.LittleEndian.PutUint32(data[4:], math.MaxUint32)
	_, err = codec.DecodeLoc(data)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCorruptArchive))
}

func TestCodec_LocValueLengthExceedsData(t *testing.T) {
	codec := pack.NewCodec()
	data, err := codec.EncodeLoc([]domain.LocEntry{{Key: "k", Value: "v"}})
	require.NoError(t, err)

	// The value length prefix follows the loc header and the key string.
	off := 4 + 4 + 2 + 1
	binary.LittleEndian.PutUint32(data[off:], math.MaxUint32)
	_, err = codec.DecodeLoc(data)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCorruptArchive))
}

func TestCodec_TableVersionMismatch(t *testing.T) {
	codec := pack.NewCodec()
	schema := testSchema()

	data, err := codec.EncodeTable(schema, testRows())
	require.NoError(t, err)

	newer := *schema
	newer.Version = 4
	_, err = codec.DecodeTable(&newer, data)
	assert.True(t, errors.Is(err, domain.ErrUnknownSchema))
}

func TestCodec_LowPriorityFileStillMapsToTable(t *testing.T) {
	codec := pack.NewCodec()
	schema := testSchema()
	data, err := codec.EncodeTable(schema, testRows())
	require.NoError(t, err)

	path := writeArchive(t, &domain.PatchArchive{
		Name:     "patch.pack",
		Category: domain.CategoryData,
		Files:    []domain.PatchFile{{Path: "db/land_units_tables/~data__", Data: data}},
	})

	a, err := codec.Open(path, domain.CategoryData)
	require.NoError(t, err)
	assert.True(t, a.HasTable("land_units"))
}
