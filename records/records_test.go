package records

import (
	"context"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shibukawa/tabformula/formula"
)

func TestParseYAML(t *testing.T) {
	set, err := Parse([]byte(`
- name: apple
  price: 120
  qty: 3
- name: melon
  price: 980.5
  tags: [fruit, big]
`), FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "price", "qty", "tags"}, set.Fields)
	assert.Equal(t, 2, set.Len())
	assert.Equal(t, "apple", set.Rows[0]["name"])
	assert.Equal(t, 980.5, set.Rows[1]["price"])
	assert.Equal(t, []any{"fruit", "big"}, set.Rows[1]["tags"])
}

func TestParseJSON(t *testing.T) {
	set, err := Parse([]byte(`[{"b": 1, "a": "x"}, {"a": "y", "c": true}]`), FormatJSON)
	require.NoError(t, err)

	assert.Equal(t, []string{"b", "a", "c"}, set.Fields)
	assert.Equal(t, true, set.Rows[1]["c"])
}

func TestParseCSV(t *testing.T) {
	set, err := Parse([]byte("name, price, qty, note, big\napple, 120, 3, , 12345678901234567890n\nmelon, .5, -2, true story, 1e3\n"), FormatCSV)
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "price", "qty", "note", "big"}, set.Fields)
	assert.Equal(t, "apple", set.Rows[0]["name"])
	assert.Equal(t, 120.0, set.Rows[0]["price"])
	assert.Nil(t, set.Rows[0]["note"])
	assert.Equal(t, "12345678901234567890", set.Rows[0]["big"].(*big.Int).String())
	assert.Equal(t, 0.5, set.Rows[1]["price"])
	assert.Equal(t, -2.0, set.Rows[1]["qty"])
	assert.Equal(t, "true story", set.Rows[1]["note"])
	assert.Equal(t, 1000.0, set.Rows[1]["big"])
}

func TestParseXML(t *testing.T) {
	set, err := Parse([]byte(`<?xml version="1.0"?>
<records>
  <record name="apple" price="120"><qty>3</qty></record>
  <record name="melon" flag="TRUE"/>
</records>`), FormatXML)
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "price", "qty", "flag"}, set.Fields)
	assert.Equal(t, 3.0, set.Rows[0]["qty"])
	assert.Equal(t, true, set.Rows[1]["flag"])
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte("  "), FormatYAML)
	assert.ErrorIs(t, err, ErrEmptyContent)

	_, err = Parse([]byte("a: [1"), FormatYAML)
	assert.ErrorIs(t, err, ErrInvalidRecords)

	_, err = Parse([]byte("a,b\n1,2,3\n"), FormatCSV)
	assert.ErrorIs(t, err, ErrInvalidRecords)

	_, err = Parse([]byte("<records><record a=1/></records>"), FormatXML)
	assert.ErrorIs(t, err, ErrInvalidRecords)

	_, err = Parse([]byte("x"), Format("toml"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = ParseFormat("xlsx")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "items.yml")
	require.NoError(t, os.WriteFile(path, []byte("- a: 1\n"), 0o600))

	set, err := Load(path, FormatAuto)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, set.Fields)

	_, err = Load(filepath.Join(dir, "items"), FormatAuto)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Load(filepath.Join(dir, "missing.csv"), FormatAuto)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNormalizeDriverName(t *testing.T) {
	assert.Equal(t, "pgx", NormalizeDriverName("PostgreSQL"))
	assert.Equal(t, "mysql", NormalizeDriverName("mariadb"))
	assert.Equal(t, "sqlite3", NormalizeDriverName(" sqlite "))
	assert.Equal(t, "oracle", NormalizeDriverName("Oracle"))
}

func TestQuerySQLite(t *testing.T) {
	ctx := context.Background()

	db, err := Open(ctx, "sqlite", ":memory:", 0)
	require.NoError(t, err)
	defer db.Close()

	db.SetMaxOpenConns(1)

	_, err = db.ExecContext(ctx, `CREATE TABLE items (name TEXT, price REAL, qty INTEGER)`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO items VALUES ('apple', 120, 3), ('melon', 980.5, NULL)`)
	require.NoError(t, err)

	set, err := Query(ctx, db, `SELECT name, price, qty FROM items WHERE price > ? ORDER BY name`, 100)
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "price", "qty"}, set.Fields)
	assert.Equal(t, 2, set.Len())
	assert.Equal(t, int64(3), set.Rows[0]["qty"])
	assert.Nil(t, set.Rows[1]["qty"])

	_, err = Query(ctx, db, `SELECT * FROM missing`)
	assert.ErrorIs(t, err, ErrQuery)
}

func TestConvertSQLValue(t *testing.T) {
	assert.Equal(t, 980.25, convertSQLValue([]byte("980.25")))
	assert.Equal(t, "apple", convertSQLValue([]byte("apple")))
	assert.Equal(t, "", convertSQLValue([]byte{}))
	assert.Equal(t, int64(3), convertSQLValue(int64(3)))
	assert.Nil(t, convertSQLValue(nil))
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "nope", "", 0)
	assert.ErrorIs(t, err, ErrDatabaseConnection)
}

func TestFilter(t *testing.T) {
	f, err := NewFilter(`record.qty > 2 && record.name.startsWith("a")`)
	require.NoError(t, err)
	assert.Equal(t, `record.qty > 2 && record.name.startsWith("a")`, f.String())

	ok, err := f.Match(map[string]any{"qty": 3, "name": "apple"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.Match(map[string]any{"qty": int64(1), "name": "apple"})
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.Match(map[string]any{"name": "apple"})
	assert.ErrorIs(t, err, ErrInvalidFilter)

	_, err = NewFilter(`record.qty +`)
	assert.ErrorIs(t, err, ErrInvalidFilter)

	_, err = NewFilter(`"text"`)
	assert.ErrorIs(t, err, ErrInvalidFilter)
}

func TestApply(t *testing.T) {
	set := &Set{
		Fields: []string{"name", "price", "qty"},
		Rows: []map[string]any{
			{"name": "apple", "price": 120, "qty": 3},
			{"name": "melon", "price": 980, "qty": 1},
			{"name": "broken", "price": 1},
		},
	}

	p := formula.MustNewParser(formula.Options{})

	results, err := Apply(context.Background(), p, set, "total", "{{price}} * {{2}}", nil)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, 360.0, results[0].Value)
	assert.Equal(t, 360.0, results[0].Record["total"])
	assert.Equal(t, "apple", results[0].Record["name"])
	assert.NotContains(t, set.Rows[0], "total")
	assert.Equal(t, 980.0, results[1].Value)
	assert.Equal(t, 2, results[2].Row)
	assert.Equal(t, 0.0, results[2].Value)
	assert.NoError(t, results[2].Err)

	filter, err := NewFilter(`record.price > 500`)
	require.NoError(t, err)

	results, err = Apply(context.Background(), p, set, "total", "{{missing}}", filter)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].Row)
	assert.ErrorIs(t, results[0].Err, formula.ErrFieldNotFound)

	assert.Equal(t, []string{"name", "price", "qty", "total"}, set.FieldsWith("total"))
	assert.Equal(t, []string{"name", "price", "qty"}, set.FieldsWith("qty"))
}
