package envfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_FlatObject(t *testing.T) {
	data := []byte(`{"+=PATH": ["a", "b"], "?=X": "new", "FOO": "bar"}`)
	pf, err := Parse("flat.json", data)
	require.NoError(t, err)
	require.Len(t, pf.Entries, 3)

	assert.Equal(t, OpAppend, pf.Entries[0].Op)
	assert.Equal(t, "PATH", pf.Entries[0].Name)
	assert.Equal(t, []interface{}{"a", "b"}, pf.Entries[0].Raw)

	assert.Equal(t, OpDefault, pf.Entries[1].Op)
	assert.Equal(t, "X", pf.Entries[1].Name)

	assert.Equal(t, OpAssign, pf.Entries[2].Op)
	assert.Equal(t, "FOO", pf.Entries[2].Name)
}

func TestParse_PreservesObjectOrder(t *testing.T) {
	data := []byte(`{"Z": "1", "A": "2", "M": "3"}`)
	pf, err := Parse("order.json", data)
	require.NoError(t, err)
	require.Len(t, pf.Entries, 3)
	assert.Equal(t, []string{"Z", "A", "M"}, []string{pf.Entries[0].Name, pf.Entries[1].Name, pf.Entries[2].Name})
}

func TestParse_PairArray(t *testing.T) {
	data := []byte(`[["FOO", "one"], ["FOO", "two"]]`)
	pf, err := Parse("pairs.json", data)
	require.NoError(t, err)
	require.Len(t, pf.Entries, 2)
	assert.Equal(t, "FOO", pf.Entries[0].Name)
	assert.Equal(t, "one", pf.Entries[0].Raw)
	assert.Equal(t, "FOO", pf.Entries[1].Name)
	assert.Equal(t, "two", pf.Entries[1].Raw)
}

func TestParse_PairArray_MalformedElement(t *testing.T) {
	data := []byte(`[["FOO", "one", "extra"]]`)
	_, err := Parse("bad_pairs.json", data)
	assert.Error(t, err)
}

func TestParse_Structured(t *testing.T) {
	data := []byte(`{
		"environment": {"FOO": "bar", "+=PATH": "x"},
		"environment_allowlist": ["HOME", "USER"],
		"some_unknown_key": 1
	}`)
	pf, err := Parse("structured.json", data)
	require.NoError(t, err)
	require.Len(t, pf.Entries, 2)
	assert.Equal(t, []string{"HOME", "USER"}, pf.Allowlist)
}

func TestParse_Structured_PairArrayEnvironment(t *testing.T) {
	data := []byte(`{"environment": [["A", "1"], ["B", "2"]]}`)
	pf, err := Parse("structured_pairs.json", data)
	require.NoError(t, err)
	require.Len(t, pf.Entries, 2)
	assert.Empty(t, pf.Allowlist)
}

func TestParse_InvalidTopLevelShape(t *testing.T) {
	_, err := Parse("scalar.json", []byte(`"just a string"`))
	assert.Error(t, err)
}

func TestParse_MalformedJSON(t *testing.T) {
	_, err := Parse("broken.json", []byte(`{"FOO": `))
	assert.Error(t, err)
}

func TestParse_InvalidVariableName(t *testing.T) {
	_, err := Parse("bad_name.json", []byte(`{"1BAD": "x"}`))
	assert.Error(t, err)
}

func TestParse_ScalarValues(t *testing.T) {
	data := []byte(`{"PORT": 8080, "RATIO": 1.5, "FLAG": true, "NADA": null}`)
	pf, err := Parse("scalars.json", data)
	require.NoError(t, err)
	require.Len(t, pf.Entries, 4)
	assert.Equal(t, float64(8080), pf.Entries[0].Raw)
	assert.Equal(t, 1.5, pf.Entries[1].Raw)
	assert.Equal(t, true, pf.Entries[2].Raw)
	assert.Nil(t, pf.Entries[3].Raw)
}
