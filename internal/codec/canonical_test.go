package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalize_Basic(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"string", `"hello"`, `"hello"`},
		{"int", `42`, `42`},
		{"negative int", `-100`, `-100`},
		{"bool true", `true`, `true`},
		{"bool false", `false`, `false`},
		{"float", `0.5`, `0.5`},
		{"empty array", `[ ]`, `[]`},
		{"empty object", `{ }`, `{}`},
		{"array", `[1, 2, 3]`, `[1,2,3]`},
		{"whitespace stripped", `{ "a" : 1 }`, `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Canonicalize([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestCanonicalize_SortedKeys(t *testing.T) {
	result, err := Canonicalize([]byte(`{"zebra":1,"alpha":2,"beta":3}`))
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":2,"beta":3,"zebra":1}`, string(result))
}

func TestCanonicalize_NestedSortedKeys(t *testing.T) {
	result, err := Canonicalize([]byte(`{"z":{"b":1,"a":2},"a":3}`))
	require.NoError(t, err)
	assert.Equal(t, `{"a":3,"z":{"a":2,"b":1}}`, string(result))
}

func TestCanonicalize_UTF16Ordering(t *testing.T) {
	// U+E000 sorts after U+10000 under UTF-16 code units: the surrogate
	// pair for U+10000 starts with 0xD800 < 0xE000. UTF-8 byte order says
	// the opposite, which is exactly the case this must get right.
	input := `{"` + "" + `":1,"𐀀":2}`
	result, err := Canonicalize([]byte(input))
	require.NoError(t, err)
	assert.Equal(t, `{"𐀀":2,"`+""+`":1}`, string(result))
}

func TestCanonicalize_NoHTMLEscaping(t *testing.T) {
	result, err := Canonicalize([]byte(`{"a":"<b> & </b>"}`))
	require.NoError(t, err)
	assert.Equal(t, `{"a":"<b> & </b>"}`, string(result))
}

func TestCanonicalize_ControlCharacterEscapes(t *testing.T) {
	result, err := Canonicalize([]byte(`{"a":"line\nbreak\ttab"}`))
	require.NoError(t, err)
	assert.Equal(t, `{"a":"line\nbreak\ttab"}`, string(result))
}

func TestCanonicalize_LineAndParagraphSeparatorsLiteral(t *testing.T) {
	// U+2028 and U+2029 are legal unescaped in JSON strings and canonical
	// form writes them literally.
	result, err := Canonicalize([]byte(`{"a":"x y z"}`))
	require.NoError(t, err)
	assert.Equal(t, `{"a":"x`+" "+`y`+" "+`z"}`, string(result))
}

func TestCanonicalize_NFCNormalization(t *testing.T) {
	// "e" followed by U+0301 combining acute normalizes to precomposed é.
	result, err := Canonicalize([]byte(`{"a":"e` + "́" + `"}`))
	require.NoError(t, err)
	assert.Equal(t, `{"a":"é"}`, string(result))
}

func TestCanonicalize_RejectsNull(t *testing.T) {
	_, err := Canonicalize([]byte(`{"a":null}`))
	require.Error(t, err)
}

func TestCanonicalize_RejectsInvalidJSON(t *testing.T) {
	_, err := Canonicalize([]byte(`{"a":`))
	require.Error(t, err)
}

func TestCanonicalize_Deterministic(t *testing.T) {
	input := []byte(`{"c":[1,2,{"y":1,"x":2}],"a":"v","b":0.25}`)
	first, err := Canonicalize(input)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Canonicalize(input)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
