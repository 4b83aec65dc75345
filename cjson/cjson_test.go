package cjson

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secure-systems-lab/go-securesystemslib"
)

func TestEncodeCanonical(t *testing.T) {
	tests := []struct {
		testName string
		in       any
		want     string
	}{
		{"empty string", "", `""`},
		{"string", "ab", `"ab"`},
		{"escapes quote and backslash", `he said "\"`, `"he said \"\\\""`},
		{"int", 42, "42"},
		{"negative int", -1, "-1"},
		{"bool", true, "true"},
		{"nil", nil, "null"},
		{"empty list", []any{}, "[]"},
		{"list", []int{1, 2, 3}, "[1,2,3]"},
		{"empty object", map[string]any{}, "{}"},
		{"object", map[string]any{"A": []int{99}}, `{"A":[99]}`},
		{"sorted keys", map[string]int{"y": 2, "x": 3}, `{"x":3,"y":2}`},
		{"null value", map[string]any{"x": 3, "y": nil}, `{"x":3,"y":null}`},
		{
			"nested",
			map[string]any{"keyval": map[string]string{"public": "abc"}, "keytype": "ed25519"},
			`{"keytype":"ed25519","keyval":{"public":"abc"}}`,
		},
		{
			"struct normalized through json tags",
			struct {
				B string `json:"b"`
				A string `json:"a"`
			}{B: "2", A: "1"},
			`{"a":"1","b":"2"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.testName, func(t *testing.T) {
			got, err := EncodeCanonical(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestEncodeCanonicalDeterministic(t *testing.T) {
	in := map[string]any{
		"keytype":               "rsa",
		"scheme":                "rsassa-pss-sha256",
		"keyid_hash_algorithms": []string{"sha256", "sha512"},
		"keyval":                map[string]string{"public": "pem"},
	}
	first, err := EncodeCanonical(in)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		next, err := EncodeCanonical(in)
		require.NoError(t, err)
		assert.Equal(t, string(first), string(next))
	}
	assert.Equal(t,
		`{"keyid_hash_algorithms":["sha256","sha512"],"keytype":"rsa","keyval":{"public":"pem"},"scheme":"rsassa-pss-sha256"}`,
		string(first))
}

func TestEncodeCanonicalRejectsFloats(t *testing.T) {
	_, err := EncodeCanonical(3.14)
	require.Error(t, err)
	assert.ErrorIs(t, err, securesystemslib.ErrFormat)

	_, err = EncodeCanonical(map[string]any{"x": 1.5})
	assert.ErrorIs(t, err, securesystemslib.ErrFormat)
}

func TestEncodeCanonicalRejectsUnmarshalable(t *testing.T) {
	_, err := EncodeCanonical(make(chan int))
	assert.ErrorIs(t, err, securesystemslib.ErrFormat)
}
