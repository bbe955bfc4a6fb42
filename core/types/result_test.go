package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResultEncoding(t *testing.T) {
	ok := Ok[[]int8, string]([]int8{1, -2})
	raw, err := json.Marshal(ok)
	require.NoError(t, err)
	require.JSONEq(t, `{"Ok":[1,-2]}`, string(raw))

	failed := Err[[]int8, string]("boom")
	raw, err = json.Marshal(failed)
	require.NoError(t, err)
	require.JSONEq(t, `{"Err":"boom"}`, string(raw))
}

func TestResultDecoding(t *testing.T) {
	var r Result[uint32, string]
	require.NoError(t, json.Unmarshal([]byte(`{"Ok":7}`), &r))
	value, ok := r.Value()
	require.True(t, ok)
	require.Equal(t, uint32(7), value)

	require.NoError(t, json.Unmarshal([]byte(`{"Err":"nope"}`), &r))
	require.True(t, r.IsErr())
	failure, isErr := r.Failure()
	require.True(t, isErr)
	require.Equal(t, "nope", failure)
}

func TestResultDecodingRejectsMalformed(t *testing.T) {
	cases := []string{`{}`, `{"Ok":1,"Err":"x"}`, `{"Maybe":1}`, `[1]`, `{"Ok":"not-a-number"}`}
	for _, tc := range cases {
		var r Result[uint32, string]
		require.Error(t, json.Unmarshal([]byte(tc), &r), tc)
	}
}
