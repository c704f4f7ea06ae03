package charset

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	t.Run("resolves aliases case insensitively", func(t *testing.T) {
		for _, name := range []string{"cp1252", "CP1252", "Windows-1252", "utf-8", "UTF8", "latin1"} {
			cs, err := Lookup(name)
			require.NoError(t, err, "name %s", name)
			require.NotNil(t, cs)
		}
	})

	t.Run("rejects unknown names", func(t *testing.T) {
		_, err := Lookup("klingon-8")
		require.Error(t, err)
		require.Contains(t, err.Error(), "klingon-8")
	})
}

func TestCP1252RoundTrip(t *testing.T) {
	cs := MustLookup("cp1252")

	// 0xE9 is é and 0x80 is the euro sign in Windows-1252.
	s, err := cs.Decode([]byte{'c', 'a', 'f', 0xE9, ' ', 0x80})
	require.NoError(t, err)
	require.Equal(t, "café €", s)

	b, err := cs.Encode(s)
	require.NoError(t, err)
	require.Equal(t, []byte{'c', 'a', 'f', 0xE9, ' ', 0x80}, b)
}

func TestCP1252ControlBytes(t *testing.T) {
	cs := MustLookup("cp1252")

	// 0x81 is unassigned in the vendor chart but decodes to the C1 control
	// U+0081 per the WHATWG table; it must survive a round trip.
	s, err := cs.Decode([]byte{'a', 0x81, 'b'})
	require.NoError(t, err)
	require.Equal(t, "a\u0081b", s)

	b, err := cs.Encode(s)
	require.NoError(t, err)
	require.Equal(t, []byte{'a', 0x81, 'b'}, b)
}

func TestCP1252UnsupportedRune(t *testing.T) {
	cs := MustLookup("cp1252")

	_, err := cs.Encode("snow ☃")
	require.Error(t, err)
	var encErr *EncodingError
	require.True(t, errors.As(err, &encErr))
}

func TestUTF8Passthrough(t *testing.T) {
	cs := MustLookup("utf-8")

	s, err := cs.Decode([]byte("ação"))
	require.NoError(t, err)
	require.Equal(t, "ação", s)

	b, err := cs.Encode(s)
	require.NoError(t, err)
	require.Equal(t, []byte("ação"), b)

	_, err = cs.Decode([]byte{0xFF, 0xFE})
	var encErr *EncodingError
	require.True(t, errors.As(err, &encErr))
	require.Equal(t, 0, encErr.Offset)
}
