package iso2709

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeRecordDefaults(t *testing.T) {
	geom := DefaultGeometry()

	t.Run("two simple fields", func(t *testing.T) {
		rec := &Record{}
		rec.Append("001", []byte("testing"))
		rec.Append("008", []byte("it"))

		b, err := EncodeRecord(geom, rec)
		require.NoError(t, err)
		require.Equal(t, "000610000000000490004500001000800000008000300008#testing#it##", string(b))
	})

	t.Run("explicit directory tags", func(t *testing.T) {
		rec := &Record{}
		rec.Append("001", []byte("a"))
		rec.Append("555", []byte("test"))

		b, err := EncodeRecord(geom, rec)
		require.NoError(t, err)
		require.Equal(t, "000570000000000490004500001000200000555000500002#a#test##", string(b))
	})

	t.Run("repeated tag with control characters", func(t *testing.T) {
		rec := &Record{}
		rec.Append("SIZ", []byte("linux^c\n^s1"))
		rec.Append("SIZ", []byte("win^c\r\n^s2"))
		rec.Append("SIZ", []byte("mac^c\r^s1"))

		b, err := EncodeRecord(geom, rec)
		require.NoError(t, err)
		require.Equal(t,
			"000950000000000610004500SIZ001200000SIZ001100012SIZ001000023#linux^c\n^s1#win^c\r\n^s2#mac^c\r^s1##",
			string(b))
	})

	t.Run("empty record", func(t *testing.T) {
		b, err := EncodeRecord(geom, &Record{})
		require.NoError(t, err)
		require.Equal(t, "000260000000000250004500##", string(b))
	})
}

func TestEncodeRecordCustomGeometry(t *testing.T) {
	t.Run("narrow widths with custom entry byte", func(t *testing.T) {
		geom := DefaultGeometry()
		geom.LenLen = 1
		geom.PosLen = 3
		geom.CustomLen = 1

		rec := &Record{}
		rec.Fields = append(rec.Fields, Field{Tag: "001", Value: []byte("a"), Custom: []byte("X")})
		rec.Fields = append(rec.Fields, Field{Tag: "555", Value: []byte("test")})

		b, err := EncodeRecord(geom, rec)
		require.NoError(t, err)
		require.Equal(t, "0004900000000004100013100012000X55550020#a#test##", string(b))
	})

	t.Run("alternate terminators", func(t *testing.T) {
		geom := DefaultGeometry()
		geom.FieldTerminator = ';'
		geom.RecordTerminator = '@'

		rec := &Record{}
		rec.Append("OBJ", []byte("mouse"))
		rec.Append("OBJ", []byte("keyboard"))
		rec.Append("INF", []byte("old"))
		rec.Append("SIZ", []byte("34"))

		b, err := EncodeRecord(geom, rec)
		require.NoError(t, err)
		require.Len(t, b, 96)
		require.Equal(t,
			"000960000000000730004500OBJ000600000OBJ000900006INF000400015SIZ000300019;mouse;keyboard;old;34;@",
			string(b))
	})
}

func TestEncodeRecordOverflow(t *testing.T) {
	t.Run("field longer than len width", func(t *testing.T) {
		geom := DefaultGeometry()
		geom.LenLen = 1

		rec := &Record{}
		rec.Append("001", []byte("0123456789")) // 10 bytes + terminator

		_, err := EncodeRecord(geom, rec)
		var overflow *OverflowError
		require.True(t, errors.As(err, &overflow))
		require.Contains(t, overflow.Field, "len")
	})

	t.Run("field terminator inside a value", func(t *testing.T) {
		rec := &Record{}
		rec.Append("001", []byte("bro#ken"))

		_, err := EncodeRecord(DefaultGeometry(), rec)
		var overflow *OverflowError
		require.True(t, errors.As(err, &overflow))
		require.Contains(t, overflow.Msg, "terminator")
	})

	t.Run("tag wider than tag width", func(t *testing.T) {
		rec := &Record{}
		rec.Append("TOOLONG", []byte("x"))

		_, err := EncodeRecord(DefaultGeometry(), rec)
		var overflow *OverflowError
		require.True(t, errors.As(err, &overflow))
	})
}

func TestDecodeRecord(t *testing.T) {
	geom := DefaultGeometry()

	t.Run("golden record", func(t *testing.T) {
		in := []byte("000610000000000490004500001000800000008000300008#testing#it##")
		rec, n, err := DecodeRecord(geom, in)
		require.NoError(t, err)
		require.Equal(t, 61, n)
		require.Equal(t, []string{"001", "008"}, rec.Tags())
		require.Equal(t, []byte("testing"), rec.Fields[0].Value)
		require.Equal(t, []byte("it"), rec.Fields[1].Value)
		require.Equal(t, 61, rec.Leader.TotalLen)
		require.Equal(t, 49, rec.Leader.BaseAddr)
	})

	t.Run("empty record", func(t *testing.T) {
		rec, n, err := DecodeRecord(geom, []byte("000260000000000250004500##"))
		require.NoError(t, err)
		require.Equal(t, 26, n)
		require.Empty(t, rec.Fields)
	})

	t.Run("custom entry bytes survive", func(t *testing.T) {
		g := DefaultGeometry()
		g.LenLen = 1
		g.PosLen = 3
		g.CustomLen = 1
		rec, _, err := DecodeRecord(g, []byte("0004900000000004100013100012000X55550020#a#test##"))
		require.NoError(t, err)
		require.Equal(t, []byte("X"), rec.Fields[0].Custom)
		require.Equal(t, []byte("0"), rec.Fields[1].Custom)
	})

	t.Run("short input", func(t *testing.T) {
		_, _, err := DecodeRecord(geom, []byte("00061000000000049000"))
		var trunc *TruncatedError
		require.True(t, errors.As(err, &trunc))
	})

	t.Run("non-digit in leader", func(t *testing.T) {
		in := []byte("000x10000000000490004500001000800000008000300008#testing#it##")
		_, _, err := DecodeRecord(geom, in)
		var format *FormatError
		require.True(t, errors.As(err, &format))
		require.EqualValues(t, 3, format.Offset)
	})

	t.Run("wrong directory position", func(t *testing.T) {
		// Second entry claims pos 9 but field data continues at 8.
		in := []byte("000610000000000490004500001000800000008000300009#testing#it##")
		_, _, err := DecodeRecord(geom, in)
		var format *FormatError
		require.True(t, errors.As(err, &format))
		require.Contains(t, format.Msg, "position")
	})

	t.Run("missing record terminator", func(t *testing.T) {
		in := []byte("000610000000000490004500001000800000008000300008#testing#it#!")
		_, _, err := DecodeRecord(geom, in)
		var format *FormatError
		require.True(t, errors.As(err, &format))
		require.Contains(t, format.Msg, "record terminator")
	})
}

func TestRoundTrip(t *testing.T) {
	geom := DefaultGeometry()

	records := []*Record{
		{},
		{Fields: []Field{{Tag: "001", Value: []byte("testing")}, {Tag: "008", Value: []byte("it")}}},
		{Fields: []Field{{Tag: "900", Value: []byte("")}}},
		{Fields: []Field{
			{Tag: "SIZ", Value: []byte("linux^c\n^s1")},
			{Tag: "SIZ", Value: []byte("win^c\r\n^s2")},
			{Tag: "SIZ", Value: []byte("mac^c\r^s1")},
		}},
	}

	t.Run("decode of encode is identity", func(t *testing.T) {
		for _, rec := range records {
			b, err := EncodeRecord(geom, rec)
			require.NoError(t, err)
			back, n, err := DecodeRecord(geom, b)
			require.NoError(t, err)
			require.Equal(t, len(b), n)
			require.Equal(t, rec.Tags(), back.Tags())
			for i := range rec.Fields {
				require.Equal(t, string(rec.Fields[i].Value), string(back.Fields[i].Value))
			}
		}
	})

	t.Run("encode of decode is identity", func(t *testing.T) {
		inputs := []string{
			"000610000000000490004500001000800000008000300008#testing#it##",
			"000570000000000490004500001000200000555000500002#a#test##",
			"000260000000000250004500##",
		}
		for _, in := range inputs {
			rec, _, err := DecodeRecord(geom, []byte(in))
			require.NoError(t, err)
			out, err := EncodeRecord(geom, rec)
			require.NoError(t, err)
			require.Equal(t, in, string(out))
		}
	})
}
