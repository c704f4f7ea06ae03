package mst

import (
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scieloorg/ioisis/pkg/consts"
)

type fixtureField struct {
	tag uint32
	val string
}

type fixtureRecord struct {
	mfn     uint32
	status  uint16
	deleted bool // flagged in the XRF pointer
	fields  []fixtureField
}

// buildMaster writes a synthetic name.mst/name.xrf pair and returns the
// .mst path. Records are packed back to back after the control record, so
// large records naturally span block boundaries.
func buildMaster(t *testing.T, format Format, recs []fixtureRecord) string {
	t.Helper()
	le := binary.LittleEndian

	mst := make([]byte, consts.MST_CONTROL_SIZE)
	pointers := map[uint32]int32{}
	var maxMfn uint32

	for _, fr := range recs {
		pos := len(mst)
		block := int32(pos/consts.MST_BLOCK_SIZE) + 1
		offset := int32(pos % consts.MST_BLOCK_SIZE)

		entrySize := format.entrySize()
		base := consts.MST_LEADER_SIZE + len(fr.fields)*entrySize
		dataLen := 0
		for _, f := range fr.fields {
			dataLen += len(f.val)
		}
		mfrl := base + dataLen

		head := make([]byte, consts.MST_LEADER_SIZE)
		if format == FormatFFI {
			le.PutUint32(head[0:4], fr.mfn)
			le.PutUint64(head[4:12], uint64(mfrl))
			le.PutUint32(head[20:24], uint32(base))
			le.PutUint16(head[24:26], uint16(len(fr.fields)))
			le.PutUint16(head[26:28], fr.status)
		} else {
			le.PutUint32(head[0:4], fr.mfn)
			le.PutUint32(head[4:8], uint32(mfrl))
			le.PutUint16(head[14:16], uint16(base))
			le.PutUint16(head[16:18], uint16(len(fr.fields)))
			le.PutUint16(head[18:20], fr.status)
		}
		mst = append(mst, head...)

		fpos := 0
		for _, f := range fr.fields {
			entry := make([]byte, entrySize)
			if format == FormatFFI {
				le.PutUint32(entry[0:4], f.tag)
				le.PutUint32(entry[4:8], uint32(fpos))
				le.PutUint32(entry[8:12], uint32(len(f.val)))
			} else {
				le.PutUint16(entry[0:2], uint16(f.tag))
				le.PutUint16(entry[2:4], uint16(fpos))
				le.PutUint16(entry[4:6], uint16(len(f.val)))
			}
			mst = append(mst, entry...)
			fpos += len(f.val)
		}
		for _, f := range fr.fields {
			mst = append(mst, f.val...)
		}

		p := block<<11 | offset
		if fr.deleted {
			p = -p
		}
		pointers[fr.mfn] = p
		if fr.mfn > maxMfn {
			maxMfn = fr.mfn
		}
	}

	if pad := len(mst) % consts.MST_BLOCK_SIZE; pad != 0 {
		mst = append(mst, make([]byte, consts.MST_BLOCK_SIZE-pad)...)
	}

	nextMfn := maxMfn + 1
	le.PutUint32(mst[4:8], nextMfn)
	le.PutUint32(mst[8:12], uint32(len(mst)/consts.MST_BLOCK_SIZE))

	blocks := xrfBlocksFor(nextMfn)
	if blocks == 0 {
		blocks = 1
	}
	xrf := make([]byte, blocks*consts.XRF_BLOCK_SIZE)
	for b := 0; b < blocks; b++ {
		num := int32(b + 1)
		if b == blocks-1 {
			num = -num
		}
		le.PutUint32(xrf[b*consts.XRF_BLOCK_SIZE:], uint32(num))
	}
	for mfn, p := range pointers {
		blk := (mfn - 1) / consts.XRF_SLOTS_PER_BLOCK
		slot := (mfn - 1) % consts.XRF_SLOTS_PER_BLOCK
		off := int(blk)*consts.XRF_BLOCK_SIZE + 4 + int(slot)*4
		le.PutUint32(xrf[off:], uint32(p))
	}

	dir := t.TempDir()
	mstPath := filepath.Join(dir, "fixture.mst")
	require.NoError(t, os.WriteFile(mstPath, mst, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fixture.xrf"), xrf, 0o644))
	return mstPath
}

func TestReaderRandomAccess(t *testing.T) {
	path := buildMaster(t, FormatISIS, []fixtureRecord{
		{mfn: 1, fields: []fixtureField{{70, "Paton, A"}, {24, "Cry, the beloved country"}}},
		{mfn: 2, fields: []fixtureField{{24, "Too late the phalarope"}}},
	})

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	require.EqualValues(t, 3, r.NextMfn())

	rec, err := r.Record(2)
	require.NoError(t, err)
	require.EqualValues(t, 2, rec.Mfn)
	require.True(t, rec.Active)
	require.Len(t, rec.Fields, 1)
	require.EqualValues(t, 24, rec.Fields[0].Tag)
	require.Equal(t, "Too late the phalarope", string(rec.Fields[0].Value))

	rec, err = r.Record(1)
	require.NoError(t, err)
	require.Equal(t, "Paton, A", string(rec.Fields[0].Value))

	_, err = r.Record(5)
	var xrfErr *XrfError
	require.True(t, errors.As(err, &xrfErr))
}

func TestReaderRepeatedTagsKeepOrder(t *testing.T) {
	path := buildMaster(t, FormatISIS, []fixtureRecord{
		{mfn: 1, fields: []fixtureField{{902, "^aone"}, {902, "^atwo"}, {10, "x"}, {902, "^athree"}}},
	})

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	rec, err := r.Record(1)
	require.NoError(t, err)
	var got []string
	for _, f := range rec.Fields {
		if f.Tag == 902 {
			got = append(got, string(f.Value))
		}
	}
	require.Equal(t, []string{"^aone", "^atwo", "^athree"}, got)
}

func TestReaderBlockSpanningRecord(t *testing.T) {
	big := make([]byte, 3*consts.MST_BLOCK_SIZE)
	for i := range big {
		big[i] = byte('a' + i%26)
	}
	path := buildMaster(t, FormatISIS, []fixtureRecord{
		{mfn: 1, fields: []fixtureField{{100, string(big[:700])}}},
		{mfn: 2, fields: []fixtureField{{100, "after the span"}}},
	})

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	rec, err := r.Record(1)
	require.NoError(t, err)
	require.Equal(t, string(big[:700]), string(rec.Fields[0].Value))

	rec, err = r.Record(2)
	require.NoError(t, err)
	require.Equal(t, "after the span", string(rec.Fields[0].Value))
}

func TestReaderDeletionFlags(t *testing.T) {
	recs := []fixtureRecord{
		{mfn: 1, fields: []fixtureField{{10, "kept"}}},
		{mfn: 2, deleted: true, fields: []fixtureField{{10, "gone"}}},
		{mfn: 4, status: 1, fields: []fixtureField{{10, "flagged"}}}, // mfn 3 never written
	}

	t.Run("record surfaces active flag", func(t *testing.T) {
		r, err := Open(buildMaster(t, FormatISIS, recs))
		require.NoError(t, err)
		defer r.Close()

		rec, err := r.Record(2)
		require.NoError(t, err)
		require.False(t, rec.Active)
		require.Equal(t, "gone", string(rec.Fields[0].Value))

		_, err = r.Record(3)
		require.Equal(t, ErrNotWritten, err)
	})

	t.Run("iteration skips holes", func(t *testing.T) {
		r, err := Open(buildMaster(t, FormatISIS, recs))
		require.NoError(t, err)
		defer r.Close()

		var mfns []uint32
		it := r.Iter()
		for {
			rec, err := it.Next()
			if err == io.EOF {
				break
			}
			require.NoError(t, err)
			mfns = append(mfns, rec.Mfn)
		}
		require.Equal(t, []uint32{1, 2, 4}, mfns)
	})

	t.Run("only-active filters deletions", func(t *testing.T) {
		r, err := Open(buildMaster(t, FormatISIS, recs), WithOnlyActive(true))
		require.NoError(t, err)
		defer r.Close()

		var mfns []uint32
		it := r.Iter()
		for {
			rec, err := it.Next()
			if err == io.EOF {
				break
			}
			require.NoError(t, err)
			require.True(t, rec.Active)
			mfns = append(mfns, rec.Mfn)
		}
		require.Equal(t, []uint32{1}, mfns)
	})
}

func TestReaderFFIFormat(t *testing.T) {
	path := buildMaster(t, FormatFFI, []fixtureRecord{
		{mfn: 1, fields: []fixtureField{{65536, "wide tag"}, {2, "second"}}},
	})

	r, err := Open(path, WithFormat(FormatFFI))
	require.NoError(t, err)
	defer r.Close()

	rec, err := r.Record(1)
	require.NoError(t, err)
	require.EqualValues(t, 65536, rec.Fields[0].Tag)
	require.Equal(t, "wide tag", string(rec.Fields[0].Value))
	require.Equal(t, "second", string(rec.Fields[1].Value))
}

func TestReaderXrfErrors(t *testing.T) {
	t.Run("short cross-reference", func(t *testing.T) {
		path := buildMaster(t, FormatISIS, []fixtureRecord{
			{mfn: 1, fields: []fixtureField{{10, "x"}}},
		})
		xrfPath := filepath.Join(filepath.Dir(path), "fixture.xrf")
		require.NoError(t, os.WriteFile(xrfPath, make([]byte, 16), 0o644))

		_, err := Open(path)
		var xrfErr *XrfError
		require.True(t, errors.As(err, &xrfErr))
	})

	t.Run("pointer outside the master file", func(t *testing.T) {
		path := buildMaster(t, FormatISIS, []fixtureRecord{
			{mfn: 1, fields: []fixtureField{{10, "x"}}},
		})
		xrfPath := filepath.Join(filepath.Dir(path), "fixture.xrf")
		xrf, err := os.ReadFile(xrfPath)
		require.NoError(t, err)
		// Point MFN 1 at block 99.
		binary.LittleEndian.PutUint32(xrf[4:8], uint32(int32(99)<<11))
		require.NoError(t, os.WriteFile(xrfPath, xrf, 0o644))

		r, err := Open(path)
		require.NoError(t, err)
		defer r.Close()

		_, err = r.Record(1)
		var xrfErr *XrfError
		require.True(t, errors.As(err, &xrfErr))
	})

	t.Run("missing companion file", func(t *testing.T) {
		dir := t.TempDir()
		mstPath := filepath.Join(dir, "alone.mst")
		require.NoError(t, os.WriteFile(mstPath, make([]byte, consts.MST_BLOCK_SIZE), 0o644))

		_, err := Open(mstPath)
		require.Error(t, err)
		require.True(t, os.IsNotExist(err))
	})
}

func TestCompanionPathCase(t *testing.T) {
	require.Equal(t, "db/FOO.XRF", companionPath("db/FOO.MST"))
	require.Equal(t, "db/foo.xrf", companionPath("db/foo.mst"))
}
