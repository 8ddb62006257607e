package mtproto

import (
	"encoding/base64"
	"encoding/binary"
	"testing"

	"github.com/gotd/td/tg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fileIDBuilder struct {
	buf []byte
}

func (b *fileIDBuilder) int32(v int32) *fileIDBuilder {
	b.buf = binary.LittleEndian.AppendUint32(b.buf, uint32(v))
	return b
}

func (b *fileIDBuilder) int64(v int64) *fileIDBuilder {
	b.buf = binary.LittleEndian.AppendUint64(b.buf, uint64(v))
	return b
}

func (b *fileIDBuilder) bytes(v []byte) *fileIDBuilder {
	b.buf = append(b.buf, byte(len(v)))
	b.buf = append(b.buf, v...)
	for (1+len(v))%4 != 0 {
		b.buf = append(b.buf, 0)
		v = append(v, 0)
	}
	return b
}

// encode appends the version trailer and applies zero run-length and
// base64 encoding.
func (b *fileIDBuilder) encode(subVersion byte) string {
	data := append(append([]byte(nil), b.buf...), subVersion, 4)

	var out []byte
	for i := 0; i < len(data); i++ {
		if data[i] != 0 {
			out = append(out, data[i])
			continue
		}
		n := 0
		for i < len(data) && data[i] == 0 && n < 250 {
			n++
			i++
		}
		i--
		out = append(out, 0, byte(n))
	}
	return base64.RawURLEncoding.EncodeToString(out)
}

func TestParseFileID_Document(t *testing.T) {
	ref := []byte{1, 2, 3, 4, 5}
	id := (&fileIDBuilder{}).
		int32(int32(TypeDocument) | fileReferenceFlag).
		int32(4).
		bytes(ref).
		int64(5_000_000_001).
		int64(-42).
		encode(50)

	got, err := ParseFileID(id)
	require.NoError(t, err)
	assert.Equal(t, FileID{
		Type:          TypeDocument,
		DC:            4,
		ID:            5_000_000_001,
		AccessHash:    -42,
		FileReference: ref,
	}, got)

	location, err := got.Location()
	require.NoError(t, err)
	assert.Equal(t, &tg.InputDocumentFileLocation{ID: 5_000_000_001, AccessHash: -42, FileReference: ref}, location)
}

func TestParseFileID_Photo(t *testing.T) {
	id := (&fileIDBuilder{}).
		int32(int32(TypePhoto) | fileReferenceFlag).
		int32(2).
		bytes([]byte{9, 9, 9}).
		int64(77).
		int64(88).
		int32(sourceThumbnail).
		int32(int32(TypePhoto)).
		int32('x').
		encode(47)

	got, err := ParseFileID(id)
	require.NoError(t, err)
	assert.Equal(t, TypePhoto, got.Type)
	assert.Equal(t, "x", got.ThumbSize)

	location, err := got.Location()
	require.NoError(t, err)
	photo, ok := location.(*tg.InputPhotoFileLocation)
	require.True(t, ok)
	assert.Equal(t, int64(77), photo.ID)
	assert.Equal(t, "x", photo.ThumbSize)
}

func TestParseFileID_LegacyPhoto(t *testing.T) {
	id := (&fileIDBuilder{}).
		int32(int32(TypePhoto)).
		int32(1).
		int64(10).
		int64(20).
		int64(30). // volume id
		int64(40). // secret
		encode(0)

	got, err := ParseFileID(id)
	require.NoError(t, err)
	assert.Equal(t, defaultThumbSize, got.ThumbSize)
	assert.Nil(t, got.FileReference)
}

func TestParseFileID_Errors(t *testing.T) {
	_, err := ParseFileID("!!!")
	assert.ErrorIs(t, err, ErrMalformedFileID)

	truncated := (&fileIDBuilder{}).int32(int32(TypeDocument)).int32(1).encode(50)
	_, err = ParseFileID(truncated)
	assert.ErrorIs(t, err, ErrMalformedFileID)

	web := (&fileIDBuilder{}).int32(int32(TypeDocument) | webLocationFlag).int32(1).encode(50)
	_, err = ParseFileID(web)
	assert.ErrorIs(t, err, ErrUnsupportedFileID)

	_, err = FileID{Type: TypeEncrypted}.Location()
	assert.ErrorIs(t, err, ErrUnsupportedFileID)
}

func TestReader_LongTLBytes(t *testing.T) {
	value := make([]byte, 300)
	for i := range value {
		value[i] = byte(i%250 + 1)
	}
	data := []byte{254, byte(len(value)), byte(len(value) >> 8), 0}
	data = append(data, value...)
	data = append(data, 0xAA, 0xBB, 0xCC, 0xDD)

	r := &reader{data: data}
	assert.Equal(t, value, r.tlBytes())
	require.NoError(t, r.err)
	assert.Equal(t, int32(-573785174), r.int32())
}
