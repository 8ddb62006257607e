package mtproto

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gotd/td/tg"
)

// FileType is the kind of object a Bot API file_id points at.
type FileType int32

const (
	TypeThumbnail FileType = iota
	TypeProfilePhoto
	TypePhoto
	TypeVoice
	TypeVideo
	TypeDocument
	TypeEncrypted
	TypeTemp
	TypeSticker
	TypeAudio
	TypeAnimation
	TypeEncryptedThumbnail
	TypeWallpaper
	TypeVideoNote
)

const (
	webLocationFlag   = 1 << 24
	fileReferenceFlag = 1 << 25

	sourceLegacy    = 0
	sourceThumbnail = 1

	defaultThumbSize = "y"
)

var (
	ErrMalformedFileID   = errors.New("malformed file id")
	ErrUnsupportedFileID = errors.New("unsupported file id")
)

// FileID is the part of a Bot API file_id needed to fetch the file over
// MTProto.
type FileID struct {
	Type          FileType
	DC            int
	ID            int64
	AccessHash    int64
	FileReference []byte
	ThumbSize     string
}

func ParseFileID(s string) (FileID, error) {
	data, err := decodeRLE(s)
	if err != nil {
		return FileID{}, err
	}
	if len(data) < 2 {
		return FileID{}, ErrMalformedFileID
	}

	subVersion := 0
	if data[len(data)-1] == 4 {
		subVersion = int(data[len(data)-2])
	}

	r := &reader{data: data}
	flags := r.int32()
	dc := r.int32()

	var fileRef []byte
	if flags&fileReferenceFlag != 0 {
		fileRef = r.tlBytes()
	}
	if flags&webLocationFlag != 0 {
		return FileID{}, fmt.Errorf("%w: web location", ErrUnsupportedFileID)
	}

	id := FileID{
		Type:          FileType(flags &^ (webLocationFlag | fileReferenceFlag)),
		DC:            int(dc),
		ID:            r.int64(),
		AccessHash:    r.int64(),
		FileReference: fileRef,
	}

	if id.Type <= TypePhoto {
		id.ThumbSize, err = readThumbSize(r, subVersion)
		if err != nil {
			return FileID{}, err
		}
	}

	if r.err != nil {
		return FileID{}, r.err
	}
	return id, nil
}

// Location builds the MTProto input location for the file.
func (f FileID) Location() (tg.InputFileLocationClass, error) {
	switch f.Type {
	case TypeThumbnail, TypeProfilePhoto, TypePhoto:
		return &tg.InputPhotoFileLocation{
			ID:            f.ID,
			AccessHash:    f.AccessHash,
			FileReference: f.FileReference,
			ThumbSize:     f.ThumbSize,
		}, nil
	case TypeVoice, TypeVideo, TypeDocument, TypeSticker, TypeAudio, TypeAnimation, TypeVideoNote:
		return &tg.InputDocumentFileLocation{
			ID:            f.ID,
			AccessHash:    f.AccessHash,
			FileReference: f.FileReference,
		}, nil
	}
	return nil, fmt.Errorf("%w: type %d", ErrUnsupportedFileID, f.Type)
}

func readThumbSize(r *reader, subVersion int) (string, error) {
	if subVersion < 32 {
		r.int64() // volume id
	}

	source := int32(sourceLegacy)
	if subVersion >= 22 {
		source = r.int32()
	}

	switch source {
	case sourceLegacy:
		r.int64() // secret
		return defaultThumbSize, nil
	case sourceThumbnail:
		r.int32() // file type
		thumb := r.int32()
		if thumb <= 0 || thumb > 0x7f {
			return defaultThumbSize, nil
		}
		return string(rune(thumb)), nil
	}
	return "", fmt.Errorf("%w: photo size source %d", ErrUnsupportedFileID, source)
}

// decodeRLE undoes the base64 and zero run-length encoding of a file_id.
func decodeRLE(s string) ([]byte, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFileID, err)
	}

	out := make([]byte, 0, len(raw)*2)
	for i := 0; i < len(raw); i++ {
		if raw[i] == 0 && i+1 < len(raw) {
			for n := 0; n < int(raw[i+1]); n++ {
				out = append(out, 0)
			}
			i++
			continue
		}
		out = append(out, raw[i])
	}
	return out, nil
}

type reader struct {
	data []byte
	pos  int
	err  error
}

func (r *reader) next(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.pos+n > len(r.data) {
		r.err = ErrMalformedFileID
		return nil
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *reader) int32() int32 {
	b := r.next(4)
	if b == nil {
		return 0
	}
	return int32(binary.LittleEndian.Uint32(b))
}

func (r *reader) int64() int64 {
	b := r.next(8)
	if b == nil {
		return 0
	}
	return int64(binary.LittleEndian.Uint64(b))
}

// tlBytes reads a TL-serialized byte string padded to 4 bytes.
func (r *reader) tlBytes() []byte {
	head := r.next(1)
	if head == nil {
		return nil
	}

	size, prefix := int(head[0]), 1
	if size == 254 {
		ext := r.next(3)
		if ext == nil {
			return nil
		}
		size, prefix = int(ext[0])|int(ext[1])<<8|int(ext[2])<<16, 4
	}

	value := r.next(size)
	if pad := (4 - (prefix+size)%4) % 4; pad > 0 {
		r.next(pad)
	}
	return append([]byte(nil), value...)
}
