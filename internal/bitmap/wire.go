package bitmap

import (
	"encoding/binary"

	journalerrors "github.com/netdata/go-journalfile/pkg/errors"
)

// This file implements spec.md §4.7/§6's self-contained wire format:
// [universe_size: u32 LE][data_len: u32 LE][data bytes].

// Encode serializes t into the wire format.
func (t *Tree8) Encode() []byte {
	out := make([]byte, 8+len(t.data))
	binary.LittleEndian.PutUint32(out[0:4], t.universe)
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(t.data)))
	copy(out[8:], t.data)
	return out
}

// Decode parses the wire format produced by Encode.
func Decode(buf []byte) (*Tree8, error) {
	if len(buf) < 8 {
		return nil, journalerrors.NewBaseError(nil, journalerrors.ErrorCodeZerocopyFailure, "tree8 wire buffer shorter than 8-byte prefix")
	}
	universe := binary.LittleEndian.Uint32(buf[0:4])
	dataLen := binary.LittleEndian.Uint32(buf[4:8])
	if uint32(len(buf)-8) < dataLen {
		return nil, journalerrors.NewBaseError(nil, journalerrors.ErrorCodeZerocopyFailure, "tree8 wire buffer shorter than declared data_len")
	}
	data := make([]byte, dataLen)
	copy(data, buf[8:8+dataLen])
	return &Tree8{data: data, universe: universe, levels: levelsFor(universe)}, nil
}

// EncodeBitmap serializes a density-wrapped Bitmap: the wire payload plus
// one leading inverted byte.
func EncodeBitmap(b *Bitmap) []byte {
	treeBytes := b.tree.Encode()
	out := make([]byte, 1+len(treeBytes))
	if b.inverted {
		out[0] = 1
	}
	copy(out[1:], treeBytes)
	return out
}

// DecodeBitmap parses the format EncodeBitmap produces.
func DecodeBitmap(buf []byte) (*Bitmap, error) {
	if len(buf) < 1 {
		return nil, journalerrors.NewBaseError(nil, journalerrors.ErrorCodeZerocopyFailure, "bitmap wire buffer empty")
	}
	tree, err := Decode(buf[1:])
	if err != nil {
		return nil, err
	}
	return &Bitmap{tree: tree, inverted: buf[0] != 0}, nil
}
