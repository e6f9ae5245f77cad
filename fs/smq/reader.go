package smq

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/nullstep/smq/quant"
)

// Decode reads a full SMQ container from r. It validates the magic, rejects
// unknown versions, and fails with ErrUnsupportedScheme (bubbled up from
// quant.ParseScheme) on any tensor with an unrecognized scheme tag, per
// spec.md §6.1's "implementations must reject unknown schemes" rule.
func Decode(r io.Reader) (*Container, error) {
	var gotMagic [4]byte
	if _, err := io.ReadFull(r, gotMagic[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShortRead, err)
	}
	if gotMagic != magic {
		return nil, ErrBadMagic
	}

	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShortRead, err)
	}
	if version != currentVersion {
		return nil, fmt.Errorf("%w: got %d", ErrUnsupportedVer, version)
	}

	var metaLen uint32
	if err := binary.Read(r, binary.LittleEndian, &metaLen); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShortRead, err)
	}
	metaBytes := make([]byte, metaLen)
	if _, err := io.ReadFull(r, metaBytes); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShortRead, err)
	}
	var meta Metadata
	if err := json.Unmarshal(metaBytes, &meta); err != nil {
		return nil, fmt.Errorf("%w: metadata: %v", ErrCorrupt, err)
	}

	var tensorCount uint32
	if err := binary.Read(r, binary.LittleEndian, &tensorCount); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShortRead, err)
	}

	tensors := make([]TensorEntry, tensorCount)
	for i := range tensors {
		e, err := decodeTensorEntry(r)
		if err != nil {
			return nil, err
		}
		tensors[i] = e
	}

	return &Container{Version: version, Metadata: meta, Tensors: tensors}, nil
}

func decodeTensorEntry(r io.Reader) (TensorEntry, error) {
	var nameLen uint16
	if err := binary.Read(r, binary.LittleEndian, &nameLen); err != nil {
		return TensorEntry{}, fmt.Errorf("%w: %v", ErrShortRead, err)
	}
	nameBytes := make([]byte, nameLen)
	if _, err := io.ReadFull(r, nameBytes); err != nil {
		return TensorEntry{}, fmt.Errorf("%w: %v", ErrShortRead, err)
	}

	var schemeTag uint8
	if err := binary.Read(r, binary.LittleEndian, &schemeTag); err != nil {
		return TensorEntry{}, fmt.Errorf("%w: %v", ErrShortRead, err)
	}
	scheme, err := quant.ParseScheme(schemeTag)
	if err != nil {
		return TensorEntry{}, err
	}

	var rank uint8
	if err := binary.Read(r, binary.LittleEndian, &rank); err != nil {
		return TensorEntry{}, fmt.Errorf("%w: %v", ErrShortRead, err)
	}
	shape := make([]int, rank)
	for i := range shape {
		var dim uint32
		if err := binary.Read(r, binary.LittleEndian, &dim); err != nil {
			return TensorEntry{}, fmt.Errorf("%w: %v", ErrShortRead, err)
		}
		shape[i] = int(dim)
	}

	var dataLen uint64
	if err := binary.Read(r, binary.LittleEndian, &dataLen); err != nil {
		return TensorEntry{}, fmt.Errorf("%w: %v", ErrShortRead, err)
	}
	want, err := quant.SizeBytes(scheme, shape)
	if err != nil {
		return TensorEntry{}, err
	}
	if uint64(want) != dataLen {
		return TensorEntry{}, fmt.Errorf("%w: tensor %q declares %d bytes, shape implies %d", ErrCorrupt, string(nameBytes), dataLen, want)
	}

	data := make([]byte, dataLen)
	if _, err := io.ReadFull(r, data); err != nil {
		return TensorEntry{}, fmt.Errorf("%w: %v", ErrShortRead, err)
	}

	return TensorEntry{Name: string(nameBytes), Scheme: scheme, Shape: shape, Data: data}, nil
}
