package smq

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// Encode writes c to w in the SMQ container format (spec.md §6.1).
func Encode(w io.Writer, c *Container) error {
	if _, err := w.Write(magic[:]); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, currentVersion); err != nil {
		return err
	}

	metaBytes, err := json.Marshal(c.Metadata)
	if err != nil {
		return fmt.Errorf("smq: encode metadata: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(metaBytes))); err != nil {
		return err
	}
	if _, err := w.Write(metaBytes); err != nil {
		return err
	}

	if err := binary.Write(w, binary.LittleEndian, uint32(len(c.Tensors))); err != nil {
		return err
	}
	for _, t := range c.Tensors {
		if err := encodeTensorEntry(w, t); err != nil {
			return err
		}
	}
	return nil
}

func encodeTensorEntry(w io.Writer, t TensorEntry) error {
	if len(t.Name) > 0xFFFF {
		return fmt.Errorf("%w: tensor name too long", ErrCorrupt)
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(len(t.Name))); err != nil {
		return err
	}
	if _, err := io.WriteString(w, t.Name); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint8(t.Scheme)); err != nil {
		return err
	}
	if len(t.Shape) > 0xFF {
		return fmt.Errorf("%w: tensor rank too large", ErrCorrupt)
	}
	if err := binary.Write(w, binary.LittleEndian, uint8(len(t.Shape))); err != nil {
		return err
	}
	for _, d := range t.Shape {
		if err := binary.Write(w, binary.LittleEndian, uint32(d)); err != nil {
			return err
		}
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(len(t.Data))); err != nil {
		return err
	}
	_, err := w.Write(t.Data)
	return err
}
