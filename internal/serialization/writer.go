package serialization

import (
	"bufio"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/born-ml/mambatrain/internal/nn"
)

// floatChunk is the number of float32 values encoded per write.
const floatChunk = 1024

// Write encodes model to w in .born format, tagged with id.
//
// Names and shapes are validated before a layer record is written, so a
// model that Write accepts can always be read back.
func Write(w io.Writer, model *nn.Model, id uuid.UUID) error {
	h := sha256.New()
	e := &encoder{w: io.MultiWriter(w, h)}

	layers := model.Layers()
	if err := validateCount("layers", int64(len(layers)), MaxLayers, ErrTooManyLayers); err != nil {
		return &FormatError{Layer: -1, Err: err}
	}

	e.raw([]byte(MagicBytes))
	e.u32(FormatVersion)
	e.raw(id[:])
	e.u32(uint32(len(layers)))
	if e.err != nil {
		return fmt.Errorf("failed to write header: %w", e.err)
	}

	for i, l := range layers {
		if err := validateLayer(l); err != nil {
			return &FormatError{Layer: i, Kind: l.Kind(), Err: err}
		}
		e.layer(l)
		if e.err != nil {
			return fmt.Errorf("failed to write layer %d: %w", i, e.err)
		}
	}

	if _, err := w.Write(h.Sum(nil)); err != nil {
		return fmt.Errorf("failed to write checksum: %w", err)
	}
	return nil
}

// Save writes model to path under a fresh model ID and returns that ID.
//
// The file is written to a temporary sibling first and renamed into place,
// so an interrupted save never leaves a truncated model at path.
func Save(path string, model *nn.Model) (uuid.UUID, error) {
	id := uuid.New()

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	bw := bufio.NewWriter(tmp)
	if err := Write(bw, model, id); err != nil {
		tmp.Close()
		return uuid.Nil, err
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		return uuid.Nil, fmt.Errorf("failed to flush: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return uuid.Nil, fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return uuid.Nil, fmt.Errorf("failed to rename file: %w", err)
	}
	return id, nil
}

func validateLayer(l nn.Layer) error {
	if err := ValidateName(l.Kind()); err != nil {
		return err
	}
	hyper := l.Hyperparameters()
	if err := validateCount("hyperparameters", int64(len(hyper)), MaxEntries, ErrTooManyEntries); err != nil {
		return err
	}
	for _, hp := range hyper {
		if err := ValidateName(hp.Name); err != nil {
			return err
		}
	}
	weights := l.Weights()
	if err := validateCount("weights", int64(len(weights)), MaxEntries, ErrTooManyEntries); err != nil {
		return err
	}
	for _, w := range weights {
		if err := ValidateName(w.Name); err != nil {
			return err
		}
		if _, err := ValidateShape(w.Name, w.Value.Shape()); err != nil {
			return err
		}
	}
	return nil
}

// encoder writes little-endian values and keeps the first error.
type encoder struct {
	w   io.Writer
	buf []byte
	err error
}

func (e *encoder) raw(p []byte) {
	if e.err != nil {
		return
	}
	_, e.err = e.w.Write(p)
}

func (e *encoder) u8(v uint8) {
	e.raw([]byte{v})
}

func (e *encoder) u16(v uint16) {
	e.buf = binary.LittleEndian.AppendUint16(e.buf[:0], v)
	e.raw(e.buf)
}

func (e *encoder) u32(v uint32) {
	e.buf = binary.LittleEndian.AppendUint32(e.buf[:0], v)
	e.raw(e.buf)
}

func (e *encoder) f64(v float64) {
	e.buf = binary.LittleEndian.AppendUint64(e.buf[:0], math.Float64bits(v))
	e.raw(e.buf)
}

func (e *encoder) str(s string) {
	e.u16(uint16(len(s)))
	e.raw([]byte(s))
}

func (e *encoder) f32s(data []float32) {
	for len(data) > 0 && e.err == nil {
		n := min(len(data), floatChunk)
		e.buf = e.buf[:0]
		for _, v := range data[:n] {
			e.buf = binary.LittleEndian.AppendUint32(e.buf, math.Float32bits(v))
		}
		e.raw(e.buf)
		data = data[n:]
	}
}

func (e *encoder) layer(l nn.Layer) {
	e.str(l.Kind())
	e.u32(uint32(l.Version()))

	hyper := l.Hyperparameters()
	e.u32(uint32(len(hyper)))
	for _, hp := range hyper {
		e.str(hp.Name)
		e.f64(hp.Value)
	}

	weights := l.Weights()
	e.u32(uint32(len(weights)))
	for _, w := range weights {
		shape := w.Value.Shape()
		e.str(w.Name)
		e.u8(uint8(len(shape)))
		for _, d := range shape {
			e.u32(uint32(d))
		}
		e.f32s(w.Value.Data())
	}
}
