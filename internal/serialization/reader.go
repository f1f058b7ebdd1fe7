package serialization

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/born-ml/mambatrain/internal/nn"
	"github.com/born-ml/mambatrain/internal/tensor"
)

// Read decodes a .born stream and rebuilds its layers through reg.
//
// Malformed input is reported as an error, never a panic: counts, names and
// shapes are validated before anything sized by them is allocated, and the
// model is returned only after the trailing checksum matches.
func Read(r io.Reader, reg *nn.Registry) (*nn.Model, Header, error) {
	hr := newHashingReader(r)
	d := &decoder{r: hr}

	var magic [4]byte
	d.raw(magic[:])
	if d.err != nil {
		return nil, Header{}, fmt.Errorf("failed to read magic: %w", d.err)
	}
	if string(magic[:]) != MagicBytes {
		return nil, Header{}, fmt.Errorf("%w: got %q", ErrInvalidMagic, magic[:])
	}

	header := Header{FormatVersion: d.u32()}
	if d.err == nil && header.FormatVersion != FormatVersion {
		return nil, Header{}, fmt.Errorf("%w: %d (supported: %d)", ErrUnsupportedVersion, header.FormatVersion, FormatVersion)
	}
	d.raw(header.ModelID[:])
	count := d.u32()
	if d.err != nil {
		return nil, Header{}, &FormatError{Layer: -1, Err: d.err}
	}
	if err := validateCount("layers", int64(count), MaxLayers, ErrTooManyLayers); err != nil {
		return nil, Header{}, &FormatError{Layer: -1, Err: err}
	}

	layers := make([]nn.Layer, 0, count)
	header.Layers = make([]LayerMeta, 0, count)
	for i := range int(count) {
		l, meta, err := readLayer(d, reg)
		if err != nil {
			return nil, Header{}, &FormatError{Layer: i, Kind: meta.Kind, Err: err}
		}
		layers = append(layers, l)
		header.Layers = append(header.Layers, meta)
	}

	computed := hr.sum()
	var stored [32]byte
	if _, err := io.ReadFull(r, stored[:]); err != nil {
		return nil, Header{}, fmt.Errorf("failed to read checksum: %w", eofToUnexpected(err))
	}
	if err := ValidateChecksum(computed, stored); err != nil {
		return nil, Header{}, err
	}
	return nn.NewModel(layers...), header, nil
}

// Load reads a .born file from path.
func Load(path string, reg *nn.Registry) (*nn.Model, Header, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model loading
	f, err := os.Open(path)
	if err != nil {
		return nil, Header{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()
	return Read(bufio.NewReader(f), reg)
}

type storedWeight struct {
	meta WeightMeta
	data []float32
}

func readLayer(d *decoder, reg *nn.Registry) (nn.Layer, LayerMeta, error) {
	var meta LayerMeta
	meta.Kind = d.str()
	version := d.u32()
	if d.err != nil {
		return nil, meta, d.err
	}
	if version > math.MaxInt32 {
		return nil, meta, fmt.Errorf("%w: layer version %d", nn.ErrUnsupportedVersion, version)
	}
	meta.Version = int(version)

	nh := d.u32()
	if d.err != nil {
		return nil, meta, d.err
	}
	if err := validateCount("hyperparameters", int64(nh), MaxEntries, ErrTooManyEntries); err != nil {
		return nil, meta, err
	}
	hyper := make(map[string]float64, nh)
	for range nh {
		name := d.str()
		value := d.f64()
		if d.err != nil {
			return nil, meta, d.err
		}
		if _, dup := hyper[name]; dup {
			return nil, meta, fmt.Errorf("%w: duplicate hyperparameter %q", nn.ErrInvalidHyperparameter, name)
		}
		hyper[name] = value
		meta.Hyperparameters = append(meta.Hyperparameters, nn.Hyperparameter{Name: name, Value: value})
	}

	nw := d.u32()
	if d.err != nil {
		return nil, meta, d.err
	}
	if err := validateCount("weights", int64(nw), MaxEntries, ErrTooManyEntries); err != nil {
		return nil, meta, err
	}
	stored := make([]storedWeight, 0, nw)
	for range nw {
		w, err := d.weight()
		if err != nil {
			return nil, meta, err
		}
		stored = append(stored, w)
		meta.Weights = append(meta.Weights, w.meta)
	}

	layer, err := build(reg, meta.Kind, meta.Version, hyper)
	if err != nil {
		return nil, meta, err
	}
	if err := assign(layer, stored); err != nil {
		return nil, meta, err
	}
	return layer, meta, nil
}

// build runs a registry factory, turning a construction panic into an error.
func build(reg *nn.Registry, kind string, version int, hyper map[string]float64) (l nn.Layer, err error) {
	defer func() {
		if r := recover(); r != nil {
			l, err = nil, fmt.Errorf("%w: building %s: %v", nn.ErrInvalidHyperparameter, kind, r)
		}
	}()
	return reg.Build(kind, version, hyper)
}

// assign copies stored values into the layer's weights, which must match
// them in order, name and shape.
func assign(l nn.Layer, stored []storedWeight) error {
	weights := l.Weights()
	if len(weights) != len(stored) {
		return fmt.Errorf("%w: %d stored, layer has %d", ErrWeightMismatch, len(stored), len(weights))
	}
	for i, w := range weights {
		s := stored[i]
		if w.Name != s.meta.Name || !w.Value.Shape().Equal(s.meta.Shape) {
			return fmt.Errorf("%w: stored %s%v, layer has %s%v",
				ErrWeightMismatch, s.meta.Name, s.meta.Shape, w.Name, w.Value.Shape())
		}
	}
	for i, w := range weights {
		copy(w.Value.Data(), stored[i].data)
	}
	return nil
}

// decoder reads little-endian values and keeps the first error. A stream
// that ends early reports io.ErrUnexpectedEOF.
type decoder struct {
	r   io.Reader
	buf [8]byte
	err error
}

func eofToUnexpected(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

func (d *decoder) raw(p []byte) {
	if d.err != nil {
		return
	}
	if _, err := io.ReadFull(d.r, p); err != nil {
		d.err = eofToUnexpected(err)
	}
}

func (d *decoder) u8() uint8 {
	d.raw(d.buf[:1])
	return d.buf[0]
}

func (d *decoder) u16() uint16 {
	d.raw(d.buf[:2])
	return binary.LittleEndian.Uint16(d.buf[:2])
}

func (d *decoder) u32() uint32 {
	d.raw(d.buf[:4])
	return binary.LittleEndian.Uint32(d.buf[:4])
}

func (d *decoder) f64() float64 {
	d.raw(d.buf[:8])
	return math.Float64frombits(binary.LittleEndian.Uint64(d.buf[:8]))
}

func (d *decoder) str() string {
	n := d.u16()
	if d.err != nil {
		return ""
	}
	if int(n) > MaxNameLen {
		d.err = &ValidationError{
			Type:    "name_too_long",
			Details: fmt.Sprintf("length %d > max %d", n, MaxNameLen),
			Err:     ErrNameTooLong,
		}
		return ""
	}
	p := make([]byte, n)
	d.raw(p)
	if d.err != nil {
		return ""
	}
	s := string(p)
	if err := ValidateName(s); err != nil {
		d.err = err
		return ""
	}
	return s
}

func (d *decoder) weight() (storedWeight, error) {
	var w storedWeight
	w.meta.Name = d.str()
	rank := d.u8()
	if d.err != nil {
		return w, d.err
	}
	if rank == 0 || rank > MaxRank {
		return w, &ValidationError{
			Type:    "invalid_shape",
			Name:    w.meta.Name,
			Details: fmt.Sprintf("rank %d not in 1..%d", rank, MaxRank),
			Err:     ErrInvalidShape,
		}
	}
	w.meta.Shape = make(tensor.Shape, rank)
	for i := range w.meta.Shape {
		dim := d.u32()
		if dim > math.MaxInt32 {
			dim = 0 // rejected by ValidateShape
		}
		w.meta.Shape[i] = int(dim)
	}
	if d.err != nil {
		return w, d.err
	}
	n, err := ValidateShape(w.meta.Name, w.meta.Shape)
	if err != nil {
		return w, err
	}
	w.data = d.f32s(n)
	return w, d.err
}

// f32s reads n values in chunks so a truncated stream cannot force a large
// allocation up front.
func (d *decoder) f32s(n int) []float32 {
	data := make([]float32, 0, min(n, floatChunk))
	chunk := make([]byte, 4*min(n, floatChunk))
	for len(data) < n && d.err == nil {
		k := min(n-len(data), floatChunk)
		d.raw(chunk[:4*k])
		if d.err != nil {
			break
		}
		for i := range k {
			data = append(data, math.Float32frombits(binary.LittleEndian.Uint32(chunk[4*i:])))
		}
	}
	return data
}
