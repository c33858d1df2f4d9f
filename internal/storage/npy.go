package storage

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/san-kum/brinksim/internal/dynamo"
)

var (
	ErrNotNPY        = errors.New("storage: not an npy file")
	ErrUnsupported   = errors.New("storage: unsupported npy layout")
	ErrShapeMismatch = errors.New("storage: shape does not match data length")
)

const (
	npyMagic     = "\x93NUMPY"
	npyAlignment = 64
	npyDescr     = "<f8"
	npyChunk     = 1 << 16
)

// WriteNPY encodes data as a C-ordered little-endian float64 array of the
// given shape in NPY format version 1.0.
func WriteNPY(w io.Writer, shape []int, data []float64) error {
	if product(shape) != len(data) {
		return fmt.Errorf("%w: %v holds %d values, got %d", ErrShapeMismatch, shape, product(shape), len(data))
	}

	header := fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': %s, }", npyDescr, shapeTuple(shape))
	// magic(6) + version(2) + length(2) + header + '\n'
	pad := npyAlignment - (len(npyMagic)+4+len(header)+1)%npyAlignment
	if pad == npyAlignment {
		pad = 0
	}
	header += strings.Repeat(" ", pad) + "\n"
	if len(header) > math.MaxUint16 {
		return fmt.Errorf("%w: header too long for version 1.0", ErrUnsupported)
	}

	bw := bufio.NewWriter(w)
	bw.WriteString(npyMagic)
	bw.Write([]byte{1, 0})
	binary.Write(bw, binary.LittleEndian, uint16(len(header)))
	bw.WriteString(header)

	var buf [8]byte
	for _, v := range data {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		if _, err := bw.Write(buf[:]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadNPY decodes a float64 array written by WriteNPY or by numpy.save.
// Versions 1.0 and 2.0 are accepted; only C-ordered little-endian float64
// data is supported.
func ReadNPY(r io.Reader) ([]int, []float64, error) {
	br := bufio.NewReader(r)

	pre := make([]byte, len(npyMagic)+2)
	if _, err := io.ReadFull(br, pre); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrNotNPY, err)
	}
	if string(pre[:len(npyMagic)]) != npyMagic {
		return nil, nil, ErrNotNPY
	}

	var hlen int
	switch major := pre[len(npyMagic)]; major {
	case 1:
		var n uint16
		if err := binary.Read(br, binary.LittleEndian, &n); err != nil {
			return nil, nil, err
		}
		hlen = int(n)
	case 2:
		var n uint32
		if err := binary.Read(br, binary.LittleEndian, &n); err != nil {
			return nil, nil, err
		}
		hlen = int(n)
	default:
		return nil, nil, fmt.Errorf("%w: version %d", ErrUnsupported, major)
	}

	raw := make([]byte, hlen)
	if _, err := io.ReadFull(br, raw); err != nil {
		return nil, nil, err
	}
	shape, err := parseHeader(string(raw))
	if err != nil {
		return nil, nil, err
	}

	n, err := elements(shape)
	if err != nil {
		return nil, nil, err
	}

	// The header's shape is not trusted for allocation: data grows one chunk
	// at a time, so a short file fails before much memory is committed.
	data := make([]float64, 0, min(n, npyChunk))
	buf := make([]byte, 8*min(n, npyChunk))
	for len(data) < n {
		k := min(npyChunk, n-len(data))
		if _, err := io.ReadFull(br, buf[:8*k]); err != nil {
			return nil, nil, fmt.Errorf("reading element %d of %d: %w", len(data), n, err)
		}
		for i := 0; i < k; i++ {
			data = append(data, math.Float64frombits(binary.LittleEndian.Uint64(buf[8*i:])))
		}
	}
	return shape, data, nil
}

// elements is the element count of shape, rejecting counts whose byte size
// overflows an int.
func elements(shape []int) (int, error) {
	n := 1
	for _, d := range shape {
		if d != 0 && n > math.MaxInt/8/d {
			return 0, fmt.Errorf("%w: shape %v is too large", ErrUnsupported, shape)
		}
		n *= d
	}
	return n, nil
}

func SaveNPY(path string, shape []int, data []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteNPY(f, shape, data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func LoadNPY(path string) ([]int, []float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return ReadNPY(f)
}

// TrajectoryArray lays the samples out as an N×3×T array: element
// (i, c, k) is coordinate c of particle i at sample k.
func TrajectoryArray(states []dynamo.State) ([]int, []float64) {
	if len(states) == 0 {
		return []int{0, 3, 0}, nil
	}
	n, t := states[0].Particles(), len(states)
	data := make([]float64, n*3*t)
	for k, s := range states {
		for j := 0; j < 3*n; j++ {
			data[j*t+k] = s[j]
		}
	}
	return []int{n, 3, t}, data
}

// StatesFromArray is the inverse of TrajectoryArray.
func StatesFromArray(shape []int, data []float64) ([]dynamo.State, error) {
	if len(shape) != 3 || shape[1] != 3 {
		return nil, fmt.Errorf("%w: trajectory shape %v, want (N, 3, T)", ErrUnsupported, shape)
	}
	if product(shape) != len(data) {
		return nil, ErrShapeMismatch
	}
	n, t := shape[0], shape[2]
	states := make([]dynamo.State, t)
	for k := range states {
		s := make(dynamo.State, 3*n)
		for j := range s {
			s[j] = data[j*t+k]
		}
		states[k] = s
	}
	return states, nil
}

func parseHeader(h string) ([]int, error) {
	h = strings.TrimSpace(h)
	if !strings.HasPrefix(h, "{") || !strings.HasSuffix(h, "}") {
		return nil, fmt.Errorf("%w: malformed header %q", ErrNotNPY, h)
	}

	descr, err := headerValue(h, "descr")
	if err != nil {
		return nil, err
	}
	if d := strings.Trim(descr, `'"`); d != npyDescr {
		return nil, fmt.Errorf("%w: dtype %s", ErrUnsupported, d)
	}

	order, err := headerValue(h, "fortran_order")
	if err != nil {
		return nil, err
	}
	if order != "False" {
		return nil, fmt.Errorf("%w: fortran order", ErrUnsupported)
	}

	tuple, err := headerValue(h, "shape")
	if err != nil {
		return nil, err
	}
	tuple = strings.TrimSuffix(strings.TrimPrefix(tuple, "("), ")")
	shape := []int{}
	for _, f := range strings.Split(tuple, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		d, err := strconv.Atoi(f)
		if err != nil || d < 0 {
			return nil, fmt.Errorf("%w: bad dimension %q", ErrNotNPY, f)
		}
		shape = append(shape, d)
	}
	return shape, nil
}

// headerValue extracts the raw value of key from the python dict literal.
func headerValue(h, key string) (string, error) {
	i := strings.Index(h, "'"+key+"'")
	if i < 0 {
		return "", fmt.Errorf("%w: header has no %s", ErrNotNPY, key)
	}
	rest := h[i+len(key)+2:]
	colon := strings.IndexByte(rest, ':')
	if colon < 0 {
		return "", fmt.Errorf("%w: header has no value for %s", ErrNotNPY, key)
	}
	rest = strings.TrimSpace(rest[colon+1:])

	end := strings.IndexByte(rest, ',')
	if strings.HasPrefix(rest, "(") {
		end = strings.IndexByte(rest, ')') + 1
	}
	if end <= 0 {
		end = strings.IndexByte(rest, '}')
	}
	if end < 0 {
		return "", fmt.Errorf("%w: unterminated %s", ErrNotNPY, key)
	}
	return strings.TrimSpace(rest[:end]), nil
}

func shapeTuple(shape []int) string {
	var b bytes.Buffer
	b.WriteByte('(')
	for i, d := range shape {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.Itoa(d))
	}
	if len(shape) == 1 {
		b.WriteByte(',')
	}
	b.WriteByte(')')
	return b.String()
}

func product(shape []int) int {
	p := 1
	for _, d := range shape {
		p *= d
	}
	return p
}
