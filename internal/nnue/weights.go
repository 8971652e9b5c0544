package nnue

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrMalformedWeights is returned when a weight file does not describe the
// configured network: a shape field disagrees, a value is missing or does
// not parse, or values are left over.
var ErrMalformedWeights = errors.New("malformed weight file")

// Weight file format, one value per line:
//   - inputWidth, hiddenWidth, outputWidth, hiddenLayerCount
//   - for each non-input layer in order, its weights in row-major order
//   - for each non-input layer in order, its biases

// SaveWeights writes the network's weights to w.
func (n *Network) SaveWeights(w io.Writer) error {
	bw := bufio.NewWriter(w)
	s := n.settings

	for _, v := range []int{s.InputWidth, s.HiddenWidth, s.OutputWidth, s.HiddenLayers} {
		bw.WriteString(strconv.Itoa(v))
		bw.WriteByte('\n')
	}

	writeFloats := func(vals []float64) {
		var buf []byte
		for _, v := range vals {
			buf = strconv.AppendFloat(buf[:0], v, 'g', -1, 64)
			buf = append(buf, '\n')
			bw.Write(buf)
		}
	}
	for i := 1; i < len(n.layers); i++ {
		writeFloats(n.layers[i].Weights)
	}
	for i := 1; i < len(n.layers); i++ {
		writeFloats(n.layers[i].Bias)
	}

	if err := bw.Flush(); err != nil {
		return errors.Wrap(err, "failed to write weights")
	}
	return nil
}

// LoadWeights reads weights written by SaveWeights. Nothing in the network
// changes unless the whole file is valid.
func (n *Network) LoadWeights(r io.Reader) error {
	sc := bufio.NewScanner(r)
	line := 0
	next := func() (string, error) {
		for sc.Scan() {
			line++
			if text := strings.TrimSpace(sc.Text()); text != "" {
				return text, nil
			}
		}
		if err := sc.Err(); err != nil {
			return "", errors.Wrap(err, "failed to read weights")
		}
		return "", errors.Wrapf(ErrMalformedWeights, "unexpected end of file after line %d", line)
	}

	s := n.settings
	header := []struct {
		name string
		want int
	}{
		{"input width", s.InputWidth},
		{"hidden width", s.HiddenWidth},
		{"output width", s.OutputWidth},
		{"hidden layer count", s.HiddenLayers},
	}
	for _, h := range header {
		text, err := next()
		if err != nil {
			return err
		}
		got, err := strconv.Atoi(text)
		if err != nil {
			return errors.Wrapf(ErrMalformedWeights, "line %d: %s %q is not an integer", line, h.name, text)
		}
		if got != h.want {
			return errors.Wrapf(ErrMalformedWeights, "%s mismatch: expected %d, got %d", h.name, h.want, got)
		}
	}

	readFloats := func(dst []float64) error {
		for i := range dst {
			text, err := next()
			if err != nil {
				return err
			}
			v, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return errors.Wrapf(ErrMalformedWeights, "line %d: %q is not a number", line, text)
			}
			dst[i] = v
		}
		return nil
	}

	// Stage everything before touching the live layers.
	weights := make([][]float64, len(n.layers))
	biases := make([][]float64, len(n.layers))
	for i := 1; i < len(n.layers); i++ {
		weights[i] = make([]float64, len(n.layers[i].Weights))
		if err := readFloats(weights[i]); err != nil {
			return err
		}
	}
	for i := 1; i < len(n.layers); i++ {
		biases[i] = make([]float64, len(n.layers[i].Bias))
		if err := readFloats(biases[i]); err != nil {
			return err
		}
	}
	if text, err := next(); err == nil {
		return errors.Wrapf(ErrMalformedWeights, "line %d: unexpected trailing value %q", line, text)
	} else if errors.Cause(err) != ErrMalformedWeights {
		return err
	}

	for i := 1; i < len(n.layers); i++ {
		copy(n.layers[i].Weights, weights[i])
		copy(n.layers[i].Bias, biases[i])
	}
	return nil
}

// SaveWeightsFile writes the weights to filename, replacing it atomically.
func (n *Network) SaveWeightsFile(filename string) error {
	tmp := filename + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return errors.Wrap(err, "failed to create weights file")
	}
	if err := n.SaveWeights(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errors.Wrap(err, "failed to close weights file")
	}
	if err := os.Rename(tmp, filename); err != nil {
		return errors.Wrap(err, "failed to replace weights file")
	}
	return nil
}

// LoadWeightsFile loads weights from filename.
func (n *Network) LoadWeightsFile(filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return errors.Wrap(err, "failed to open weights file")
	}
	defer f.Close()
	return n.LoadWeights(f)
}
