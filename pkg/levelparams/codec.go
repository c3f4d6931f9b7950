// SPDX-License-Identifier: AGPL-3.0
// Copyright 2025 Kadir Pekel
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0) (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.gnu.org/licenses/agpl-3.0.en.html
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package levelparams

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/kadirpekel/shgat/pkg/shgaterrors"
)

// formatVersion is bumped whenever the wire layout changes incompatibly.
// importParameters refuses to load a mismatched version rather than
// silently reinterpreting bytes.
const formatVersion uint32 = 1

// Export serialises p to an internally-versioned binary format: a header
// (version, numHeads, hiddenDim, embeddingDim, maxLevel) followed by every
// level's dense tensors in row-major float32.
func (p *Params) Export() []byte {
	var buf bytes.Buffer

	writeU32(&buf, formatVersion)
	writeU32(&buf, uint32(p.NumHeads))
	writeU32(&buf, uint32(p.HiddenDim))
	writeU32(&buf, uint32(p.EmbeddingDim))
	writeU32(&buf, uint32(p.MaxLevel))

	headDim := p.HeadDim()
	for lvl := 0; lvl <= p.MaxLevel; lvl++ {
		level := p.Levels[lvl]
		inputDim := p.InputDim(lvl)
		for h := 0; h < p.NumHeads; h++ {
			writeDense(&buf, level.WChild[h], headDim, inputDim)
			writeDense(&buf, level.WParent[h], headDim, inputDim)
			writeVector(&buf, level.AUpward[h])
			writeVector(&buf, level.ADownward[h])
		}
	}
	return buf.Bytes()
}

// Import decodes bytes produced by Export. It fails closed on a version
// or shape mismatch rather than attempting to reshape.
func Import(data []byte) (*Params, error) {
	r := bytes.NewReader(data)

	version, err := readU32(r)
	if err != nil {
		return nil, &shgaterrors.ShapeMismatch{Reason: "truncated header"}
	}
	if version != formatVersion {
		return nil, &shgaterrors.VersionMismatch{Expected: formatVersion, Actual: version}
	}

	numHeads, err1 := readU32(r)
	hiddenDim, err2 := readU32(r)
	embeddingDim, err3 := readU32(r)
	maxLevel, err4 := readU32(r)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return nil, &shgaterrors.ShapeMismatch{Reason: "truncated header"}
	}

	p := &Params{
		NumHeads:     int(numHeads),
		HiddenDim:    int(hiddenDim),
		EmbeddingDim: int(embeddingDim),
		MaxLevel:     int(maxLevel),
		Levels:       make([]*Level, maxLevel+1),
	}
	if p.NumHeads == 0 || p.HiddenDim == 0 || p.HiddenDim%p.NumHeads != 0 {
		return nil, &shgaterrors.ShapeMismatch{Reason: fmt.Sprintf("invalid header: numHeads=%d hiddenDim=%d", p.NumHeads, p.HiddenDim)}
	}

	headDim := p.HeadDim()
	for lvl := 0; lvl <= int(maxLevel); lvl++ {
		inputDim := p.InputDim(lvl)
		level := &Level{
			WChild:    make([]*mat.Dense, p.NumHeads),
			WParent:   make([]*mat.Dense, p.NumHeads),
			AUpward:   make([][]float64, p.NumHeads),
			ADownward: make([][]float64, p.NumHeads),
		}
		for h := 0; h < p.NumHeads; h++ {
			wc, err := readDense(r, headDim, inputDim)
			if err != nil {
				return nil, err
			}
			wp, err := readDense(r, headDim, inputDim)
			if err != nil {
				return nil, err
			}
			au, err := readVector(r, 2*headDim)
			if err != nil {
				return nil, err
			}
			ad, err := readVector(r, 2*headDim)
			if err != nil {
				return nil, err
			}
			level.WChild[h] = wc
			level.WParent[h] = wp
			level.AUpward[h] = au
			level.ADownward[h] = ad
		}
		p.Levels[lvl] = level
	}
	return p, nil
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func readU32(r *bytes.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func writeDense(buf *bytes.Buffer, m *mat.Dense, rows, cols int) {
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			writeF32(buf, m.At(i, j))
		}
	}
}

func readDense(r *bytes.Reader, rows, cols int) (*mat.Dense, error) {
	data := make([]float64, rows*cols)
	for i := range data {
		v, err := readF32(r)
		if err != nil {
			return nil, &shgaterrors.ShapeMismatch{Reason: "truncated tensor"}
		}
		data[i] = v
	}
	return mat.NewDense(rows, cols, data), nil
}

func writeVector(buf *bytes.Buffer, v []float64) {
	for _, x := range v {
		writeF32(buf, x)
	}
}

func readVector(r *bytes.Reader, n int) ([]float64, error) {
	v := make([]float64, n)
	for i := range v {
		x, err := readF32(r)
		if err != nil {
			return nil, &shgaterrors.ShapeMismatch{Reason: "truncated vector"}
		}
		v[i] = x
	}
	return v, nil
}

func writeF32(buf *bytes.Buffer, x float64) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], math.Float32bits(float32(x)))
	buf.Write(b[:])
}

func readF32(r *bytes.Reader) (float64, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return float64(math.Float32frombits(binary.LittleEndian.Uint32(b[:]))), nil
}
