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

package shgat

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/kadirpekel/shgat/pkg/shgaterrors"
)

// qkFormatVersion is bumped whenever the wire layout changes
// incompatibly, mirroring pkg/levelparams.formatVersion.
const qkFormatVersion uint32 = 1

// Export serialises the scorer's learned projections (C4) so a trained
// QKParams survives a process restart, independent of the message-passing
// tensors in pkg/levelparams which have their own codec.
func (qk *QKParams) Export() []byte {
	var buf bytes.Buffer

	qkWriteU32(&buf, qkFormatVersion)
	qkWriteU32(&buf, uint32(qk.NumHeads))
	qkWriteU32(&buf, uint32(qk.HeadDim))
	qkWriteU32(&buf, uint32(qk.EmbeddingDim))
	qkWriteU32(&buf, uint32(qk.HiddenDim))

	for h := 0; h < qk.NumHeads; h++ {
		qkWriteDense(&buf, qk.WQ[h], qk.HeadDim, qk.EmbeddingDim)
		qkWriteDense(&buf, qk.WK[h], qk.HeadDim, qk.HiddenDim)
		qkWriteF32(&buf, qk.FusionW[h])
	}
	qkWriteF32(&buf, qk.FusionB)
	return buf.Bytes()
}

// ImportQK decodes bytes produced by QKParams.Export.
func ImportQK(data []byte) (*QKParams, error) {
	r := bytes.NewReader(data)

	version, err := qkReadU32(r)
	if err != nil {
		return nil, &shgaterrors.ShapeMismatch{Reason: "truncated header"}
	}
	if version != qkFormatVersion {
		return nil, &shgaterrors.VersionMismatch{Expected: qkFormatVersion, Actual: version}
	}

	numHeads, err1 := qkReadU32(r)
	headDim, err2 := qkReadU32(r)
	embeddingDim, err3 := qkReadU32(r)
	hiddenDim, err4 := qkReadU32(r)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return nil, &shgaterrors.ShapeMismatch{Reason: "truncated header"}
	}
	if numHeads == 0 {
		return nil, &shgaterrors.ShapeMismatch{Reason: fmt.Sprintf("invalid header: numHeads=%d", numHeads)}
	}

	qk := &QKParams{
		NumHeads:     int(numHeads),
		HeadDim:      int(headDim),
		EmbeddingDim: int(embeddingDim),
		HiddenDim:    int(hiddenDim),
		WQ:           make([]*mat.Dense, numHeads),
		WK:           make([]*mat.Dense, numHeads),
		FusionW:      make([]float64, numHeads),
	}
	for h := 0; h < int(numHeads); h++ {
		wq, err := qkReadDense(r, int(headDim), int(embeddingDim))
		if err != nil {
			return nil, err
		}
		wk, err := qkReadDense(r, int(headDim), int(hiddenDim))
		if err != nil {
			return nil, err
		}
		fw, err := qkReadF32(r)
		if err != nil {
			return nil, &shgaterrors.ShapeMismatch{Reason: "truncated fusion weight"}
		}
		qk.WQ[h] = wq
		qk.WK[h] = wk
		qk.FusionW[h] = fw
	}
	fb, err := qkReadF32(r)
	if err != nil {
		return nil, &shgaterrors.ShapeMismatch{Reason: "truncated fusion bias"}
	}
	qk.FusionB = fb
	return qk, nil
}

func qkWriteU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func qkReadU32(r *bytes.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func qkWriteDense(buf *bytes.Buffer, m *mat.Dense, rows, cols int) {
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			qkWriteF32(buf, m.At(i, j))
		}
	}
}

func qkReadDense(r *bytes.Reader, rows, cols int) (*mat.Dense, error) {
	data := make([]float64, rows*cols)
	for i := range data {
		v, err := qkReadF32(r)
		if err != nil {
			return nil, &shgaterrors.ShapeMismatch{Reason: "truncated tensor"}
		}
		data[i] = v
	}
	return mat.NewDense(rows, cols, data), nil
}

func qkWriteF32(buf *bytes.Buffer, x float64) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], math.Float32bits(float32(x)))
	buf.Write(b[:])
}

func qkReadF32(r *bytes.Reader) (float64, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return float64(math.Float32frombits(binary.LittleEndian.Uint32(b[:]))), nil
}
