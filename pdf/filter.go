// seehuhn.de/go/pdfmerge - a library for merging PDF files
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// Decode returns the stream data with all filters removed.
//
// Only the FlateDecode filter is supported.  This is enough to read
// cross-reference streams; the contents of other streams are never decoded.
func (x *Stream) Decode() ([]byte, error) {
	var names []Object
	var parms []Object
	switch f := x.Dict["Filter"].(type) {
	case nil:
		return x.Data, nil
	case Name:
		names = Array{f}
		parms = Array{x.Dict["DecodeParms"]}
	case Array:
		names = f
		parms, _ = x.Dict["DecodeParms"].(Array)
	default:
		return nil, errors.New("invalid /Filter field")
	}

	data := x.Data
	for i, name := range names {
		var p Dict
		if i < len(parms) {
			p, _ = parms[i].(Dict)
		}
		switch name {
		case Name("FlateDecode"), Name("Fl"):
			var err error
			data, err = flateDecode(data, p)
			if err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("unsupported filter %s", Format(name))
		}
	}
	return data, nil
}

func flateDecode(data []byte, parms Dict) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, err
	}

	predictor := getParm(parms, "Predictor", 1)
	switch {
	case predictor == 1:
		return out, nil
	case predictor >= 10:
		colors := getParm(parms, "Colors", 1)
		bpc := getParm(parms, "BitsPerComponent", 8)
		columns := getParm(parms, "Columns", 1)
		return pngUnpredict(out, colors, bpc, columns)
	default:
		return nil, fmt.Errorf("unsupported predictor %d", predictor)
	}
}

func getParm(parms Dict, key Name, dflt int) int {
	if val, ok := parms[key].(Integer); ok && val > 0 && val < 1<<20 {
		return int(val)
	}
	return dflt
}

// pngUnpredict reverses the PNG prediction, where every row starts with a
// byte giving the predictor used for this row.
func pngUnpredict(data []byte, colors, bpc, columns int) ([]byte, error) {
	bpp := (colors*bpc + 7) / 8
	rowLen := (colors*bpc*columns + 7) / 8

	prev := make([]byte, rowLen)
	out := make([]byte, 0, len(data))
	for len(data) > 0 {
		if len(data) < rowLen+1 {
			return nil, errors.New("truncated PNG predictor data")
		}
		tp := data[0]
		row := data[1 : rowLen+1]
		data = data[rowLen+1:]

		cur := make([]byte, rowLen)
		for i := range row {
			var left, upLeft byte
			if i >= bpp {
				left = cur[i-bpp]
				upLeft = prev[i-bpp]
			}
			up := prev[i]
			switch tp {
			case 0:
				cur[i] = row[i]
			case 1:
				cur[i] = row[i] + left
			case 2:
				cur[i] = row[i] + up
			case 3:
				cur[i] = row[i] + byte((int(left)+int(up))/2)
			case 4:
				cur[i] = row[i] + paeth(left, up, upLeft)
			default:
				return nil, fmt.Errorf("invalid PNG predictor type %d", tp)
			}
		}
		out = append(out, cur...)
		prev = cur
	}
	return out, nil
}

func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa := abs(p - int(a))
	pb := abs(p - int(b))
	pc := abs(p - int(c))
	if pa <= pb && pa <= pc {
		return a
	} else if pb <= pc {
		return b
	}
	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func flateEncode(data []byte) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw, err := zlib.NewWriterLevel(buf, zlib.BestCompression)
	if err != nil {
		return nil, err
	}
	_, err = zw.Write(data)
	if err != nil {
		return nil, err
	}
	err = zw.Close()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
