package feed

import (
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/vjranagit/isstracker/pkg/epoch"
	"github.com/vjranagit/isstracker/pkg/fault"
	"github.com/vjranagit/isstracker/pkg/types"
)

type ndmDocument struct {
	XMLName xml.Name    `xml:"ndm"`
	OEM     *oemMessage `xml:"oem"`
}

type oemMessage struct {
	Segments []oemSegment `xml:"body>segment"`
}

type oemSegment struct {
	StateVectors []oemStateVector `xml:"data>stateVector"`
}

type oemQuantity struct {
	Text  string `xml:",chardata"`
	Units string `xml:"units,attr"`
}

type oemStateVector struct {
	Epoch string      `xml:"EPOCH"`
	X     oemQuantity `xml:"X"`
	Y     oemQuantity `xml:"Y"`
	Z     oemQuantity `xml:"Z"`
	XDot  oemQuantity `xml:"X_DOT"`
	YDot  oemQuantity `xml:"Y_DOT"`
	ZDot  oemQuantity `xml:"Z_DOT"`
}

// Decode reads an OEM XML document and returns its state vectors in
// document order
func Decode(r io.Reader) ([]types.StateVector, error) {
	var doc ndmDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, &fault.ParseError{What: "OEM document", Err: err}
	}
	if doc.OEM == nil || len(doc.OEM.Segments) == 0 {
		return nil, &fault.ParseError{What: "OEM document", Err: fmt.Errorf("missing oem/body/segment")}
	}

	vectors := make([]types.StateVector, 0)
	for _, segment := range doc.OEM.Segments {
		for _, raw := range segment.StateVectors {
			sv, err := raw.convert()
			if err != nil {
				return nil, &fault.ParseError{What: fmt.Sprintf("state vector %d", len(vectors)+1), Err: err}
			}
			vectors = append(vectors, sv)
		}
	}

	if len(vectors) == 0 {
		return nil, fault.ErrEmptyFeed
	}
	return vectors, nil
}

func (raw *oemStateVector) convert() (types.StateVector, error) {
	e := strings.TrimSpace(raw.Epoch)
	if _, err := epoch.Parse(e); err != nil {
		return types.StateVector{}, err
	}

	sv := types.StateVector{Epoch: e}
	fields := []struct {
		name string
		in   oemQuantity
		out  *types.Quantity
	}{
		{"X", raw.X, &sv.X},
		{"Y", raw.Y, &sv.Y},
		{"Z", raw.Z, &sv.Z},
		{"X_DOT", raw.XDot, &sv.XDot},
		{"Y_DOT", raw.YDot, &sv.YDot},
		{"Z_DOT", raw.ZDot, &sv.ZDot},
	}
	for _, f := range fields {
		q, err := f.in.convert()
		if err != nil {
			return types.StateVector{}, fmt.Errorf("%s of %s: %w", f.name, e, err)
		}
		*f.out = q
	}
	return sv, nil
}

func (q oemQuantity) convert() (types.Quantity, error) {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return types.Quantity{}, fmt.Errorf("missing value")
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return types.Quantity{}, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return types.Quantity{}, fmt.Errorf("non-finite value %q", text)
	}
	return types.Quantity{Value: v, Units: q.Units}, nil
}
