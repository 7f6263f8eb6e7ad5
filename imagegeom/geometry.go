// Package imagegeom describes how an image is tied to the ground. A Geometry is one of a closed
// set of kinds; only the sensor model kinds can produce a geomodel.Model.
package imagegeom

import (
	"image"

	"github.com/pkg/errors"

	"go.viam.com/sensorgeo/elevation"
	"go.viam.com/sensorgeo/geomodel"
	"go.viam.com/sensorgeo/geomodel/spot5"
	"go.viam.com/sensorgeo/logging"
	"go.viam.com/sensorgeo/rpcmodel"
	"go.viam.com/sensorgeo/utils"
)

// ErrNoSensorModel is returned by NewModel for geometries that only carry a map projection or
// opaque metadata.
var ErrNoSensorModel = errors.New("geometry has no sensor model")

// Kind names a Geometry variant.
type Kind string

// Geometry kinds.
const (
	KindWKT   Kind = "wkt"
	KindEPSG  Kind = "epsg"
	KindRPC   Kind = "rpc"
	KindSAR   Kind = "sar"
	KindSpot5 Kind = "spot5"
)

// Geometry is implemented only by the types in this package.
type Geometry interface {
	Kind() Kind
	isGeometry()
}

// WKT is a map projection given as well known text.
type WKT struct {
	Text string
}

// EPSG is a map projection given by EPSG code.
type EPSG struct {
	Code int
}

// RPC is a rational polynomial camera of an image of the given size.
type RPC struct {
	Param rpcmodel.Param
	Size  image.Point
}

// SAR carries radar metadata as key/value pairs.
type SAR struct {
	Metadata map[string]string
}

// Spot5 is a pushbroom sensor description.
type Spot5 struct {
	Params spot5.Params
}

// Kind returns KindWKT.
func (WKT) Kind() Kind { return KindWKT }

// Kind returns KindEPSG.
func (EPSG) Kind() Kind { return KindEPSG }

// Kind returns KindRPC.
func (RPC) Kind() Kind { return KindRPC }

// Kind returns KindSAR.
func (SAR) Kind() Kind { return KindSAR }

// Kind returns KindSpot5.
func (Spot5) Kind() Kind { return KindSpot5 }

func (WKT) isGeometry()   {}
func (EPSG) isGeometry()  {}
func (RPC) isGeometry()   {}
func (SAR) isGeometry()   {}
func (Spot5) isGeometry() {}

// NewModel builds the sensor model g describes.
func NewModel(g Geometry, heights elevation.Source, logger logging.Logger) (geomodel.Model, error) {
	switch geom := g.(type) {
	case RPC:
		m, err := rpcmodel.NewModel(geom.Param, geom.Size, heights, logger)
		if err != nil {
			return nil, err
		}
		return m, nil
	case Spot5:
		m, err := spot5.New(geom.Params, heights, logger)
		if err != nil {
			return nil, err
		}
		return m, nil
	case WKT, EPSG, SAR:
		return nil, errors.Wrapf(ErrNoSensorModel, "%s", g.Kind())
	default:
		return nil, utils.NewUnexpectedTypeError(RPC{}, g)
	}
}

// FromRPCMetadata parses GDAL RPC metadata into an RPC geometry.
func FromRPCMetadata(md map[string]string, size image.Point) (Geometry, error) {
	param, err := rpcmodel.ParseMetadata(md)
	if err != nil {
		return nil, err
	}
	return RPC{Param: param, Size: size}, nil
}
