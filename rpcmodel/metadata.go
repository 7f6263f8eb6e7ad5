package rpcmodel

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"go.uber.org/multierr"
)

// GDAL RPC metadata keys.
const (
	KeyLineNumCoeff   = "LINE_NUM_COEFF"
	KeyLineDenCoeff   = "LINE_DEN_COEFF"
	KeySampleNumCoeff = "SAMP_NUM_COEFF"
	KeySampleDenCoeff = "SAMP_DEN_COEFF"
)

// scalarKeys follows the order of Param.Fields.
var scalarKeys = [10]string{
	"LINE_OFF", "SAMP_OFF", "LAT_OFF", "LONG_OFF", "HEIGHT_OFF",
	"LINE_SCALE", "SAMP_SCALE", "LAT_SCALE", "LONG_SCALE", "HEIGHT_SCALE",
}

// MetadataKeys returns every key Metadata writes, scalars first.
func MetadataKeys() []string {
	keys := append([]string(nil), scalarKeys[:]...)
	return append(keys, KeyLineNumCoeff, KeyLineDenCoeff, KeySampleNumCoeff, KeySampleDenCoeff)
}

// Metadata renders p in the GDAL RPC metadata layout. Coefficient vectors are space separated.
func (p *Param) Metadata() map[string]string {
	md := make(map[string]string, len(scalarKeys)+4)
	for i, v := range p.Fields() {
		md[scalarKeys[i]] = formatFloat(v)
	}
	md[KeyLineNumCoeff] = formatCoeffs(&p.LineNum)
	md[KeyLineDenCoeff] = formatCoeffs(&p.LineDen)
	md[KeySampleNumCoeff] = formatCoeffs(&p.SampleNum)
	md[KeySampleDenCoeff] = formatCoeffs(&p.SampleDen)
	return md
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%.15g", v)
}

func formatCoeffs(c *[NumCoeffs]float64) string {
	parts := make([]string, len(c))
	for i, v := range c {
		parts[i] = formatFloat(v)
	}
	return strings.Join(parts, " ")
}

// ParseMetadata reads the GDAL RPC metadata layout. Every missing or malformed entry is reported.
func ParseMetadata(md map[string]string) (Param, error) {
	var errs error
	var scalars [10]float64
	for i, key := range scalarKeys {
		raw, ok := md[key]
		if !ok {
			errs = multierr.Append(errs, errors.Errorf("missing %s", key))
			continue
		}
		v, err := cast.ToFloat64E(strings.TrimSpace(raw))
		if err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "parsing %s", key))
			continue
		}
		scalars[i] = v
	}

	var p Param
	p.LineOffset, p.SampleOffset, p.LatOffset, p.LonOffset, p.HeightOffset = scalars[0], scalars[1], scalars[2], scalars[3], scalars[4]
	p.LineScale, p.SampleScale, p.LatScale, p.LonScale, p.HeightScale = scalars[5], scalars[6], scalars[7], scalars[8], scalars[9]

	errs = multierr.Combine(errs,
		parseCoeffs(md, KeyLineNumCoeff, &p.LineNum),
		parseCoeffs(md, KeyLineDenCoeff, &p.LineDen),
		parseCoeffs(md, KeySampleNumCoeff, &p.SampleNum),
		parseCoeffs(md, KeySampleDenCoeff, &p.SampleDen))
	if errs != nil {
		return Param{}, errs
	}
	return p, nil
}

func parseCoeffs(md map[string]string, key string, out *[NumCoeffs]float64) error {
	raw, ok := md[key]
	if !ok {
		return errors.Errorf("missing %s", key)
	}
	fields := strings.Fields(raw)
	if len(fields) != NumCoeffs {
		return errors.Errorf("%s has %d values, expected %d", key, len(fields), NumCoeffs)
	}
	for i, f := range fields {
		v, err := cast.ToFloat64E(f)
		if err != nil {
			return errors.Wrapf(err, "parsing %s[%d]", key, i)
		}
		out[i] = v
	}
	return nil
}
