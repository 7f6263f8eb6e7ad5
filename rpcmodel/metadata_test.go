package rpcmodel

import (
	"strings"
	"testing"

	"go.viam.com/test"
)

func sampleParam() Param {
	p := Param{
		SampleOffset: 2999.5, LineOffset: 3012.25, LatOffset: 43.6, LonOffset: 1.44, HeightOffset: 150,
		SampleScale: 3000, LineScale: 3010, LatScale: 1, LonScale: 1, HeightScale: 450,
	}
	for i := 0; i < NumCoeffs; i++ {
		p.LineNum[i] = float64(i) * 1.0e-3
		p.SampleNum[i] = -float64(i) * 2.5e-4
		p.LineDen[i] = float64(i) * 1e-6
		p.SampleDen[i] = float64(i) * -3e-7
	}
	p.LineDen[0], p.SampleDen[0] = 1, 1
	return p
}

func TestMetadataLayout(t *testing.T) {
	p := sampleParam()
	md := p.Metadata()
	test.That(t, md, test.ShouldHaveLength, len(MetadataKeys()))
	test.That(t, md["LINE_OFF"], test.ShouldEqual, "3012.25")
	test.That(t, md["LONG_OFF"], test.ShouldEqual, "1.44")
	test.That(t, md["HEIGHT_SCALE"], test.ShouldEqual, "450")
	test.That(t, strings.Fields(md[KeySampleNumCoeff]), test.ShouldHaveLength, NumCoeffs)
	test.That(t, strings.Fields(md[KeyLineDenCoeff])[0], test.ShouldEqual, "1")

	parsed, err := ParseMetadata(md)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, parsed.Fields(), test.ShouldResemble, p.Fields())
	for i := 0; i < NumCoeffs; i++ {
		test.That(t, parsed.LineNum[i], test.ShouldAlmostEqual, p.LineNum[i], 1e-15)
		test.That(t, parsed.SampleDen[i], test.ShouldAlmostEqual, p.SampleDen[i], 1e-15)
	}
}

func TestParseMetadataErrors(t *testing.T) {
	p := sampleParam()
	md := p.Metadata()
	delete(md, "LAT_SCALE")
	md["SAMP_OFF"] = "twelve"
	md[KeyLineNumCoeff] = "1 2 3"

	_, err := ParseMetadata(md)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "missing LAT_SCALE")
	test.That(t, err.Error(), test.ShouldContainSubstring, "parsing SAMP_OFF")
	test.That(t, err.Error(), test.ShouldContainSubstring, "LINE_NUM_COEFF has 3 values")
}

func TestParamValidate(t *testing.T) {
	p := sampleParam()
	test.That(t, p.Validate(), test.ShouldBeNil)

	p.LatScale = 0
	test.That(t, p.Validate(), test.ShouldNotBeNil)
	test.That(t, p.Validate().Error(), test.ShouldContainSubstring, "LAT_SCALE")

	p = sampleParam()
	p.SampleDen[0] = 0
	test.That(t, p.Validate(), test.ShouldNotBeNil)
}
