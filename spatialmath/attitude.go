package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
)

// SatToOrbRotation returns the rotation from the satellite body frame to the local orbital frame
// for the given attitude angles in radians. The composition is fixed by the sensor convention:
//
//	[[cr*cy,            -cr*sy,           -sr   ],
//	 [cp*sy+sp*sr*cy,    cp*cy-sp*sr*sy,   sp*cr],
//	 [-sp*sy+cp*sr*cy,  -sp*cy-cp*sr*sy,   cp*cr]]
func SatToOrbRotation(pitch, roll, yaw float64) *RotationMatrix {
	cp, sp := math.Cos(pitch), math.Sin(pitch)
	cr, sr := math.Cos(roll), math.Sin(roll)
	cy, sy := math.Cos(yaw), math.Sin(yaw)

	return &RotationMatrix{[9]float64{
		cr * cy, -cr * sy, -sr,
		cp*sy + sp*sr*cy, cp*cy - sp*sr*sy, sp * cr,
		-sp*sy + cp*sr*cy, -sp*cy - cp*sr*sy, cp * cr,
	}}
}

// AttitudeAngles holds pitch, roll and yaw in radians, in that order.
type AttitudeAngles struct {
	Pitch, Roll, Yaw float64
}

// AttitudeFromVector reads (pitch, roll, yaw) out of X, Y, Z.
func AttitudeFromVector(v r3.Vector) AttitudeAngles {
	return AttitudeAngles{Pitch: v.X, Roll: v.Y, Yaw: v.Z}
}

// Vector packs the angles back into X, Y, Z.
func (a AttitudeAngles) Vector() r3.Vector {
	return r3.Vector{X: a.Pitch, Y: a.Roll, Z: a.Yaw}
}

// SatToOrb is SatToOrbRotation for a, exposed for callers that keep angles grouped.
func (a AttitudeAngles) SatToOrb() *RotationMatrix {
	return SatToOrbRotation(a.Pitch, a.Roll, a.Yaw)
}
