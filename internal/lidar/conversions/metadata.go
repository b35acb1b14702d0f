package conversions

import (
	"github.com/banshee-data/ouster-bridge/internal/lidar/msgs"
	"github.com/banshee-data/ouster-bridge/internal/lidar/ouster"
)

// ToMetadataMsg forwards sensor metadata verbatim.
func ToMetadataMsg(md ouster.Metadata) *msgs.Metadata {
	return &msgs.Metadata{
		ComputerIP:             md.ComputerIP,
		LidarIP:                md.LidarIP,
		IMUPort:                int32(md.IMUPort),
		LidarPort:              int32(md.LidarPort),
		LidarMode:              string(md.Mode),
		NumLasers:              uint32(md.NumLasers),
		BeamAltitudeAngles:     md.BeamAltitudeAngles,
		BeamAzimuthAngles:      md.BeamAzimuthAngles,
		IMUToSensorTransform:   md.IMUToSensorTransform,
		LidarToSensorTransform: md.LidarToSensorTransform,
	}
}
