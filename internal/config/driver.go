package config

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"

	"github.com/banshee-data/ouster-bridge/internal/lidar/ouster"
)

// DefaultConfigPath is the path to the canonical driver defaults file.
const DefaultConfigPath = "config/driver.defaults.json"

const maxConfigFileSize = 1 * 1024 * 1024 // 1MB

// DriverConfig is the root configuration for the bridge driver. Every field
// is optional; the Get* methods supply the default for anything omitted.
type DriverConfig struct {
	// Network
	LidarIP    *string `json:"lidar_ip,omitempty"`
	ComputerIP *string `json:"computer_ip,omitempty"`
	LidarPort  *int    `json:"lidar_port,omitempty"`
	IMUPort    *int    `json:"imu_port,omitempty"`

	// Sensor
	LidarMode *string `json:"lidar_mode,omitempty"`
	NumLasers *int    `json:"num_lasers,omitempty"`
	RingToUse *int    `json:"ring_to_use,omitempty"`

	// Row-major 4x4, translation in millimetres.
	IMUToSensorTransform   []float64 `json:"imu_to_sensor_transform,omitempty"`
	LidarToSensorTransform []float64 `json:"lidar_to_sensor_transform,omitempty"`
	BeamAltitudeAngles     []float64 `json:"beam_altitude_angles,omitempty"`
	BeamAzimuthAngles      []float64 `json:"beam_azimuth_angles,omitempty"`

	// Frames
	LaserFrame  *string `json:"laser_frame,omitempty"`
	IMUFrame    *string `json:"imu_frame,omitempty"`
	SensorFrame *string `json:"sensor_frame,omitempty"`

	// Driver loop
	Workers               *int  `json:"workers,omitempty"`
	CapturePaddingColumns *int  `json:"capture_padding_columns,omitempty"`
	PublishPlaceholderIMU *bool `json:"publish_placeholder_imu,omitempty"`
	Realtime              *bool `json:"realtime,omitempty"`
}

// Factory defaults for the device transforms.
var (
	defaultIMUToSensor = []float64{
		1, 0, 0, 6.253,
		0, 1, 0, -11.775,
		0, 0, 1, 7.645,
		0, 0, 0, 1,
	}
	defaultLidarToSensor = []float64{
		-1, 0, 0, 0,
		0, -1, 0, 0,
		0, 0, 1, 36.18,
		0, 0, 0, 1,
	}
)

func ptrString(v string) *string { return &v }
func ptrInt(v int) *int          { return &v }
func ptrBool(v bool) *bool       { return &v }

// DefaultDriverConfig returns a config with every field set to its default.
func DefaultDriverConfig() *DriverConfig {
	c := &DriverConfig{}
	return &DriverConfig{
		LidarIP:                ptrString(c.GetLidarIP()),
		ComputerIP:             ptrString(c.GetComputerIP()),
		LidarPort:              ptrInt(c.GetLidarPort()),
		IMUPort:                ptrInt(c.GetIMUPort()),
		LidarMode:              ptrString(string(c.GetLidarMode())),
		NumLasers:              ptrInt(c.GetNumLasers()),
		RingToUse:              ptrInt(c.GetRingToUse()),
		IMUToSensorTransform:   c.GetIMUToSensorTransform(),
		LidarToSensorTransform: c.GetLidarToSensorTransform(),
		LaserFrame:             ptrString(c.GetLaserFrame()),
		IMUFrame:               ptrString(c.GetIMUFrame()),
		SensorFrame:            ptrString(c.GetSensorFrame()),
		Workers:                ptrInt(c.GetWorkers()),
		CapturePaddingColumns:  ptrInt(c.GetCapturePaddingColumns()),
		PublishPlaceholderIMU:  ptrBool(c.GetPublishPlaceholderIMU()),
		Realtime:               ptrBool(c.GetRealtime()),
	}
}

// LoadDriverConfig loads a DriverConfig from a JSON file.
// The file must have a .json extension and be under 1MB. Fields omitted
// from the file fall back to their defaults, so partial configs are safe.
func LoadDriverConfig(path string) (*DriverConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxConfigFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &DriverConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the values that are set.
func (c *DriverConfig) Validate() error {
	for name, ip := range map[string]*string{"lidar_ip": c.LidarIP, "computer_ip": c.ComputerIP} {
		if ip != nil && *ip != "" && net.ParseIP(*ip) == nil {
			return fmt.Errorf("%s is not an IP address: %q", name, *ip)
		}
	}
	for name, port := range map[string]*int{"lidar_port": c.LidarPort, "imu_port": c.IMUPort} {
		if port != nil && (*port < 1 || *port > 65535) {
			return fmt.Errorf("%s must be between 1 and 65535, got %d", name, *port)
		}
	}
	if c.LidarMode != nil {
		if _, err := ouster.ParseLidarMode(*c.LidarMode); err != nil {
			return err
		}
	}
	if c.NumLasers != nil && (*c.NumLasers < 1 || *c.NumLasers > 128) {
		return fmt.Errorf("num_lasers must be between 1 and 128, got %d", *c.NumLasers)
	}
	if c.RingToUse != nil && (*c.RingToUse < 0 || *c.RingToUse >= c.GetNumLasers()) {
		return fmt.Errorf("ring_to_use must be in [0, %d), got %d", c.GetNumLasers(), *c.RingToUse)
	}
	if c.Workers != nil && *c.Workers < 1 {
		return fmt.Errorf("workers must be positive, got %d", *c.Workers)
	}
	if c.CapturePaddingColumns != nil && *c.CapturePaddingColumns < 0 {
		return fmt.Errorf("capture_padding_columns must be non-negative, got %d", *c.CapturePaddingColumns)
	}
	if err := c.Metadata().Validate(); err != nil {
		return err
	}
	return nil
}

// GetLidarIP returns the lidar_ip value or the default.
func (c *DriverConfig) GetLidarIP() string {
	if c.LidarIP == nil {
		return "10.5.5.87"
	}
	return *c.LidarIP
}

// GetComputerIP returns the computer_ip value or the default.
func (c *DriverConfig) GetComputerIP() string {
	if c.ComputerIP == nil {
		return "10.5.5.1"
	}
	return *c.ComputerIP
}

// GetLidarPort returns the lidar_port value or the default.
func (c *DriverConfig) GetLidarPort() int {
	if c.LidarPort == nil {
		return 7502
	}
	return *c.LidarPort
}

// GetIMUPort returns the imu_port value or the default.
func (c *DriverConfig) GetIMUPort() int {
	if c.IMUPort == nil {
		return 7503
	}
	return *c.IMUPort
}

// GetLidarMode returns the lidar_mode value or the default. An invalid mode
// falls back to the default; Validate reports it.
func (c *DriverConfig) GetLidarMode() ouster.LidarMode {
	if c.LidarMode == nil {
		return ouster.Mode1024x10
	}
	m, err := ouster.ParseLidarMode(*c.LidarMode)
	if err != nil {
		return ouster.Mode1024x10
	}
	return m
}

// GetNumLasers returns the num_lasers value or the default.
func (c *DriverConfig) GetNumLasers() int {
	if c.NumLasers == nil {
		return 16
	}
	return *c.NumLasers
}

// GetRingToUse returns the ring_to_use value or the default.
func (c *DriverConfig) GetRingToUse() int {
	if c.RingToUse == nil {
		return 0
	}
	return *c.RingToUse
}

// GetIMUToSensorTransform returns the imu_to_sensor_transform or the
// factory default. The result is a fresh copy.
func (c *DriverConfig) GetIMUToSensorTransform() []float64 {
	if c.IMUToSensorTransform == nil {
		return append([]float64(nil), defaultIMUToSensor...)
	}
	return append([]float64(nil), c.IMUToSensorTransform...)
}

// GetLidarToSensorTransform returns the lidar_to_sensor_transform or the
// factory default. The result is a fresh copy.
func (c *DriverConfig) GetLidarToSensorTransform() []float64 {
	if c.LidarToSensorTransform == nil {
		return append([]float64(nil), defaultLidarToSensor...)
	}
	return append([]float64(nil), c.LidarToSensorTransform...)
}

// GetLaserFrame returns the laser_frame value or the default.
func (c *DriverConfig) GetLaserFrame() string {
	if c.LaserFrame == nil {
		return "laser_data_frame"
	}
	return *c.LaserFrame
}

// GetIMUFrame returns the imu_frame value or the default.
func (c *DriverConfig) GetIMUFrame() string {
	if c.IMUFrame == nil {
		return "imu_data_frame"
	}
	return *c.IMUFrame
}

// GetSensorFrame returns the sensor_frame value or the default.
func (c *DriverConfig) GetSensorFrame() string {
	if c.SensorFrame == nil {
		return "laser_sensor_frame"
	}
	return *c.SensorFrame
}

// GetWorkers returns the workers value or the default.
func (c *DriverConfig) GetWorkers() int {
	if c.Workers == nil {
		return 2
	}
	return *c.Workers
}

// GetCapturePaddingColumns returns the capture_padding_columns value or the default.
func (c *DriverConfig) GetCapturePaddingColumns() int {
	if c.CapturePaddingColumns == nil {
		return 0
	}
	return *c.CapturePaddingColumns
}

// GetPublishPlaceholderIMU returns the publish_placeholder_imu value or the default.
func (c *DriverConfig) GetPublishPlaceholderIMU() bool {
	if c.PublishPlaceholderIMU == nil {
		return false
	}
	return *c.PublishPlaceholderIMU
}

// GetRealtime returns the realtime value or the default.
func (c *DriverConfig) GetRealtime() bool {
	if c.Realtime == nil {
		return false
	}
	return *c.Realtime
}

// Metadata builds the sensor metadata described by the config.
func (c *DriverConfig) Metadata() ouster.Metadata {
	return ouster.Metadata{
		ComputerIP:             c.GetComputerIP(),
		LidarIP:                c.GetLidarIP(),
		IMUPort:                c.GetIMUPort(),
		LidarPort:              c.GetLidarPort(),
		NumLasers:              c.GetNumLasers(),
		Mode:                   c.GetLidarMode(),
		IMUToSensorTransform:   c.GetIMUToSensorTransform(),
		LidarToSensorTransform: c.GetLidarToSensorTransform(),
		BeamAltitudeAngles:     c.BeamAltitudeAngles,
		BeamAzimuthAngles:      c.BeamAzimuthAngles,
	}
}
