package ouster

// ClientState is the outcome of one poll of the sensor connection.
type ClientState int

const (
	StateTimeout ClientState = iota
	StateError
	StateExit
	StateIMUData
	StateLidarData
)

func (s ClientState) String() string {
	switch s {
	case StateTimeout:
		return "timeout"
	case StateError:
		return "error"
	case StateExit:
		return "exit"
	case StateIMUData:
		return "imu data"
	case StateLidarData:
		return "lidar data"
	default:
		return "unknown"
	}
}
