package ouster

// ScanSample is one return as seen by the 2D scan path.
type ScanSample struct {
	RangeMillimeters uint32
	Intensity        float32
	Ring             uint8
	// TNanos is the device "t" field in nanoseconds. For the first sample of
	// a revolution the device protocol uses it as the scan duration.
	TNanos uint32
}
