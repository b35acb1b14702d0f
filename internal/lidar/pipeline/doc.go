// Package pipeline runs the per-revolution conversion loop: it pulls
// revolutions from a Source, converts each one into point cloud, scan and
// optional IMU messages, and hands them to a Sink.
//
// Packet capture and decoding happen outside this package. A Source
// delivers revolutions already assembled into tiled point buffers and scan
// samples; SyntheticSource generates them for tests and demos.
package pipeline
