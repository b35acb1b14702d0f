// Package msgs defines the message contracts handed to the publishing
// collaborator: point clouds, laser scans, transforms, IMU samples and
// sensor metadata.
//
// Each message serialises itself little-endian with uint32 length prefixes
// for strings and arrays. The bus framing around that payload belongs to
// the transport and is not defined here.
package msgs
