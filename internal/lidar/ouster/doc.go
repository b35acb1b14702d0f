// Package ouster holds the data model shared by the conversion routines:
// the fixed-layout point record, the tiled point buffer and its validated
// shape, per-sample scan records, and the immutable sensor metadata.
//
// Buffers arrive from the packet-parsing collaborator already assembled into
// one revolution. Nothing in this package decodes device packets.
package ouster
