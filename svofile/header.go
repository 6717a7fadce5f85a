package svofile

import (
	"encoding/binary"

	"github.com/google/uuid"
)

const (
	magic   = "SVO1"
	version = 1
)

// Header holds the fixed fields in front of the node stream. Fields are
// stored little endian in declaration order.
type Header struct {
	Magic        [4]byte
	Version      uint8
	Compression  Compression
	VoxelSize    float32
	MaxDepth     uint8
	Connectivity uint8
	Origin       [3]float32
	ID           uuid.UUID
	Nodes        uint32 // materialized nodes in the stream
	RawLen       uint32 // stream length before compression
	Checksum     uint64 // xxhash64 of the raw stream
	PayloadLen   uint32
}

// HeaderSize is the encoded size of Header.
var HeaderSize = binary.Size(Header{})
