// Package svofile stores built octrees on disk.
//
// A file is a fixed Header followed by the node stream: every materialized
// node in pre-order, children in octant order, as a 2 bit state packed LSB
// first. The stream may be compressed; its checksum covers the raw bits.
package svofile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	xxhash "github.com/cespare/xxhash/v2"

	"github.com/voxelsplace/svo/morton"
	"github.com/voxelsplace/svo/svo"
)

var (
	// ErrFormat reports a file that is not a valid .svo stream.
	ErrFormat = errors.New("svofile: invalid format")
	// ErrChecksum reports a node stream that does not match its checksum.
	ErrChecksum = errors.New("svofile: checksum mismatch")
)

const stateBits = 2

// Encode serializes tree with the given compression.
func Encode(tree *svo.Octree, comp Compression) ([]byte, error) {
	bw := newBitWriter((tree.NodeCount()*stateBits + 7) / 8)
	nodes := 0
	tree.PreOrder(func(n svo.Node) bool {
		bw.writeBits(uint64(n.State), stateBits)
		nodes++
		return true
	})
	raw := bw.bytes()

	payload, used, err := compress(comp, raw)
	if err != nil {
		return nil, err
	}

	p := tree.Params()
	hdr := Header{
		Version:      version,
		Compression:  used,
		VoxelSize:    p.VoxelSize,
		MaxDepth:     p.MaxDepth,
		Connectivity: uint8(p.Connectivity),
		Origin:       p.Origin,
		ID:           p.ID,
		Nodes:        uint32(nodes),
		RawLen:       uint32(len(raw)),
		Checksum:     xxhash.Sum64(raw),
		PayloadLen:   uint32(len(payload)),
	}
	copy(hdr.Magic[:], magic)

	var buf bytes.Buffer
	buf.Grow(HeaderSize + len(payload))
	if err := binary.Write(&buf, binary.LittleEndian, hdr); err != nil {
		return nil, err
	}
	_, _ = buf.Write(payload)
	return buf.Bytes(), nil
}

// ReadHeader parses and checks the header of an encoded file without
// touching the payload.
func ReadHeader(data []byte) (Header, error) {
	var hdr Header
	if len(data) < HeaderSize {
		return hdr, fmt.Errorf("%d bytes, header needs %d: %w", len(data), HeaderSize, ErrFormat)
	}
	if err := binary.Read(bytes.NewReader(data[:HeaderSize]), binary.LittleEndian, &hdr); err != nil {
		return hdr, fmt.Errorf("header: %w: %w", ErrFormat, err)
	}
	if string(hdr.Magic[:]) != magic {
		return hdr, fmt.Errorf("magic %q: %w", hdr.Magic[:], ErrFormat)
	}
	if hdr.Version != version {
		return hdr, fmt.Errorf("version %d not supported: %w", hdr.Version, ErrFormat)
	}
	if hdr.MaxDepth > morton.MaxDepth {
		return hdr, fmt.Errorf("max depth %d: %w", hdr.MaxDepth, ErrFormat)
	}
	if want := uint64(len(data) - HeaderSize); uint64(hdr.PayloadLen) != want {
		return hdr, fmt.Errorf("payload length %d, have %d: %w", hdr.PayloadLen, want, ErrFormat)
	}
	if need := (uint64(hdr.Nodes)*stateBits + 7) / 8; uint64(hdr.RawLen) != need {
		return hdr, fmt.Errorf("raw length %d for %d nodes: %w", hdr.RawLen, hdr.Nodes, ErrFormat)
	}
	return hdr, nil
}

// Decode parses a file produced by Encode and validates the rebuilt tree.
func Decode(data []byte) (*svo.Octree, error) {
	hdr, err := ReadHeader(data)
	if err != nil {
		return nil, err
	}
	raw, err := decompress(hdr.Compression, data[HeaderSize:])
	if err != nil {
		return nil, fmt.Errorf("%v payload: %w: %w", hdr.Compression, ErrFormat, err)
	}
	if uint32(len(raw)) != hdr.RawLen {
		return nil, fmt.Errorf("raw stream is %d bytes, want %d: %w", len(raw), hdr.RawLen, ErrFormat)
	}
	if xxhash.Sum64(raw) != hdr.Checksum {
		return nil, ErrChecksum
	}

	nodes := make(map[morton.Code]svo.State, hdr.Nodes)
	r := newBitReader(raw)
	if err := readNode(r, morton.Root, hdr.MaxDepth, nodes); err != nil {
		return nil, err
	}
	if uint32(len(nodes)) != hdr.Nodes {
		return nil, fmt.Errorf("stream holds %d nodes, header says %d: %w", len(nodes), hdr.Nodes, ErrFormat)
	}
	if r.remaining() {
		return nil, fmt.Errorf("trailing bits after node stream: %w", ErrFormat)
	}

	tree, err := svo.NewOctree(svo.Params{
		VoxelSize:    hdr.VoxelSize,
		MaxDepth:     hdr.MaxDepth,
		Origin:       hdr.Origin,
		Connectivity: svo.Connectivity(hdr.Connectivity),
		ID:           hdr.ID,
	}, nodes)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	return tree, nil
}

func readNode(r *bitReader, c morton.Code, maxDepth uint8, nodes map[morton.Code]svo.State) error {
	v, err := r.readBits(stateBits)
	if err != nil {
		return fmt.Errorf("node %v: %w: %w", c, ErrFormat, err)
	}
	s := svo.State(v)
	if s > svo.Subdivided {
		return fmt.Errorf("node %v has state %d: %w", c, v, ErrFormat)
	}
	nodes[c] = s
	if s != svo.Subdivided {
		return nil
	}
	if c.Depth() >= maxDepth {
		return fmt.Errorf("node %v subdivided at max depth %d: %w", c, maxDepth, ErrFormat)
	}
	kids, err := morton.Children(c)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFormat, err)
	}
	for _, k := range kids {
		if err := readNode(r, k, maxDepth, nodes); err != nil {
			return err
		}
	}
	return nil
}

// Save writes tree to filename.
func Save(filename string, tree *svo.Octree, comp Compression) error {
	data, err := Encode(tree, comp)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}

// Load reads a tree written by Save.
func Load(filename string) (*svo.Octree, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	tree, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return tree, nil
}
