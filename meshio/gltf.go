// Package meshio moves triangle geometry between glTF files and the octree
// builder, and renders built trees back to GLB for inspection.
package meshio

import (
	"fmt"
	"io"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/multierr"

	"github.com/voxelsplace/svo/geom"
)

// ReadGLTF decodes a glTF or GLB stream and returns the triangles of every
// triangle list primitive. Buffers must be embedded; use LoadGLTF for files
// with external resources. Broken primitives are skipped and reported
// together after the rest has been read.
func ReadGLTF(r io.Reader) ([]geom.Triangle, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(r).Decode(doc); err != nil {
		return nil, fmt.Errorf("decode gltf: %w", err)
	}
	return Triangles(doc)
}

// LoadGLTF reads a .gltf or .glb file from disk.
func LoadGLTF(path string) ([]geom.Triangle, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, err
	}
	tris, err := Triangles(doc)
	if err != nil {
		return tris, fmt.Errorf("%s: %w", path, err)
	}
	return tris, nil
}

// Triangles extracts the triangles of every mesh in doc, in mesh local space.
func Triangles(doc *gltf.Document) ([]geom.Triangle, error) {
	var (
		tris []geom.Triangle
		errs error
	)
	for mi, m := range doc.Meshes {
		for pi, p := range m.Primitives {
			t, err := primitiveTriangles(doc, p)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("mesh %d (%s) primitive %d: %w", mi, m.Name, pi, err))
				continue
			}
			tris = append(tris, t...)
		}
	}
	return tris, errs
}

func primitiveTriangles(doc *gltf.Document, p *gltf.Primitive) ([]geom.Triangle, error) {
	if p.Mode != gltf.PrimitiveTriangles {
		return nil, nil
	}
	posIdx, ok := p.Attributes[gltf.POSITION]
	if !ok {
		return nil, fmt.Errorf("no POSITION attribute")
	}
	if int(posIdx) >= len(doc.Accessors) {
		return nil, fmt.Errorf("position accessor %d out of range", posIdx)
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}

	var indices []uint32
	if p.Indices != nil {
		if int(*p.Indices) >= len(doc.Accessors) {
			return nil, fmt.Errorf("index accessor %d out of range", *p.Indices)
		}
		indices, err = modeler.ReadIndices(doc, doc.Accessors[*p.Indices], nil)
		if err != nil {
			return nil, fmt.Errorf("read indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	if len(indices)%3 != 0 {
		return nil, fmt.Errorf("%d indices do not form triangles", len(indices))
	}

	tris := make([]geom.Triangle, 0, len(indices)/3)
	for i := 0; i < len(indices); i += 3 {
		var t geom.Triangle
		for k := 0; k < 3; k++ {
			idx := indices[i+k]
			if int(idx) >= len(positions) {
				return nil, fmt.Errorf("index %d beyond %d positions", idx, len(positions))
			}
			t[k] = mgl32.Vec3(positions[idx])
		}
		tris = append(tris, t)
	}
	return tris, nil
}

// WriteGLB writes tris as a single flat shaded mesh in binary glTF.
func WriteGLB(w io.Writer, tris []geom.Triangle) error {
	s := &surface{}
	white := [4]float32{1, 1, 1, 1}
	for _, t := range tris {
		s.addTriangle(t, white)
	}
	return s.encode(w, "triangles")
}

// surface accumulates flat shaded, vertex colored geometry.
type surface struct {
	positions [][3]float32
	normals   [][3]float32
	colors    [][4]float32
	indices   []uint32
}

func (s *surface) addTriangle(t geom.Triangle, color [4]float32) {
	n := t.Normal()
	base := uint32(len(s.positions))
	for _, p := range t {
		s.positions = append(s.positions, p)
		s.normals = append(s.normals, n)
		s.colors = append(s.colors, color)
	}
	s.indices = append(s.indices, base, base+1, base+2)
}

// addQuad appends the quad a b c d, wound counter clockwise around normal.
func (s *surface) addQuad(quad [4]mgl32.Vec3, normal mgl32.Vec3, color [4]float32) {
	base := uint32(len(s.positions))
	for _, p := range quad {
		s.positions = append(s.positions, p)
		s.normals = append(s.normals, normal)
		s.colors = append(s.colors, color)
	}
	s.indices = append(s.indices, base, base+1, base+2, base, base+2, base+3)
}

func (s *surface) encode(w io.Writer, name string) error {
	doc := gltf.NewDocument()
	doc.Asset.Generator = "svotool"

	hasAlpha := false
	for _, c := range s.colors {
		if c[3] < 1 {
			hasAlpha = true
			break
		}
	}

	if len(s.indices) > 0 {
		attrs, err := modeler.WritePrimitiveAttributes(doc,
			modeler.PrimitiveAttribute{Name: gltf.POSITION, Data: s.positions},
			modeler.PrimitiveAttribute{Name: gltf.NORMAL, Data: s.normals},
			modeler.PrimitiveAttribute{Name: gltf.COLOR_0, Data: s.colors},
		)
		if err != nil {
			return fmt.Errorf("write attributes: %w", err)
		}
		prim := &gltf.Primitive{
			Attributes: attrs,
			Indices:    gltf.Index(modeler.WriteIndices(doc, s.indices)),
			Material:   gltf.Index(0),
		}
		material := &gltf.Material{
			PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
				BaseColorFactor: &[4]float64{1, 1, 1, 1},
				MetallicFactor:  gltf.Float(0),
				RoughnessFactor: gltf.Float(1),
			},
			AlphaMode: gltf.AlphaOpaque,
		}
		if hasAlpha {
			material.AlphaMode = gltf.AlphaBlend
		}
		doc.Materials = []*gltf.Material{material}
		doc.Meshes = []*gltf.Mesh{{Name: name, Primitives: []*gltf.Primitive{prim}}}
		doc.Nodes = []*gltf.Node{{Name: name, Mesh: gltf.Index(0)}}
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)
	}

	enc := gltf.NewEncoder(w)
	enc.AsBinary = true
	return enc.Encode(doc)
}
