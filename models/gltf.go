package models

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/turntable3d/turntable/math3d"
)

// GLTFLoader loads GLTF/GLB documents into the Mesh representation.
type GLTFLoader struct {
	CalculateNormals bool // Calculate normals when the document has none
	SmoothNormals    bool
}

// NewGLTFLoader creates a GLTF loader with default options.
func NewGLTFLoader() *GLTFLoader {
	return &GLTFLoader{
		CalculateNormals: true,
		SmoothNormals:    true,
	}
}

// LoadGLB loads a GLTF or binary GLTF (.glb) file from disk.
func LoadGLB(path string) (*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}
	return NewGLTFLoader().fromDocument(doc, filepath.Base(path))
}

// ParseGLB parses binary GLTF data from memory. External buffer references
// are not resolved; GLB embeds its buffers so this covers the viewer's case.
func ParseGLB(data []byte, name string) (*Mesh, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(doc); err != nil {
		return nil, fmt.Errorf("decode gltf: %w", err)
	}
	return NewGLTFLoader().fromDocument(doc, name)
}

func (l *GLTFLoader) fromDocument(doc *gltf.Document, name string) (*Mesh, error) {
	mesh := NewMesh(name)
	mesh.Materials = extractMaterials(doc)

	// Walk the scene graph accumulating node transforms so multi-node
	// documents flatten into one mesh in world space.
	if len(doc.Scenes) > 0 {
		sceneIdx := 0
		if doc.Scene != nil {
			sceneIdx = int(*doc.Scene)
		}
		for _, nodeIdx := range doc.Scenes[sceneIdx].Nodes {
			if err := l.processNode(doc, int(nodeIdx), math3d.Identity(), mesh); err != nil {
				return nil, err
			}
		}
	} else {
		for i := range doc.Nodes {
			if err := l.processNode(doc, i, math3d.Identity(), mesh); err != nil {
				return nil, err
			}
		}
	}

	hasNormals := false
	for _, v := range mesh.Vertices {
		if v.Normal.Len() > 0.001 {
			hasNormals = true
			break
		}
	}
	if l.CalculateNormals && !hasNormals {
		if l.SmoothNormals {
			mesh.CalculateSmoothNormals()
		} else {
			mesh.CalculateNormals()
		}
	}

	mesh.CalculateBounds()
	return mesh, nil
}

func (l *GLTFLoader) processNode(doc *gltf.Document, nodeIdx int, parent math3d.Mat4, mesh *Mesh) error {
	node := doc.Nodes[nodeIdx]

	local := math3d.Identity()
	if node.Translation != [3]float64{0, 0, 0} {
		local = local.Mul(math3d.Translate(math3d.V3(
			node.Translation[0], node.Translation[1], node.Translation[2])))
	}
	if node.Rotation != [4]float64{0, 0, 0, 1} {
		local = local.Mul(math3d.QuatToMat4(
			node.Rotation[0], node.Rotation[1], node.Rotation[2], node.Rotation[3]))
	}
	if node.Scale != [3]float64{1, 1, 1} && node.Scale != [3]float64{0, 0, 0} {
		local = local.Mul(math3d.Scale(math3d.V3(
			node.Scale[0], node.Scale[1], node.Scale[2])))
	}
	if node.Matrix != [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1} {
		local = math3d.Mat4FromSlice(node.Matrix[:])
	}

	world := parent.Mul(local)

	if node.Mesh != nil {
		if err := l.processMesh(doc, doc.Meshes[int(*node.Mesh)], mesh, world); err != nil {
			return err
		}
	}
	for _, childIdx := range node.Children {
		if err := l.processNode(doc, int(childIdx), world, mesh); err != nil {
			return err
		}
	}
	return nil
}

func (l *GLTFLoader) processMesh(doc *gltf.Document, m *gltf.Mesh, mesh *Mesh, transform math3d.Mat4) error {
	for _, prim := range m.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles && prim.Mode != 0 {
			continue
		}

		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		positions, err := modeler.ReadPosition(doc, doc.Accessors[int(posIdx)], nil)
		if err != nil {
			return fmt.Errorf("read positions: %w", err)
		}

		var normals [][3]float32
		if normIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
			normals, err = modeler.ReadNormal(doc, doc.Accessors[int(normIdx)], nil)
			if err != nil {
				return fmt.Errorf("read normals: %w", err)
			}
		}

		var uvs [][2]float32
		if uvIdx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
			uvs, err = modeler.ReadTextureCoord(doc, doc.Accessors[int(uvIdx)], nil)
			if err != nil {
				return fmt.Errorf("read uvs: %w", err)
			}
		}

		materialIdx := -1
		if prim.Material != nil {
			materialIdx = int(*prim.Material)
		}

		baseVertex := len(mesh.Vertices)
		for i := range positions {
			v := MeshVertex{
				Position: transform.MulVec3(math3d.V3(
					float64(positions[i][0]), float64(positions[i][1]), float64(positions[i][2]))),
			}
			if i < len(normals) {
				v.Normal = transform.MulVec3Dir(math3d.V3(
					float64(normals[i][0]), float64(normals[i][1]), float64(normals[i][2]))).Normalize()
			}
			if i < len(uvs) {
				// GLTF uses a top-left UV origin; flip V.
				v.UV = math3d.V2(float64(uvs[i][0]), 1.0-float64(uvs[i][1]))
			}
			mesh.Vertices = append(mesh.Vertices, v)
		}

		// GLTF front faces wind CCW; the engine expects CW, so the
		// second and third indices swap.
		if prim.Indices != nil {
			indices, err := modeler.ReadIndices(doc, doc.Accessors[int(*prim.Indices)], nil)
			if err != nil {
				return fmt.Errorf("read indices: %w", err)
			}
			for i := 0; i+2 < len(indices); i += 3 {
				mesh.Faces = append(mesh.Faces, Face{
					V: [3]int{
						baseVertex + int(indices[i]),
						baseVertex + int(indices[i+2]),
						baseVertex + int(indices[i+1]),
					},
					Material: materialIdx,
				})
			}
		} else {
			for i := 0; i+2 < len(positions); i += 3 {
				mesh.Faces = append(mesh.Faces, Face{
					V:        [3]int{baseVertex + i, baseVertex + i + 2, baseVertex + i + 1},
					Material: materialIdx,
				})
			}
		}
	}
	return nil
}

func extractMaterials(doc *gltf.Document) []Material {
	materials := make([]Material, len(doc.Materials))
	for i, mat := range doc.Materials {
		m := Material{
			Name:      mat.Name,
			BaseColor: [4]float64{1, 1, 1, 1},
		}
		if mat.PBRMetallicRoughness != nil && mat.PBRMetallicRoughness.BaseColorFactor != nil {
			f := mat.PBRMetallicRoughness.BaseColorFactor
			m.BaseColor = [4]float64{float64(f[0]), float64(f[1]), float64(f[2]), float64(f[3])}
		}
		materials[i] = m
	}
	return materials
}
