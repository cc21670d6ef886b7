package models

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/turntable3d/turntable/math3d"
)

// OBJLoader loads Wavefront OBJ geometry.
type OBJLoader struct {
	CalculateNormals bool // Calculate normals if the file has none
	SmoothNormals    bool // Average normals per vertex instead of flat shading
}

// NewOBJLoader creates an OBJ loader with default settings.
func NewOBJLoader() *OBJLoader {
	return &OBJLoader{CalculateNormals: true}
}

// LoadFile loads an OBJ file from disk.
func (l *OBJLoader) LoadFile(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open OBJ file: %w", err)
	}
	defer f.Close()
	return l.Load(f, path)
}

// Load parses an OBJ from a reader.
func (l *OBJLoader) Load(r io.Reader, name string) (*Mesh, error) {
	mesh := NewMesh(name)

	// OBJ indexes positions/uvs/normals independently; vertices are
	// deduplicated on the full index triple.
	var positions []math3d.Vec3
	var normals []math3d.Vec3
	var uvs []math3d.Vec2

	type vertexKey struct {
		pos, uv, normal int
	}
	vertexMap := make(map[vertexKey]int)

	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 || line[0] == '#' {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "v":
			v, err := parseVec3(fields)
			if err != nil {
				return nil, fmt.Errorf("line %d: vertex: %w", lineNum, err)
			}
			positions = append(positions, v)

		case "vt":
			if len(fields) < 3 {
				return nil, fmt.Errorf("line %d: texture coord needs u v", lineNum)
			}
			u, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid u: %w", lineNum, err)
			}
			v, err := strconv.ParseFloat(fields[2], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid v: %w", lineNum, err)
			}
			uvs = append(uvs, math3d.V2(u, v))

		case "vn":
			n, err := parseVec3(fields)
			if err != nil {
				return nil, fmt.Errorf("line %d: normal: %w", lineNum, err)
			}
			normals = append(normals, n.Normalize())

		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: face needs at least 3 vertices", lineNum)
			}

			var faceVerts []int
			for i := 1; i < len(fields); i++ {
				posIdx, uvIdx, normalIdx, err := parseFaceVertex(fields[i])
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNum, err)
				}

				posIdx = resolveIndex(posIdx, len(positions))
				uvIdx = resolveIndex(uvIdx, len(uvs))
				normalIdx = resolveIndex(normalIdx, len(normals))

				if posIdx < 0 || posIdx >= len(positions) {
					return nil, fmt.Errorf("line %d: position index %d out of range", lineNum, posIdx+1)
				}

				key := vertexKey{posIdx, uvIdx, normalIdx}
				vertIdx, exists := vertexMap[key]
				if !exists {
					vert := MeshVertex{Position: positions[posIdx]}
					if uvIdx >= 0 && uvIdx < len(uvs) {
						vert.UV = uvs[uvIdx]
					}
					if normalIdx >= 0 && normalIdx < len(normals) {
						vert.Normal = normals[normalIdx]
					}
					vertIdx = len(mesh.Vertices)
					mesh.Vertices = append(mesh.Vertices, vert)
					vertexMap[key] = vertIdx
				}
				faceVerts = append(faceVerts, vertIdx)
			}

			// Fan triangulation with reversed winding (CCW source,
			// CW engine convention from the screen-space Y flip).
			for i := 1; i < len(faceVerts)-1; i++ {
				mesh.Faces = append(mesh.Faces, Face{
					V:        [3]int{faceVerts[0], faceVerts[i+1], faceVerts[i]},
					Material: -1,
				})
			}

		case "o", "g":
			if len(fields) > 1 {
				mesh.Name = fields[1]
			}

		case "mtllib", "usemtl", "s":
			// Material and smoothing directives are ignored.

		default:
			// Ignore unknown directives.
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read OBJ: %w", err)
	}

	mesh.CalculateBounds()

	if l.CalculateNormals && len(normals) == 0 {
		if l.SmoothNormals {
			mesh.CalculateSmoothNormals()
		} else {
			mesh.CalculateNormals()
		}
	}

	return mesh, nil
}

func parseVec3(fields []string) (math3d.Vec3, error) {
	if len(fields) < 4 {
		return math3d.Zero3(), fmt.Errorf("need x y z")
	}
	x, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return math3d.Zero3(), fmt.Errorf("invalid x: %w", err)
	}
	y, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return math3d.Zero3(), fmt.Errorf("invalid y: %w", err)
	}
	z, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		return math3d.Zero3(), fmt.Errorf("invalid z: %w", err)
	}
	return math3d.V3(x, y, z), nil
}

// parseFaceVertex parses a face vertex in format v, v/vt, v/vt/vn, or v//vn.
// Returns 1-indexed values (0 means not specified).
func parseFaceVertex(s string) (pos, uv, normal int, err error) {
	parts := strings.Split(s, "/")

	pos, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid vertex index: %s", parts[0])
	}
	if len(parts) > 1 && parts[1] != "" {
		uv, err = strconv.Atoi(parts[1])
		if err != nil {
			return 0, 0, 0, fmt.Errorf("invalid texture index: %s", parts[1])
		}
	}
	if len(parts) > 2 && parts[2] != "" {
		normal, err = strconv.Atoi(parts[2])
		if err != nil {
			return 0, 0, 0, fmt.Errorf("invalid normal index: %s", parts[2])
		}
	}
	return pos, uv, normal, nil
}

// resolveIndex converts an OBJ 1-indexed (or negative) index to 0-indexed.
// Returns -1 if the index was 0 (not specified).
func resolveIndex(idx, count int) int {
	if idx == 0 {
		return -1
	}
	if idx < 0 {
		return count + idx
	}
	return idx - 1
}

// LoadOBJ loads an OBJ file with default settings.
func LoadOBJ(path string) (*Mesh, error) {
	return NewOBJLoader().LoadFile(path)
}

// ParseOBJ parses OBJ data from memory.
func ParseOBJ(data []byte, name string) (*Mesh, error) {
	return NewOBJLoader().Load(strings.NewReader(string(data)), name)
}
