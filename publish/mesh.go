package publish

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"

	"github.com/mfkiwl/Kimera-VIO-ROS/spatialmath"
	"github.com/mfkiwl/Kimera-VIO-ROS/vio"
)

type vertexInput struct {
	id       vio.LandmarkID
	position r3.Vector
	uv       r2.Point
}

// buildMesh makes one vertex per input, in input order. A vertex normal is the
// area-weighted mean of the normals of the faces touching it, or zero when no
// face does. Faces naming a landmark that has no vertex are dropped and counted.
func buildMesh(header Header, inputs []vertexInput, faces [][3]vio.LandmarkID) (*MeshMessage, int) {
	msg := &MeshMessage{
		Header:      header,
		Vertices:    make([]PointNormalUV, len(inputs)),
		LandmarkIDs: make([]vio.LandmarkID, len(inputs)),
	}
	index := make(map[vio.LandmarkID]uint32, len(inputs))
	for i, in := range inputs {
		index[in.id] = uint32(i)
		msg.LandmarkIDs[i] = in.id
		msg.Vertices[i] = PointNormalUV{Position: in.position, UV: in.uv}
	}

	normals := make([]r3.Vector, len(inputs))
	dropped := 0
	for _, face := range faces {
		var tri [3]uint32
		ok := true
		for k, id := range face {
			idx, found := index[id]
			if !found {
				ok = false
				break
			}
			tri[k] = idx
		}
		if !ok {
			dropped++
			continue
		}
		msg.Triangles = append(msg.Triangles, tri)

		t := spatialmath.NewTriangle(
			msg.Vertices[tri[0]].Position,
			msg.Vertices[tri[1]].Position,
			msg.Vertices[tri[2]].Position,
		)
		if t.Degenerate() {
			continue
		}
		weighted := t.Normal().Mul(t.Area())
		for _, idx := range tri {
			normals[idx] = normals[idx].Add(weighted)
		}
	}
	for i, n := range normals {
		if n.Norm() > 0 {
			msg.Vertices[i].Normal = n.Normalize()
		}
	}
	return msg, dropped
}

func perFrameVertices(packet *vio.KeyframeOutputPacket) []vertexInput {
	ids := sortedPacketIDs(packet)
	inputs := make([]vertexInput, 0, len(ids))
	for _, id := range ids {
		uv, _ := meshUV(packet.Mesh, id)
		inputs = append(inputs, vertexInput{id: id, position: packet.PointsWithID[id], uv: uv})
	}
	return inputs
}

func (s *landmarkStore) vertices() []vertexInput {
	ids := s.ids()
	inputs := make([]vertexInput, 0, len(ids))
	for _, id := range ids {
		lmk := s.landmarks[id]
		inputs = append(inputs, vertexInput{id: id, position: lmk.position, uv: lmk.uv})
	}
	return inputs
}
