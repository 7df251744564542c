package publish

import (
	"slices"
	"time"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/samber/lo"

	"github.com/mfkiwl/Kimera-VIO-ROS/vio"
)

type landmark struct {
	position r3.Vector
	typ      vio.LandmarkType
	// uv is the last observed pixel, normalized by image size.
	uv       r2.Point
	lastSeen int64
}

// landmarkStore accumulates the time horizon: every landmark seen so far at its
// most recent position, plus the mesh faces between them. With maxAge set,
// landmarks not seen within maxAge of the newest packet are forgotten along with
// their faces.
type landmarkStore struct {
	maxAge    time.Duration
	landmarks map[vio.LandmarkID]*landmark
	// faces is keyed by the sorted id triple so a face seen twice is stored once.
	faces map[[3]vio.LandmarkID][3]vio.LandmarkID
	stamp int64
}

func newLandmarkStore(maxAge time.Duration) *landmarkStore {
	return &landmarkStore{
		maxAge:    maxAge,
		landmarks: map[vio.LandmarkID]*landmark{},
		faces:     map[[3]vio.LandmarkID][3]vio.LandmarkID{},
	}
}

func (s *landmarkStore) merge(packet *vio.KeyframeOutputPacket) {
	s.stamp = packet.Timestamp
	for id, pos := range packet.PointsWithID {
		lmk, ok := s.landmarks[id]
		if !ok {
			lmk = &landmark{}
			s.landmarks[id] = lmk
		}
		lmk.position = pos
		lmk.typ = packet.LandmarkType(id)
		lmk.lastSeen = packet.Timestamp
		if uv, ok := meshUV(packet.Mesh, id); ok {
			lmk.uv = uv
		}
	}
	if packet.Mesh != nil {
		for _, tri := range packet.Mesh.Triangles {
			if _, ok := packet.PointsWithID[tri[0]]; !ok {
				continue
			}
			if _, ok := packet.PointsWithID[tri[1]]; !ok {
				continue
			}
			if _, ok := packet.PointsWithID[tri[2]]; !ok {
				continue
			}
			s.faces[faceKey(tri)] = tri
		}
	}
	s.age()
}

func (s *landmarkStore) age() {
	if s.maxAge <= 0 {
		return
	}
	oldest := s.stamp - s.maxAge.Nanoseconds()
	for id, lmk := range s.landmarks {
		if lmk.lastSeen < oldest {
			delete(s.landmarks, id)
		}
	}
	for key, tri := range s.faces {
		for _, id := range tri {
			if _, ok := s.landmarks[id]; !ok {
				delete(s.faces, key)
				break
			}
		}
	}
}

// ids returns the landmark ids in ascending order.
func (s *landmarkStore) ids() []vio.LandmarkID {
	ids := lo.Keys(s.landmarks)
	slices.Sort(ids)
	return ids
}

// triangles returns the stored faces in a deterministic order.
func (s *landmarkStore) triangles() [][3]vio.LandmarkID {
	keys := lo.Keys(s.faces)
	slices.SortFunc(keys, compareFaces)
	return lo.Map(keys, func(key [3]vio.LandmarkID, _ int) [3]vio.LandmarkID {
		return s.faces[key]
	})
}

func (s *landmarkStore) size() int {
	return len(s.landmarks)
}

func faceKey(tri [3]vio.LandmarkID) [3]vio.LandmarkID {
	key := tri
	slices.Sort(key[:])
	return key
}

func compareFaces(a, b [3]vio.LandmarkID) int {
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

func meshUV(mesh *vio.Mesh, id vio.LandmarkID) (r2.Point, bool) {
	if mesh == nil || mesh.ImageWidth <= 0 || mesh.ImageHeight <= 0 {
		return r2.Point{}, false
	}
	px, ok := mesh.PixelCoords[id]
	if !ok {
		return r2.Point{}, false
	}
	return r2.Point{X: px.X / float64(mesh.ImageWidth), Y: px.Y / float64(mesh.ImageHeight)}, true
}
