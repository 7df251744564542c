package recorder

import (
	"bufio"
	"fmt"
	"io"

	"github.com/golang/geo/r3"

	"github.com/mfkiwl/Kimera-VIO-ROS/publish"
	"github.com/mfkiwl/Kimera-VIO-ROS/spatialmath"
)

type vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func newVector3(v r3.Vector) vector3 {
	return vector3{X: v.X, Y: v.Y, Z: v.Z}
}

type quaternion struct {
	W float64 `json:"w"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type poseRecord struct {
	Position    vector3    `json:"position"`
	Orientation quaternion `json:"orientation"`
}

func newPoseRecord(p spatialmath.Pose) poseRecord {
	q := p.Orientation()
	return poseRecord{
		Position:    newVector3(p.Point()),
		Orientation: quaternion{W: q.Real, X: q.Imag, Y: q.Jmag, Z: q.Kmag},
	}
}

type headerRecord struct {
	Stamp   int64  `json:"stamp"`
	FrameID string `json:"frame_id"`
}

func newHeaderRecord(h publish.Header) headerRecord {
	return headerRecord{Stamp: h.Stamp, FrameID: h.FrameID}
}

type odometryRecord struct {
	Header          headerRecord `json:"header"`
	ChildFrameID    string       `json:"child_frame_id"`
	Pose            poseRecord   `json:"pose"`
	PoseCovariance  [36]float64  `json:"pose_covariance"`
	LinearVelocity  vector3      `json:"linear_velocity"`
	AngularVelocity vector3      `json:"angular_velocity"`
	TwistCovariance [36]float64  `json:"twist_covariance"`
}

func newOdometryRecord(msg *publish.Odometry) odometryRecord {
	return odometryRecord{
		Header:          newHeaderRecord(msg.Header),
		ChildFrameID:    msg.ChildFrameID,
		Pose:            newPoseRecord(msg.Pose),
		PoseCovariance:  msg.PoseCovariance,
		LinearVelocity:  newVector3(msg.Twist.Linear),
		AngularVelocity: newVector3(msg.Twist.Angular),
		TwistCovariance: msg.TwistCovariance,
	}
}

type transformRecord struct {
	Header       headerRecord `json:"header"`
	ChildFrameID string       `json:"child_frame_id"`
	Transform    poseRecord   `json:"transform"`
}

func newTransformRecord(msg *publish.StampedTransform) transformRecord {
	return transformRecord{
		Header:       newHeaderRecord(msg.Header),
		ChildFrameID: msg.ChildFrameID,
		Transform:    newPoseRecord(msg.Transform),
	}
}

type statsRecord struct {
	Header headerRecord `json:"header"`
	Labels []string     `json:"labels"`
	Values []float64    `json:"values"`
}

func newStatsRecord(msg *publish.StatsRecord) statsRecord {
	return statsRecord{Header: newHeaderRecord(msg.Header), Labels: msg.Labels, Values: msg.Values}
}

// WritePLY writes msg as an ASCII PLY mesh with per-vertex normals and texture coordinates.
func WritePLY(w io.Writer, msg *publish.MeshMessage) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "ply\nformat ascii 1.0\n")
	fmt.Fprintf(bw, "comment frame %s stamp %d\n", msg.FrameID, msg.Stamp)
	fmt.Fprintf(bw, "element vertex %d\n", len(msg.Vertices))
	fmt.Fprintf(bw, "property float x\nproperty float y\nproperty float z\n")
	fmt.Fprintf(bw, "property float nx\nproperty float ny\nproperty float nz\n")
	fmt.Fprintf(bw, "property float u\nproperty float v\n")
	fmt.Fprintf(bw, "element face %d\n", len(msg.Triangles))
	fmt.Fprintf(bw, "property list uchar int vertex_indices\nend_header\n")
	for _, v := range msg.Vertices {
		fmt.Fprintf(bw, "%f %f %f %f %f %f %f %f\n",
			v.Position.X, v.Position.Y, v.Position.Z,
			v.Normal.X, v.Normal.Y, v.Normal.Z,
			v.UV.X, v.UV.Y)
	}
	for _, tri := range msg.Triangles {
		fmt.Fprintf(bw, "3 %d %d %d\n", tri[0], tri[1], tri[2])
	}
	return bw.Flush()
}
