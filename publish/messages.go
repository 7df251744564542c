// Package publish derives every output artifact from a keyframe packet and hands
// them to a Transport.
package publish

import (
	"context"
	"image"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"

	"github.com/mfkiwl/Kimera-VIO-ROS/pointcloud"
	"github.com/mfkiwl/Kimera-VIO-ROS/spatialmath"
	"github.com/mfkiwl/Kimera-VIO-ROS/vio"
)

// Topics the publisher emits on.
const (
	TopicOdometry        = "odometry"
	TopicPointCloud      = "time_horizon_pointcloud"
	TopicPerFrameMesh    = "mesh"
	TopicTimeHorizonMesh = "time_horizon_mesh"
	TopicFrontendStats   = "frontend_stats"
	TopicResiliency      = "resiliency"
	TopicImuBias         = "imu_bias"
	TopicDebugImage      = "debug_mesh_img"
)

// Header tags every artifact with the estimation time and the frame it is expressed in.
type Header struct {
	// Stamp is the packet timestamp in nanoseconds, never wall-clock time.
	Stamp   int64
	FrameID string
}

// Twist is a body-frame velocity.
type Twist struct {
	Linear  r3.Vector
	Angular r3.Vector
}

// Odometry is the body pose in the world frame plus its body-frame twist.
// Both covariances are row-major 6x6 ordered (translation, rotation).
type Odometry struct {
	Header
	ChildFrameID    string
	Pose            spatialmath.Pose
	PoseCovariance  [36]float64
	Twist           Twist
	TwistCovariance [36]float64
}

// StampedTransform is a broadcast of the parent->child transform.
type StampedTransform struct {
	Header
	ChildFrameID string
	Transform    spatialmath.Pose
}

// PointCloud is a labeled colored cloud in the header's frame.
type PointCloud struct {
	Header
	Cloud *pointcloud.PointCloud
}

// PointNormalUV is a mesh vertex.
type PointNormalUV struct {
	Position r3.Vector
	Normal   r3.Vector
	UV       r2.Point
}

// MeshMessage is an indexed triangle mesh. LandmarkIDs[i] is the landmark
// Vertices[i] was built from.
type MeshMessage struct {
	Header
	Vertices    []PointNormalUV
	LandmarkIDs []vio.LandmarkID
	Triangles   [][3]uint32
}

// StatsRecord is a labeled array of scalars.
type StatsRecord struct {
	Header
	Labels []string
	Values []float64
}

// Value returns the value for label.
func (r *StatsRecord) Value(label string) (float64, bool) {
	for i, l := range r.Labels {
		if l == label {
			return r.Values[i], true
		}
	}
	return 0, false
}

// ImageMessage carries an image.
type ImageMessage struct {
	Header
	Image image.Image
}

// A Transport delivers artifacts to consumers. It offers one primitive per
// artifact kind. Implementations must be safe to call from the publishing goroutine.
type Transport interface {
	PublishOdometry(ctx context.Context, topic string, msg *Odometry) error
	BroadcastTransform(ctx context.Context, msg *StampedTransform) error
	PublishPointCloud(ctx context.Context, topic string, msg *PointCloud) error
	PublishMesh(ctx context.Context, topic string, msg *MeshMessage) error
	PublishStats(ctx context.Context, topic string, msg *StatsRecord) error
	PublishImage(ctx context.Context, topic string, msg *ImageMessage) error
}
