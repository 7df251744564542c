// Package vio defines the values exchanged with the visual-inertial odometry
// pipeline: the synchronized sensor inputs it consumes and the keyframe output
// packets it emits once per estimation cycle.
package vio

import (
	"image"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"github.com/mfkiwl/Kimera-VIO-ROS/spatialmath"
)

// LandmarkID identifies a tracked landmark across estimation cycles.
type LandmarkID int64

// LandmarkType tags how the backend models a landmark.
type LandmarkType int

// Known landmark types. A landmark without a tag is Unknown.
const (
	LandmarkTypeUnknown LandmarkType = iota
	LandmarkTypeSmart
	LandmarkTypeProjection
	LandmarkTypePlane
)

func (t LandmarkType) String() string {
	switch t {
	case LandmarkTypeSmart:
		return "smart"
	case LandmarkTypeProjection:
		return "projection"
	case LandmarkTypePlane:
		return "plane"
	default:
		return "unknown"
	}
}

// PointsWithIDMap maps a landmark to its position in the estimation world frame.
// Iteration order carries no meaning.
type PointsWithIDMap map[LandmarkID]r3.Vector

// LmkIDToLmkTypeMap maps a landmark to its type tag.
type LmkIDToLmkTypeMap map[LandmarkID]LandmarkType

// ImuBias is the estimated accelerometer and gyroscope bias.
type ImuBias struct {
	Accelerometer r3.Vector
	Gyroscope     r3.Vector
}

// Mesh is the 2-D Delaunay mesh of the current keyframe lifted onto landmarks.
// Each triangle names three landmarks; PixelCoords holds where each landmark was
// observed in the left image.
type Mesh struct {
	Triangles   [][3]LandmarkID
	PixelCoords map[LandmarkID]r2.Point
	ImageWidth  int
	ImageHeight int
}

// DebugTrackerInfo holds frontend tracking statistics for one keyframe.
type DebugTrackerInfo struct {
	NrDetectedFeatures int
	NrTrackerFeatures  int
	NrMonoInliers      int
	NrMonoPutatives    int
	NrStereoInliers    int
	NrStereoPutatives  int
	MonoRansacIters    int
	StereoRansacIters  int

	NrValidRKP       int
	NrNoLeftRectRKP  int
	NrNoRightRectRKP int
	NrNoDepthRKP     int
	NrFailedArunRKP  int

	// Seconds.
	FeatureDetectionTime float64
	FeatureSelectionTime float64
	FeatureTrackingTime  float64
	MonoRansacTime       float64
	StereoRansacTime     float64
}

// KeyframeOutputPacket is one estimation cycle's result. The pipeline creates it
// and hands it off through the output callback; nobody mutates it after that.
type KeyframeOutputPacket struct {
	// Timestamp of the keyframe in nanoseconds.
	Timestamp int64
	// WorldPoseBody is the body pose in the estimation world frame.
	WorldPoseBody spatialmath.Pose
	// Velocity of the body expressed in the estimation world frame.
	Velocity r3.Vector
	ImuBias  ImuBias

	// PoseCovariance is 6x6 ordered (rotation, translation). Optional.
	PoseCovariance *mat.SymDense
	// VelocityCovariance is 3x3. Optional.
	VelocityCovariance *mat.SymDense

	PointsWithID   PointsWithIDMap
	LmkIDToLmkType LmkIDToLmkTypeMap

	// Mesh is nil when the pipeline does not build meshes.
	Mesh        *Mesh
	TrackerInfo DebugTrackerInfo

	// DebugImage is an optional annotated frontend image.
	DebugImage image.Image
}

// LandmarkType returns the tag for id, or LandmarkTypeUnknown when untagged.
func (p *KeyframeOutputPacket) LandmarkType(id LandmarkID) LandmarkType {
	if t, ok := p.LmkIDToLmkType[id]; ok {
		return t
	}
	return LandmarkTypeUnknown
}
