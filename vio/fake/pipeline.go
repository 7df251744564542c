// Package fake is a fake estimation pipeline for testing and dry runs. It emits
// one deterministic keyframe packet per stereo frame.
package fake

import (
	"sync"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"github.com/mfkiwl/Kimera-VIO-ROS/spatialmath"
	"github.com/mfkiwl/Kimera-VIO-ROS/vio"
)

const (
	// LandmarksPerFrame is how many landmarks each packet observes.
	LandmarksPerFrame = 4
	// StepMeters is how far the body moves along x per frame.
	StepMeters = 0.1

	defaultWidth  = 752
	defaultHeight = 480
)

// Pipeline is a fake vio.Pipeline. Frame k observes landmarks k..k+3, so
// consecutive packets overlap by three landmarks and each introduces one new one.
type Pipeline struct {
	mu        sync.Mutex
	callbacks []vio.OutputCallback
	frames    int64
	imuCount  int
	depth     int
	lastImu   vio.ImuMeasurement
	closed    bool
}

// NewPipeline returns a fake pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{}
}

// RegisterOutputCallback adds a receiver for emitted packets.
func (p *Pipeline) RegisterOutputCallback(cb vio.OutputCallback) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.callbacks = append(p.callbacks, cb)
}

// FillImu records the sample; its gyroscope reading becomes the next bias.
func (p *Pipeline) FillImu(measurement vio.ImuMeasurement) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.imuCount++
	p.lastImu = measurement
}

// FillDepthFrame counts the frame.
func (p *Pipeline) FillDepthFrame(frame *vio.DepthFrame) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.depth++
}

// FillStereoFrame emits one packet to every registered callback.
func (p *Pipeline) FillStereoFrame(frame *vio.StereoFrame) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	k := p.frames
	p.frames++
	packet := p.makePacket(k, frame)
	callbacks := append([]vio.OutputCallback(nil), p.callbacks...)
	p.mu.Unlock()

	for _, cb := range callbacks {
		cb(packet)
	}
}

// Frames returns how many packets have been emitted.
func (p *Pipeline) Frames() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frames
}

// ImuCount returns how many IMU samples were received.
func (p *Pipeline) ImuCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.imuCount
}

// DepthCount returns how many depth frames were received.
func (p *Pipeline) DepthCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.depth
}

// Close stops emitting packets.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *Pipeline) makePacket(k int64, frame *vio.StereoFrame) *vio.KeyframeOutputPacket {
	width, height := defaultWidth, defaultHeight
	if frame.Left != nil {
		width, height = frame.Left.Width(), frame.Left.Height()
	}

	points := vio.PointsWithIDMap{}
	types := vio.LmkIDToLmkTypeMap{}
	pixels := map[vio.LandmarkID]r2.Point{}
	for i := int64(0); i < LandmarksPerFrame; i++ {
		id := vio.LandmarkID(k + i)
		points[id] = r3.Vector{X: float64(id) * 0.5, Y: float64(id % 2), Z: 2 + 0.01*float64(k)}
		switch id % 3 {
		case 0:
			types[id] = vio.LandmarkTypeSmart
		case 1:
			types[id] = vio.LandmarkTypeProjection
		}
		pixels[id] = r2.Point{
			X: float64((int64(id) * 40) % int64(width)),
			Y: float64(height/2 + 20*int(id%2)),
		}
	}

	base := vio.LandmarkID(k)
	mesh := &vio.Mesh{
		Triangles: [][3]vio.LandmarkID{
			{base, base + 1, base + 2},
			{base + 1, base + 2, base + 3},
		},
		PixelCoords: pixels,
		ImageWidth:  width,
		ImageHeight: height,
	}

	poseCov := mat.NewSymDense(6, nil)
	for i := 0; i < 6; i++ {
		poseCov.SetSym(i, i, 0.01)
	}
	velCov := mat.NewSymDense(3, nil)
	for i := 0; i < 3; i++ {
		velCov.SetSym(i, i, 0.001)
	}

	packet := &vio.KeyframeOutputPacket{
		Timestamp:          frame.Timestamp,
		WorldPoseBody:      spatialmath.NewPoseFromPoint(r3.Vector{X: StepMeters * float64(k)}),
		Velocity:           r3.Vector{X: StepMeters},
		ImuBias:            vio.ImuBias{Gyroscope: p.lastImu.AngularVelocity},
		PoseCovariance:     poseCov,
		VelocityCovariance: velCov,
		PointsWithID:       points,
		LmkIDToLmkType:     types,
		Mesh:               mesh,
		TrackerInfo: vio.DebugTrackerInfo{
			NrDetectedFeatures: 100,
			NrTrackerFeatures:  LandmarksPerFrame,
			NrMonoInliers:      LandmarksPerFrame,
			NrMonoPutatives:    LandmarksPerFrame + 1,
			NrStereoInliers:    LandmarksPerFrame,
			NrStereoPutatives:  LandmarksPerFrame + 1,
			NrValidRKP:         LandmarksPerFrame,
		},
	}
	if frame.Left != nil {
		packet.DebugImage = frame.Left.StdImage()
	}
	return packet
}
