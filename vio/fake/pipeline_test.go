package fake

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/mfkiwl/Kimera-VIO-ROS/vio"
)

func TestPipelineEmitsOverlappingPackets(t *testing.T) {
	p := NewPipeline()
	var got []*vio.KeyframeOutputPacket
	p.RegisterOutputCallback(func(packet *vio.KeyframeOutputPacket) {
		got = append(got, packet)
	})

	p.FillImu(vio.ImuMeasurement{Timestamp: 5, AngularVelocity: r3.Vector{Z: 0.2}})
	p.FillStereoFrame(&vio.StereoFrame{ID: 0, Timestamp: 10})
	p.FillStereoFrame(&vio.StereoFrame{ID: 1, Timestamp: 20})

	test.That(t, len(got), test.ShouldEqual, 2)
	test.That(t, p.Frames(), test.ShouldEqual, int64(2))
	test.That(t, p.ImuCount(), test.ShouldEqual, 1)
	test.That(t, got[1].Timestamp, test.ShouldEqual, int64(20))
	test.That(t, len(got[1].PointsWithID), test.ShouldEqual, LandmarksPerFrame)
	_, ok := got[1].PointsWithID[0]
	test.That(t, ok, test.ShouldBeFalse)
	_, ok = got[1].PointsWithID[4]
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, got[0].ImuBias.Gyroscope, test.ShouldResemble, r3.Vector{Z: 0.2})
	test.That(t, got[1].WorldPoseBody.Point().X, test.ShouldAlmostEqual, StepMeters)
	test.That(t, got[0].LandmarkType(2), test.ShouldEqual, vio.LandmarkTypeUnknown)

	test.That(t, p.Close(), test.ShouldBeNil)
	p.FillStereoFrame(&vio.StereoFrame{ID: 2, Timestamp: 30})
	test.That(t, len(got), test.ShouldEqual, 2)
}
