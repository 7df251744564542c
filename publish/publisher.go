package publish

import (
	"context"
	"image/color"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"github.com/mfkiwl/Kimera-VIO-ROS/logging"
	"github.com/mfkiwl/Kimera-VIO-ROS/pointcloud"
	"github.com/mfkiwl/Kimera-VIO-ROS/vio"
)

// Config controls how artifacts are labeled and derived.
type Config struct {
	WorldFrameID    string
	BaseLinkFrameID string
	// LeftCameraFrameID tags the debug image.
	LeftCameraFrameID string
	// LandmarkMaxAge forgets time-horizon landmarks not observed for this long,
	// measured in packet time. Zero keeps every landmark.
	LandmarkMaxAge time.Duration
	// DebugImageScale in (0, 1] shrinks the debug image before publishing.
	DebugImageScale float64
	Resiliency      ResiliencyThresholds
}

var (
	smartColor      = colorful.Color{R: 0, G: 1, B: 0}
	projectionColor = colorful.Color{R: 0, G: 0, B: 1}
	otherColor      = colorful.Color{R: 1, G: 0, B: 0}
)

func landmarkColor(t vio.LandmarkType) color.NRGBA {
	c := otherColor
	switch t {
	case vio.LandmarkTypeSmart:
		c = smartColor
	case vio.LandmarkTypeProjection:
		c = projectionColor
	case vio.LandmarkTypePlane, vio.LandmarkTypeUnknown:
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

// PacketSource is where Run takes packets from.
type PacketSource interface {
	PopBlocking(timeout time.Duration) (*vio.KeyframeOutputPacket, bool)
	IsShutdown() bool
}

// Publisher turns keyframe packets into artifacts. It keeps the time horizon of
// landmarks between packets; everything else is derived from the packet alone.
type Publisher struct {
	cfg       Config
	transport Transport
	logger    logging.Logger

	mu    sync.Mutex
	store *landmarkStore

	published atomic.Uint64
	skipped   atomic.Uint64
}

// NewPublisher returns a publisher emitting through transport.
func NewPublisher(cfg Config, transport Transport, logger logging.Logger) (*Publisher, error) {
	if cfg.WorldFrameID == "" || cfg.BaseLinkFrameID == "" {
		return nil, errors.New("publisher needs both a world and a base link frame id")
	}
	if cfg.WorldFrameID == cfg.BaseLinkFrameID {
		return nil, errors.Errorf("world and base link frame ids are both %q", cfg.WorldFrameID)
	}
	if cfg.DebugImageScale == 0 {
		cfg.DebugImageScale = 1
	}
	if cfg.DebugImageScale < 0 || cfg.DebugImageScale > 1 {
		return nil, errors.Errorf("debug image scale must be in (0, 1], got %f", cfg.DebugImageScale)
	}
	if cfg.LandmarkMaxAge < 0 {
		return nil, errors.Errorf("landmark max age cannot be negative, got %s", cfg.LandmarkMaxAge)
	}
	return &Publisher{
		cfg:       cfg,
		transport: transport,
		logger:    logger,
		store:     newLandmarkStore(cfg.LandmarkMaxAge),
	}, nil
}

// PublishOutput emits every artifact derivable from packet. A failure affects
// only its own artifact: it is logged, counted and the rest are still published.
// The returned error combines the per-artifact failures.
func (p *Publisher) PublishOutput(ctx context.Context, packet *vio.KeyframeOutputPacket) error {
	if packet == nil {
		p.skipped.Inc()
		return newPartialPacketError("packet", "packet is nil")
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	header := Header{Stamp: packet.Timestamp, FrameID: p.cfg.WorldFrameID}
	var errs error
	emit := func(artifact string, err error) {
		if err == nil {
			return
		}
		p.skipped.Inc()
		if IsPartialPacket(err) {
			p.logger.Warnw("skipping artifact", "artifact", artifact, "stamp", packet.Timestamp, "error", err)
		} else {
			p.logger.Errorw("failed to publish artifact", "artifact", artifact, "stamp", packet.Timestamp, "error", err)
		}
		errs = multierr.Append(errs, err)
	}

	if odom, err := p.odometry(packet); err != nil {
		emit("odometry", err)
	} else {
		emit("odometry", wrapTransport(TopicOdometry, p.transport.PublishOdometry(ctx, TopicOdometry, odom)))
	}
	if tf, err := p.transform(packet); err != nil {
		emit("transform", err)
	} else {
		emit("transform", wrapTransport("tf", p.transport.BroadcastTransform(ctx, tf)))
	}

	p.store.merge(packet)
	emit("pointcloud", p.publishCloud(ctx, header))
	emit("mesh", p.publishPerFrameMesh(ctx, header, packet))
	emit("time_horizon_mesh", p.publishTimeHorizonMesh(ctx, header))

	emit("imu_bias", wrapTransport(TopicImuBias,
		p.transport.PublishStats(ctx, TopicImuBias, imuBias(header, packet.ImuBias))))
	emit("frontend_stats", wrapTransport(TopicFrontendStats,
		p.transport.PublishStats(ctx, TopicFrontendStats, frontendStats(header, packet.TrackerInfo))))
	if rec, err := resiliency(header, packet, p.cfg.Resiliency); err != nil {
		emit("resiliency", err)
	} else {
		emit("resiliency", wrapTransport(TopicResiliency, p.transport.PublishStats(ctx, TopicResiliency, rec)))
	}

	if packet.DebugImage != nil {
		emit("debug_image", p.publishDebugImage(ctx, header, packet))
	}

	p.published.Inc()
	return errs
}

// RepublishTimeHorizon emits the accumulated point cloud and mesh again without
// taking in a new packet. Repeated calls emit identical artifacts.
func (p *Publisher) RepublishTimeHorizon(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	header := Header{Stamp: p.store.stamp, FrameID: p.cfg.WorldFrameID}
	return multierr.Combine(
		p.publishCloud(ctx, header),
		p.publishTimeHorizonMesh(ctx, header),
	)
}

// TimeHorizonSize returns how many landmarks the time horizon holds.
func (p *Publisher) TimeHorizonSize() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.store.size()
}

// Published returns how many packets were processed.
func (p *Publisher) Published() uint64 {
	return p.published.Load()
}

// Skipped returns how many artifacts were not published.
func (p *Publisher) Skipped() uint64 {
	return p.skipped.Load()
}

// Run publishes packets from src until it is shut down or ctx is done. A packet
// already popped is published to completion even if ctx is cancelled meanwhile.
func (p *Publisher) Run(ctx context.Context, src PacketSource, popTimeout time.Duration) {
	for {
		if ctx.Err() != nil || src.IsShutdown() {
			p.logger.Debugw("publisher stopping", "published", p.Published(), "skipped", p.Skipped())
			return
		}
		packet, ok := src.PopBlocking(popTimeout)
		if !ok {
			continue
		}
		// failures were already logged per artifact.
		goutils.UncheckedError(p.PublishOutput(context.WithoutCancel(ctx), packet))
	}
}

func (p *Publisher) publishCloud(ctx context.Context, header Header) error {
	if p.store.size() == 0 {
		return newPartialPacketError("pointcloud", "no landmarks observed yet")
	}
	cloud := pointcloud.NewWithPrealloc(p.store.size())
	for id, lmk := range p.store.landmarks {
		cloud.Set(int64(id), lmk.position, landmarkColor(lmk.typ))
	}
	return wrapTransport(TopicPointCloud,
		p.transport.PublishPointCloud(ctx, TopicPointCloud, &PointCloud{Header: header, Cloud: cloud}))
}

func (p *Publisher) publishPerFrameMesh(ctx context.Context, header Header, packet *vio.KeyframeOutputPacket) error {
	if len(packet.PointsWithID) == 0 {
		return newPartialPacketError("mesh", "packet has no landmarks")
	}
	var faces [][3]vio.LandmarkID
	if packet.Mesh != nil {
		faces = packet.Mesh.Triangles
	}
	msg, dropped := buildMesh(header, perFrameVertices(packet), faces)
	if dropped > 0 {
		p.logger.Debugw("dropped mesh faces referencing unknown landmarks", "count", dropped, "stamp", header.Stamp)
	}
	return wrapTransport(TopicPerFrameMesh, p.transport.PublishMesh(ctx, TopicPerFrameMesh, msg))
}

func (p *Publisher) publishTimeHorizonMesh(ctx context.Context, header Header) error {
	if p.store.size() == 0 {
		return newPartialPacketError("time_horizon_mesh", "no landmarks observed yet")
	}
	msg, _ := buildMesh(header, p.store.vertices(), p.store.triangles())
	return wrapTransport(TopicTimeHorizonMesh, p.transport.PublishMesh(ctx, TopicTimeHorizonMesh, msg))
}

func (p *Publisher) publishDebugImage(ctx context.Context, header Header, packet *vio.KeyframeOutputPacket) error {
	img := packet.DebugImage
	bounds := img.Bounds()
	if bounds.Empty() {
		return newPartialPacketError("debug_image", "image is empty")
	}
	if p.cfg.DebugImageScale < 1 {
		width := int(math.Max(1, math.Round(float64(bounds.Dx())*p.cfg.DebugImageScale)))
		img = imaging.Resize(img, width, 0, imaging.Linear)
	}
	msg := &ImageMessage{
		Header: Header{Stamp: header.Stamp, FrameID: p.cfg.LeftCameraFrameID},
		Image:  img,
	}
	return wrapTransport(TopicDebugImage, p.transport.PublishImage(ctx, TopicDebugImage, msg))
}

func wrapTransport(topic string, err error) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(err, "publishing on %q", topic)
}

func sortedPacketIDs(packet *vio.KeyframeOutputPacket) []vio.LandmarkID {
	ids := lo.Keys(packet.PointsWithID)
	slices.Sort(ids)
	return ids
}
