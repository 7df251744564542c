// Package recorder is a publish.Transport that writes every artifact to disk
// under one directory per session.
package recorder

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/draw"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/lmittmann/ppm"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mfkiwl/Kimera-VIO-ROS/logging"
	"github.com/mfkiwl/Kimera-VIO-ROS/pointcloud"
	"github.com/mfkiwl/Kimera-VIO-ROS/publish"
)

const (
	// maxRecordFileMB rotates a JSON lines file once it reaches this size.
	maxRecordFileMB = 256

	cloudDir = "pointclouds"
	meshDir  = "meshes"
	imageDir = "images"

	finalCloudFile = "time_horizon_final.las"
)

// Recorder writes artifacts as files:
//
//	odometry.jsonl, tf.jsonl, <stats topic>.jsonl   one JSON object per line
//	pointclouds/<topic>_<stamp>.pcd                 binary PCD
//	meshes/<topic>_<stamp>.ply                      ASCII PLY
//	images/<topic>_<stamp>.ppm                      binary PPM
//
// On Close the last point cloud is also written as LAS.
type Recorder struct {
	dir    string
	logger logging.Logger

	mu        sync.Mutex
	streams   map[string]*lumberjack.Logger
	lastCloud *pointcloud.PointCloud
	counts    map[string]int
	closed    bool
}

// NewRecorder creates a new session directory under root.
func NewRecorder(root string, logger logging.Logger) (*Recorder, error) {
	dir := filepath.Join(root, uuid.NewString())
	for _, sub := range []string{cloudDir, meshDir, imageDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o750); err != nil {
			return nil, errors.Wrapf(err, "creating session directory %q", dir)
		}
	}
	logger.Infow("recording session", "dir", dir)
	return &Recorder{
		dir:     dir,
		logger:  logger,
		streams: map[string]*lumberjack.Logger{},
		counts:  map[string]int{},
	}, nil
}

// Dir returns the session directory.
func (r *Recorder) Dir() string {
	return r.dir
}

// Counts returns how many artifacts were written per topic.
func (r *Recorder) Counts() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int, len(r.counts))
	for k, v := range r.counts {
		out[k] = v
	}
	return out
}

// PublishOdometry appends msg to odometry.jsonl.
func (r *Recorder) PublishOdometry(ctx context.Context, topic string, msg *publish.Odometry) error {
	return r.appendRecord(topic, newOdometryRecord(msg))
}

// BroadcastTransform appends msg to tf.jsonl.
func (r *Recorder) BroadcastTransform(ctx context.Context, msg *publish.StampedTransform) error {
	return r.appendRecord("tf", newTransformRecord(msg))
}

// PublishStats appends msg to <topic>.jsonl.
func (r *Recorder) PublishStats(ctx context.Context, topic string, msg *publish.StatsRecord) error {
	return r.appendRecord(topic, newStatsRecord(msg))
}

// PublishPointCloud writes msg as a binary PCD file.
func (r *Recorder) PublishPointCloud(ctx context.Context, topic string, msg *publish.PointCloud) error {
	if err := r.writeFile(cloudDir, topic, msg.Stamp, "pcd", func(f *os.File) error {
		return pointcloud.ToPCD(msg.Cloud, f, pointcloud.PCDBinary)
	}); err != nil {
		return err
	}
	r.mu.Lock()
	r.lastCloud = msg.Cloud
	r.mu.Unlock()
	return nil
}

// PublishMesh writes msg as an ASCII PLY file.
func (r *Recorder) PublishMesh(ctx context.Context, topic string, msg *publish.MeshMessage) error {
	return r.writeFile(meshDir, topic, msg.Stamp, "ply", func(f *os.File) error {
		return WritePLY(f, msg)
	})
}

// PublishImage writes msg as a PPM file.
func (r *Recorder) PublishImage(ctx context.Context, topic string, msg *publish.ImageMessage) error {
	return r.writeFile(imageDir, topic, msg.Stamp, "ppm", func(f *os.File) error {
		return ppm.Encode(f, toRGBA(msg.Image))
	})
}

// toRGBA converts img to the only color model the PPM encoder accepts.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(b)
	draw.Draw(rgba, b, img, b.Min, draw.Src)
	return rgba
}

// Close flushes the JSON lines files and writes the final point cloud as LAS.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true

	var err error
	for _, stream := range r.streams {
		err = multierr.Combine(err, stream.Close())
	}
	if r.lastCloud != nil && r.lastCloud.Size() > 0 {
		err = multierr.Combine(err, pointcloud.WriteToLASFile(r.lastCloud, filepath.Join(r.dir, finalCloudFile)))
	}
	return err
}

func (r *Recorder) appendRecord(topic string, record interface{}) error {
	line, err := json.Marshal(record)
	if err != nil {
		return errors.Wrapf(err, "encoding %s record", topic)
	}
	line = append(line, '\n')

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return errors.New("recorder is closed")
	}
	stream, ok := r.streams[topic]
	if !ok {
		stream = &lumberjack.Logger{
			Filename:   filepath.Join(r.dir, topic+".jsonl"),
			MaxSize:    maxRecordFileMB,
			MaxBackups: 2,
		}
		r.streams[topic] = stream
	}
	if _, err := stream.Write(line); err != nil {
		return errors.Wrapf(err, "writing %s record", topic)
	}
	r.counts[topic]++
	return nil
}

func (r *Recorder) writeFile(sub, topic string, stamp int64, ext string, write func(f *os.File) error) (err error) {
	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return errors.New("recorder is closed")
	}

	name := filepath.Join(r.dir, sub, fmt.Sprintf("%s_%d.%s", topic, stamp, ext))
	//nolint:gosec
	f, err := os.Create(name)
	if err != nil {
		return errors.Wrapf(err, "creating %q", name)
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
		if err != nil {
			utils.UncheckedError(os.Remove(name))
		}
	}()
	if err := write(f); err != nil {
		return errors.Wrapf(err, "writing %q", name)
	}

	r.mu.Lock()
	r.counts[topic]++
	r.mu.Unlock()
	return nil
}
