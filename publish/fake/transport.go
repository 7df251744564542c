// Package fake is a recording publish.Transport for tests.
package fake

import (
	"context"
	"sync"

	"github.com/mfkiwl/Kimera-VIO-ROS/publish"
)

// Transport records every artifact it is handed. Setting a topic in FailTopics
// makes publishing on it fail with the given error.
type Transport struct {
	mu         sync.Mutex
	FailTopics map[string]error

	Odometry    []*publish.Odometry
	Transforms  []*publish.StampedTransform
	PointClouds []*publish.PointCloud
	Meshes      map[string][]*publish.MeshMessage
	Stats       map[string][]*publish.StatsRecord
	Images      []*publish.ImageMessage
}

// NewTransport returns an empty recording transport.
func NewTransport() *Transport {
	return &Transport{
		FailTopics: map[string]error{},
		Meshes:     map[string][]*publish.MeshMessage{},
		Stats:      map[string][]*publish.StatsRecord{},
	}
}

// PublishOdometry records msg.
func (t *Transport) PublishOdometry(ctx context.Context, topic string, msg *publish.Odometry) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.FailTopics[topic]; err != nil {
		return err
	}
	t.Odometry = append(t.Odometry, msg)
	return nil
}

// BroadcastTransform records msg.
func (t *Transport) BroadcastTransform(ctx context.Context, msg *publish.StampedTransform) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.FailTopics["tf"]; err != nil {
		return err
	}
	t.Transforms = append(t.Transforms, msg)
	return nil
}

// PublishPointCloud records msg.
func (t *Transport) PublishPointCloud(ctx context.Context, topic string, msg *publish.PointCloud) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.FailTopics[topic]; err != nil {
		return err
	}
	t.PointClouds = append(t.PointClouds, msg)
	return nil
}

// PublishMesh records msg under topic.
func (t *Transport) PublishMesh(ctx context.Context, topic string, msg *publish.MeshMessage) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.FailTopics[topic]; err != nil {
		return err
	}
	t.Meshes[topic] = append(t.Meshes[topic], msg)
	return nil
}

// PublishStats records msg under topic.
func (t *Transport) PublishStats(ctx context.Context, topic string, msg *publish.StatsRecord) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.FailTopics[topic]; err != nil {
		return err
	}
	t.Stats[topic] = append(t.Stats[topic], msg)
	return nil
}

// PublishImage records msg.
func (t *Transport) PublishImage(ctx context.Context, topic string, msg *publish.ImageMessage) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.FailTopics[topic]; err != nil {
		return err
	}
	t.Images = append(t.Images, msg)
	return nil
}

// LastPointCloud returns the most recent point cloud, or nil.
func (t *Transport) LastPointCloud() *publish.PointCloud {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.PointClouds) == 0 {
		return nil
	}
	return t.PointClouds[len(t.PointClouds)-1]
}

// LastMesh returns the most recent mesh on topic, or nil.
func (t *Transport) LastMesh(topic string) *publish.MeshMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	meshes := t.Meshes[topic]
	if len(meshes) == 0 {
		return nil
	}
	return meshes[len(meshes)-1]
}

// OdometryCount returns how many odometry messages were recorded.
func (t *Transport) OdometryCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.Odometry)
}
