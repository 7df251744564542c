// Package ros reads sensor_msgs records out of rosbag files.
package ros

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/edaniels/gobag/rosbag"
	"github.com/pkg/errors"
	"go.viam.com/utils"
)

// ReadBag reads the contents of a rosbag into a gobag data structure.
func ReadBag(filename string) (*rosbag.RosBag, error) {
	//nolint:gosec
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open input file")
	}
	defer utils.UncheckedErrorFunc(f.Close)

	rb := rosbag.NewRosBag()
	if err := rb.Read(f); err != nil {
		return nil, errors.Wrapf(err, "unable to create ros bag")
	}
	return rb, nil
}

// TopicKey is the key gobag files a topic's records under: lowercase, without
// the leading slash, with the remaining slashes replaced by underscores.
func TopicKey(topic string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(topic, "/"), "/", "_"))
}

// ParseTopics converts every record of the given topics to JSON inside rb.
func ParseTopics(rb *rosbag.RosBag, topics ...string) error {
	wanted := make(map[string]bool, len(topics))
	for _, topic := range topics {
		wanted[TopicKey(topic)] = true
	}
	if err := rb.ParseTopicsToJSON(
		"",
		func(int64) bool { return true },
		func(t string) bool { return wanted[TopicKey(t)] },
		false,
	); err != nil {
		return errors.Wrapf(err, "error while parsing bag to JSON")
	}
	return nil
}

// MessagesForTopic returns the raw JSON records parsed for topic, in bag order.
// ParseTopics must have been called for the topic first.
func MessagesForTopic(rb *rosbag.RosBag, topic string) ([][]byte, error) {
	msgs := rb.TopicsAsJSON[TopicKey(topic)]
	if msgs == nil {
		return nil, errors.Errorf("no messages for topic %s", topic)
	}

	var all [][]byte
	for {
		data, err := msgs.ReadBytes('\n')
		if len(data) > 0 {
			all = append(all, data)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
	}
	return all, nil
}

// DecodeRecords unmarshals each JSON record into a T.
func DecodeRecords[T any](records [][]byte) ([]T, error) {
	out := make([]T, 0, len(records))
	for i, data := range records {
		var msg T
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, errors.Wrapf(err, "decoding record %d", i)
		}
		out = append(out, msg)
	}
	return out, nil
}
