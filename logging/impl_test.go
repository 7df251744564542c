package logging

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
	"go.viam.com/test"
)

func TestObservedLoggerCapturesFields(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)

	logger.Infow("packet dropped", "timestamp", int64(42), "queue_len", 10)
	logger.Debugf("popped %d packets", 3)

	test.That(t, logs.Len(), test.ShouldEqual, 2)
	entries := logs.All()
	test.That(t, entries[0].Message, test.ShouldEqual, "packet dropped")
	test.That(t, entries[0].Level, test.ShouldEqual, zapcore.InfoLevel)
	test.That(t, entries[0].ContextMap()["timestamp"], test.ShouldEqual, int64(42))
	test.That(t, entries[1].Message, test.ShouldEqual, "popped 3 packets")
}

func TestLevelFiltering(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	logger.SetLevel(WARN)

	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("shown")
	logger.Error("shown")

	test.That(t, logs.Len(), test.ShouldEqual, 2)
	test.That(t, logger.GetLevel(), test.ShouldEqual, WARN)
}

func TestSubloggerName(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	sub := logger.Sublogger("publisher").Sublogger("mesh")
	sub.Info("hello")

	test.That(t, logs.Len(), test.ShouldEqual, 1)
	test.That(t, logs.All()[0].LoggerName, test.ShouldEqual, "publisher.mesh")
}

func TestUnpairedKey(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	logger.Warnw("odd", "lonely")

	test.That(t, logs.Len(), test.ShouldEqual, 1)
	test.That(t, logs.All()[0].ContextMap()["lonely"], test.ShouldNotBeNil)
}

func TestWriterAppender(t *testing.T) {
	var buf bytes.Buffer
	logger := NewBlankLogger("bridge")
	logger.AddAppender(NewWriterAppender(&buf))
	logger.Infow("started", "world_frame_id", "world")

	line := buf.String()
	test.That(t, strings.Contains(line, "bridge"), test.ShouldBeTrue)
	test.That(t, strings.Contains(line, "started"), test.ShouldBeTrue)
	test.That(t, strings.Contains(line, "world_frame_id"), test.ShouldBeTrue)
}

func TestLevelFromString(t *testing.T) {
	level, err := LevelFromString("WARN")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, level, test.ShouldEqual, WARN)

	_, err = LevelFromString("loud")
	test.That(t, err, test.ShouldNotBeNil)
}
