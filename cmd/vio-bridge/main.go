// Package main replays or serves sensor data through the VIO bridge and records
// the published artifacts to disk.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"github.com/mfkiwl/Kimera-VIO-ROS/bridge"
	"github.com/mfkiwl/Kimera-VIO-ROS/calibration"
	"github.com/mfkiwl/Kimera-VIO-ROS/logging"
	"github.com/mfkiwl/Kimera-VIO-ROS/recorder"
	"github.com/mfkiwl/Kimera-VIO-ROS/vio/fake"
)

const (
	flagParams       = "params"
	flagBag          = "bag"
	flagOutput       = "output"
	flagLeftTopic    = "left-topic"
	flagRightTopic   = "right-topic"
	flagImuTopic     = "imu-topic"
	flagDepthTopic   = "depth-topic"
	flagFakePipeline = "fake-pipeline"
	flagDebug        = "debug"
)

func newApp() *cli.App {
	return &cli.App{
		Name:  "vio-bridge",
		Usage: "feed stereo, depth and IMU data to a VIO pipeline and record its output",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     flagParams,
				Aliases:  []string{"p"},
				Required: true,
				Usage:    "load calibration and bridge parameters from `FILE`",
			},
			&cli.StringFlag{
				Name:  flagBag,
				Usage: "replay sensor topics from the rosbag `FILE` instead of waiting for live data",
			},
			&cli.StringFlag{
				Name:  flagOutput,
				Value: "vio_output",
				Usage: "record published artifacts under `DIR`",
			},
			&cli.StringFlag{
				Name:  flagLeftTopic,
				Value: "/cam0/image_raw",
				Usage: "left camera image topic",
			},
			&cli.StringFlag{
				Name:  flagRightTopic,
				Value: "/cam1/image_raw",
				Usage: "right camera image topic",
			},
			&cli.StringFlag{
				Name:  flagImuTopic,
				Value: "/imu0",
				Usage: "IMU topic",
			},
			&cli.StringFlag{
				Name:  flagDepthTopic,
				Usage: "optional depth image topic",
			},
			&cli.BoolFlag{
				Name:  flagFakePipeline,
				Usage: "run against the built-in fake estimation pipeline",
			},
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Action: run,
	}
}

func main() {
	app := newApp()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func run(c *cli.Context) (err error) {
	logger := logging.NewLogger("vio-bridge")
	if c.Bool(flagDebug) {
		logger = logging.NewDebugLogger("vio-bridge")
	}
	logging.ReplaceGlobal(logger)

	if !c.Bool(flagFakePipeline) {
		return errors.New("no estimation pipeline is linked into this binary, pass --" + flagFakePipeline)
	}

	params, err := calibration.NewYAMLSource(c.String(flagParams))
	if err != nil {
		return err
	}
	cfg, err := bridge.LoadConfig(params)
	if err != nil {
		return err
	}

	rec, err := recorder.NewRecorder(c.String(flagOutput), logger.Sublogger("recorder"))
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, rec.Close())
		logger.Infow("artifacts recorded", "dir", rec.Dir())
	}()

	var provider bridge.DataProvider
	if bag := c.String(flagBag); bag != "" {
		provider, err = bridge.NewRosbagProvider(bag, bridge.RosbagTopics{
			Left:  c.String(flagLeftTopic),
			Right: c.String(flagRightTopic),
			Imu:   c.String(flagImuTopic),
			Depth: c.String(flagDepthTopic),
		}, params, rec, cfg.DepthScale, logger.Sublogger("rosbag"))
		if err != nil {
			return err
		}
	} else {
		provider = bridge.NewOnlineProvider(params, rec, cfg.DepthScale, logger.Sublogger("online"))
	}

	b, err := bridge.New(cfg, provider, fake.NewPipeline(), logger.Sublogger("bridge"))
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, b.Close())
		fmt.Fprintln(c.App.Writer, b.Stats())
	}()

	b.Start()
	if err := b.Run(c.Context); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if err := b.Drain(c.Context); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
