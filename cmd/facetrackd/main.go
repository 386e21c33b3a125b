package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/tacusci/logging/v2"
	"github.com/takama/daemon"
	"github.com/tauraamui/facetrackd/internal/config"
	"github.com/tauraamui/facetrackd/pkg/log"
	"github.com/tauraamui/facetrackd/pkg/videosource"
	"gocv.io/x/gocv"
)

const (
	name        = "facetrackd"
	description = "Face tracking daemon which supplies camera/file/stream frames to the tracking pipeline"
)

const readRetryInterval = 20 * time.Millisecond

type Service struct {
	daemon.Daemon
}

// Setup writes the default config file to disk.
func (service *Service) Setup() (string, error) {
	log.Info("Setting up facetrackd service...")

	err := config.DefaultCreator().Create()
	if err != nil {
		if !errors.Is(err, config.ErrConfigAlreadyExists) {
			return "", err
		}
		log.Error(err.Error())
	}

	return "Setup successful...", nil
}

func (service *Service) Manage() (string, error) {
	usage := "Usage: facetrackd setup | install | remove | start | stop | status"

	if len(os.Args) > 1 {
		command := os.Args[1]
		switch command {
		case "setup":
			return service.Setup()
		case "install":
			return service.Install()
		case "remove":
			return service.Remove()
		case "start":
			return service.Start()
		case "stop":
			return service.Stop()
		case "status":
			return service.Status()
		default:
			return usage, nil
		}
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	log.Info("Starting face tracker frame supply...")

	values, err := config.DefaultResolver().Resolve()
	if err != nil {
		log.Fatal(err.Error())
	}

	session, err := videosource.ResolveBackend(
		os.Getenv("FACETRACKD_VIDEO_BACKEND"),
		videosource.Options{
			Capture:   values.Capture,
			RawFrames: values.RawFrames,
			Geometry: videosource.Geometry{
				Width:  values.Width,
				Height: values.Height,
				FPS:    values.FPS,
			},
			DirectCapture: values.DirectCapture,
		},
	)
	if err != nil {
		log.Fatal(err.Error())
	}

	log.Info("Opened capture session: [%s]", session.UUID())

	done := make(chan interface{})
	go pumpFrames(session, done)

	killSignal := <-interrupt
	fmt.Print("\r")
	log.Error("Received signal: %s", killSignal)

	log.Info("Closing capture session...")
	if err := session.Close(); err != nil {
		log.Error("error closing capture session: %s", err.Error())
	}
	<-done

	var b bytes.Buffer
	gocv.MatProfile.Count()
	gocv.MatProfile.WriteTo(&b, 1)
	fmt.Print(b.String())

	return "Shutdown successful... BYE! 👋", nil
}

// pumpFrames drives the capture session with the same retry discipline
// the liveness probe uses: wait a short interval when the source is not
// ready, treat a missed read as a retry rather than a failure. Frames
// are handed straight to the downstream tracking pipeline, which is an
// external collaborator; here they are counted for the periodic frame
// rate diagnostic.
func pumpFrames(session *videosource.Session, done chan interface{}) {
	defer close(done)

	frames := 0
	lastReport := time.Now()
	for session.IsOpen() {
		if !session.IsReady() {
			time.Sleep(readRetryInterval)
		}

		frame, ok := session.Read()
		if !ok {
			time.Sleep(readRetryInterval)
			continue
		}

		frames++
		frame.Close()

		if elapsed := time.Since(lastReport); elapsed >= time.Second*5 {
			log.Info("supplying %.2f frames per second", float64(frames)/elapsed.Seconds())
			frames = 0
			lastReport = time.Now()
		}
	}
}

func init() {
	logging.CallbackLabelLevel = 5
	logging.ColorLogLevelLabelOnly = true
	loggingLevel := os.Getenv("FACETRACKD_LOGGING_LEVEL")

	switch strings.ToLower(loggingLevel) {
	case "info":
		logging.CurrentLoggingLevel = logging.InfoLevel
	case "warn":
		logging.CurrentLoggingLevel = logging.WarnLevel
	case "debug":
		logging.CurrentLoggingLevel = logging.DebugLevel
		logging.CallbackLabel = true
	default:
		logging.CurrentLoggingLevel = logging.WarnLevel
	}
}

func main() {
	daemonType := daemon.SystemDaemon
	if runtime.GOOS == "darwin" {
		daemonType = daemon.UserAgent
	}

	srv, err := daemon.New(name, description, daemonType)
	if err != nil {
		logging.Error(err.Error()) //nolint
		os.Exit(1)
	}

	service := &Service{srv}
	status, err := service.Manage()
	if err != nil {
		logging.Error(err.Error()) //nolint
		os.Exit(1)
	}

	logging.Info(status) //nolint
}
