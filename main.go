package main

import (
	"time"

	"MandelbrotMovie/coordinator"
	"MandelbrotMovie/misc"
	"MandelbrotMovie/movie"
	"MandelbrotMovie/sink"
	"MandelbrotMovie/worker"

	"github.com/BrugadaSyndrome/bslogger"
)

var (
	centerX, centerY, endX, endY, finalScale, scale                              float64
	height, images, leaseSize, maxIterations, processes, quality, threads, width int
	coordinatorAddress, ext, outfile, savePath, serverAddress                    string
	settingsFile, transport, workerHost                                          string
	isCoordinator, isWorker, label, previewFinal                                 bool
	waitTimeout                                                                  time.Duration
)

func main() {
	logger := bslogger.NewLogger("MandelbrotMovie", bslogger.Normal, nil)
	parseArguments(logger)

	switch {
	case isCoordinator:
		runCoordinator(logger)
	case isWorker:
		runWorker(logger)
	default:
		runLocal(logger)
	}
}

// runLocal renders the whole movie in this process, or just the deepest
// frame when asked for a preview.
func runLocal(logger bslogger.Logger) {
	settings := movieSettings(logger)
	m, err := movie.NewMovie(settings, sink.NewFileSink(settings.Quality))
	misc.CheckError(err, logger, misc.Fatal)

	if settings.PreviewFinal {
		_, err := m.RenderFinal()
		misc.CheckError(err, logger, misc.Fatal)
		return
	}

	_, err = m.Run()
	misc.CheckError(err, logger, misc.Fatal)
}

// runCoordinator serves frame leases to workers and blocks until every
// frame is written or failed.
func runCoordinator(logger bslogger.Logger) {
	var settings coordinator.Settings
	var err error
	if settingsFile != "" {
		settings, err = coordinator.NewSettings(settingsFile)
		misc.CheckError(err, logger, misc.Fatal)
	} else {
		settings = coordinator.DefaultSettings()
		settings.LeaseSize = leaseSize
		settings.Movie = movieSettings(logger)
		settings.ServerAddress = serverAddress
		settings.Transport = transport
	}

	c, err := coordinator.NewCoordinator(settings)
	misc.CheckError(err, logger, misc.Fatal)

	<-c.Finished
	misc.CheckError(c.RunError, logger, misc.Fatal)
}

// runWorker joins the farm at the coordinator address and renders leases
// until none are left.
func runWorker(logger bslogger.Logger) {
	var settings worker.Settings
	var err error
	if settingsFile != "" {
		settings, err = worker.NewSettings(settingsFile)
		misc.CheckError(err, logger, misc.Fatal)
	} else {
		settings = worker.DefaultSettings()
		settings.CoordinatorAddress = coordinatorAddress
		settings.Transport = transport
		settings.WorkerHost = workerHost
	}

	w, err := worker.NewWorker(settings)
	misc.CheckError(err, logger, misc.Fatal)
	w.Server.Wait()
}
