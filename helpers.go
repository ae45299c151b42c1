package main

import (
	"flag"

	"MandelbrotMovie/misc"
	"MandelbrotMovie/movie"

	"github.com/BrugadaSyndrome/bslogger"
)

func parseArguments(logger bslogger.Logger) {
	defaults := movie.DefaultSettings()

	// Movie values
	flag.Float64Var(&centerX, "centerX", defaults.CenterX, "Center x value of the zoom target")
	flag.Float64Var(&centerY, "centerY", defaults.CenterY, "Center y value of the zoom target")
	flag.Float64Var(&endX, "endX", defaults.EndX, "Center x value of the last frame, for sliding zooms")
	flag.Float64Var(&endY, "endY", defaults.EndY, "Center y value of the last frame, for sliding zooms")
	flag.StringVar(&ext, "ext", defaults.Ext, "Image format of the frames (.jpg, .jpeg or .png)")
	flag.Float64Var(&finalScale, "finalScale", defaults.FinalScale, "Width of the view on the last frame")
	flag.IntVar(&height, "height", defaults.Height, "Height of resulting images")
	flag.IntVar(&images, "images", defaults.Images, "Number of frames in the movie")
	flag.BoolVar(&label, "label", defaults.Label, "Burn frame number and scale into each image")
	flag.IntVar(&maxIterations, "maxIterations", defaults.MaxIterations, "Iterations to run to verify each point")
	flag.StringVar(&outfile, "outfile", defaults.Outfile, "Base name of the frame files")
	flag.BoolVar(&previewFinal, "previewFinal", defaults.PreviewFinal, "Render only the last frame and exit")
	flag.IntVar(&processes, "processes", defaults.Processes, "Number of frames to render at once")
	flag.IntVar(&quality, "quality", defaults.Quality, "Jpeg quality from 1 to 100")
	flag.StringVar(&savePath, "savePath", defaults.SavePath, "Directory the frames are written to")
	flag.Float64Var(&scale, "scale", defaults.Scale, "Width of the view on the first frame")
	flag.IntVar(&threads, "threads", defaults.Threads, "Number of rendering threads per frame")
	flag.DurationVar(&waitTimeout, "waitTimeout", defaults.WaitTimeout, "Give up on unfinished frames after this long, 0 waits forever")
	flag.IntVar(&width, "width", defaults.Width, "Width of resulting images")

	// Farm values
	flag.BoolVar(&isCoordinator, "isCoordinator", false, "Serve frame leases to farm workers")
	flag.BoolVar(&isWorker, "isWorker", false, "Render frame leases from a farm coordinator")
	flag.StringVar(&coordinatorAddress, "coordinatorAddress", "", "Address of the coordinator to lease frames from")
	flag.IntVar(&leaseSize, "leaseSize", 5, "Number of frames handed to a worker at once")
	flag.StringVar(&serverAddress, "serverAddress", "", "Address the coordinator serves leases at")
	flag.StringVar(&transport, "transport", "tcp", "Farm transport, tcp or http")
	flag.StringVar(&workerHost, "workerHost", "", "Host this worker can be called back at")

	flag.StringVar(&settingsFile, "settingsFile", "", "Json settings file, replaces the flags above")

	flag.Parse()

	if isCoordinator && isWorker {
		logger.Fatal("This instance cannot be both the coordinator and a worker")
	}

	// A zoom with no end point of its own stays put on the center
	endXSet, endYSet := false, false
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "endX":
			endXSet = true
		case "endY":
			endYSet = true
		}
	})
	if !endXSet {
		endX = centerX
	}
	if !endYSet {
		endY = centerY
	}
}

func movieSettings(logger bslogger.Logger) movie.Settings {
	if settingsFile != "" {
		settings, err := movie.NewSettings(settingsFile)
		misc.CheckError(err, logger, misc.Fatal)
		return settings
	}

	settings := movie.DefaultSettings()
	settings.CenterX = centerX
	settings.CenterY = centerY
	settings.EndX = endX
	settings.EndY = endY
	settings.Ext = ext
	settings.FinalScale = finalScale
	settings.Height = height
	settings.Images = images
	settings.Label = label
	settings.MaxIterations = maxIterations
	settings.Outfile = outfile
	settings.PreviewFinal = previewFinal
	settings.Processes = processes
	settings.Quality = quality
	settings.SavePath = savePath
	settings.Scale = scale
	settings.Threads = threads
	settings.WaitTimeout = waitTimeout
	settings.Width = width
	return settings
}
