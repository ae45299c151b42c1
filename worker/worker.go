package worker

import (
	"fmt"
	"sync"
	"time"

	"MandelbrotMovie/misc"
	"MandelbrotMovie/movie"
	"MandelbrotMovie/render"
	"MandelbrotMovie/rpc"
	"MandelbrotMovie/sink"
	"MandelbrotMovie/task"
	"MandelbrotMovie/zoom"

	"github.com/BrugadaSyndrome/bslogger"
)

// Worker leases frame ranges from a coordinator, renders them with its local
// threads and ships the encoded images back. It needs no settings beyond the
// coordinator address, the movie parameters come over the wire.
type Worker struct {
	coordinator     rpc.Caller
	frameBuffer     sink.Frame
	framesCompleted int
	leasesCompleted int
	logger          bslogger.Logger
	movieSettings   movie.Settings
	mutex           sync.Mutex
	myAddress       string
	renderer        render.Renderer
	stop            chan misc.Nothing
	trajectory      zoom.Trajectory

	Server rpc.Server
}

func NewWorker(settings Settings) (*Worker, error) {
	if err := settings.Verify(); err != nil {
		return nil, err
	}

	// Find a free port to serve roll calls on
	port, err := misc.GetFreePort()
	if err != nil {
		return nil, err
	}
	myAddress := fmt.Sprintf("%s:%d", settings.WorkerHost, port)

	worker := &Worker{
		logger:    bslogger.NewLogger(fmt.Sprintf("Worker %s", myAddress), bslogger.Normal, nil),
		myAddress: myAddress,
		stop:      make(chan misc.Nothing),
	}

	server, err := rpc.NewServer(settings.Transport, worker, myAddress, myAddress)
	if err != nil {
		return nil, err
	}
	worker.Server = server
	if err := worker.Server.Run(); err != nil {
		return nil, err
	}

	if err := worker.connect(settings); err != nil {
		misc.CheckError(worker.Server.Stop(), worker.logger, misc.Warning)
		return nil, err
	}

	worker.logger.Infof("Rendering %dx%d frames with %d threads for %s",
		worker.movieSettings.Width, worker.movieSettings.Height, worker.movieSettings.Threads, settings.CoordinatorAddress)

	go worker.tickers()
	go worker.processLeases()

	return worker, nil
}

// connect joins the farm and pulls everything needed to render from the
// coordinator.
func (w *Worker) connect(settings Settings) error {
	coordinator, err := rpc.NewCaller(settings.Transport, settings.CoordinatorAddress, settings.CoordinatorAddress)
	if err != nil {
		return err
	}
	if err := coordinator.Connect(); err != nil {
		return err
	}
	w.coordinator = coordinator

	var nothing misc.Nothing
	if err := w.coordinator.Call("Coordinator.RegisterWorker", w.myAddress, &nothing); err != nil {
		misc.CheckError(w.coordinator.Disconnect(), w.logger, misc.Warning)
		return fmt.Errorf("joining the farm at %s: %w", settings.CoordinatorAddress, err)
	}
	if err := w.coordinator.Call("Coordinator.GetSettings", misc.Nothing{}, &w.movieSettings); err != nil {
		misc.CheckError(w.coordinator.Disconnect(), w.logger, misc.Warning)
		return fmt.Errorf("fetching movie settings: %w", err)
	}
	w.trajectory = w.movieSettings.Trajectory()

	w.renderer, err = render.NewRenderer(w.movieSettings.MaxIterations, w.movieSettings.Threads)
	if err != nil {
		return err
	}
	w.frameBuffer = sink.NewMemorySink(w.movieSettings.Quality).Allocate(w.movieSettings.Width, w.movieSettings.Height)
	return nil
}

func (w *Worker) tickers() {
	rollCall := time.NewTicker(time.Minute)
	heartBeat := time.NewTicker(30 * time.Second)
	defer rollCall.Stop()
	defer heartBeat.Stop()

	for {
		select {
		case <-w.stop:
			return

		case <-rollCall.C:
			w.logger.Debug("Roll call ticker")
			var present bool
			if err := w.coordinator.Call("Coordinator.RollCall", misc.Nothing{}, &present); err != nil {
				w.logger.Warningf("Coordinator missed roll call: %s", err)
			}

		case <-heartBeat.C:
			w.logger.Debug("Heart beat ticker")
			w.mutex.Lock()
			framesCompleted, leasesCompleted := w.framesCompleted, w.leasesCompleted
			w.mutex.Unlock()
			w.logger.Infof("Rendered [Frames: %d] [Leases: %d]", framesCompleted, leasesCompleted)
		}
	}
}

// processLeases pulls leases until the coordinator reports that every frame
// is handed out, then leaves the farm and stops the server.
func (w *Worker) processLeases() {
	for {
		var lease task.Lease
		err := w.coordinator.Call("Coordinator.GetLease", w.myAddress, &lease)
		if err != nil {
			if err.Error() == "all frames handed out" {
				w.logger.Info("No more frames to render")
				break
			}
			w.logger.Errorf("Cannot get a lease: %s", err)
			break
		}

		w.logger.Debugf("Rendering frames %s", lease.Frames)
		result := w.renderLease(lease)

		var nothing misc.Nothing
		if err := w.coordinator.Call("Coordinator.ReturnLease", result, &nothing); err != nil {
			w.logger.Errorf("Cannot return frames %s: %s", lease.Frames, err)
			break
		}
	}

	w.mutex.Lock()
	framesCompleted, leasesCompleted := w.framesCompleted, w.leasesCompleted
	w.mutex.Unlock()
	w.logger.Infof("Rendered %d frames over %d leases", framesCompleted, leasesCompleted)

	var nothing misc.Nothing
	misc.CheckError(w.coordinator.Call("Coordinator.DeRegisterWorker", w.myAddress, &nothing), w.logger, misc.Warning)
	close(w.stop)
	misc.CheckError(w.coordinator.Disconnect(), w.logger, misc.Warning)
	misc.CheckError(w.Server.Stop(), w.logger, misc.Warning)
}

func (w *Worker) renderLease(lease task.Lease) task.LeaseResult {
	result := task.LeaseResult{
		LeaseID:       lease.ID,
		WorkerAddress: w.myAddress,
	}

	// Frames ship back as encoded bytes, scoped to this lease so the
	// shipment is garbage once the coordinator has it.
	shipment := sink.NewMemorySink(w.movieSettings.Quality)
	for frame := lease.Frames.Start; frame < lease.Frames.End; frame++ {
		encodedFrame, err := w.renderFrame(shipment, frame)
		if err != nil {
			w.logger.Errorf("Frame %d failed: %s", frame, err)
			result.Failures = append(result.Failures, task.FrameError{Frame: frame, Message: err.Error()})
			continue
		}
		result.Frames = append(result.Frames, encodedFrame)

		w.mutex.Lock()
		w.framesCompleted++
		w.mutex.Unlock()
	}

	w.mutex.Lock()
	w.leasesCompleted++
	w.mutex.Unlock()
	return result
}

func (w *Worker) renderFrame(shipment *sink.MemorySink, frame int) (encodedFrame task.EncodedFrame, err error) {
	defer func() {
		if message := recover(); message != nil {
			err = fmt.Errorf("%w: frame %d: %v", misc.ErrWorkerFailure, frame, message)
		}
	}()

	// The coordinator prefixes its own save path, workers only pick the name
	outfile, err := sink.Outfile("", w.movieSettings.Outfile, frame, w.movieSettings.Ext)
	if err != nil {
		return task.EncodedFrame{}, err
	}

	job := task.Job{
		Frame:         frame,
		Viewport:      w.trajectory.ViewportAt(frame),
		Width:         w.movieSettings.Width,
		Height:        w.movieSettings.Height,
		MaxIterations: w.movieSettings.MaxIterations,
		Outfile:       outfile,
	}
	if err := w.renderer.Render(job, w.frameBuffer); err != nil {
		return task.EncodedFrame{}, err
	}

	if w.movieSettings.Label {
		caption := fmt.Sprintf("frame %d  scale %.3e", frame, w.trajectory.ScaleAt(frame))
		if err := sink.Label(w.frameBuffer, caption); err != nil {
			w.logger.Warningf("Skipping label on frame %d: %s", frame, err)
		}
	}

	if err := shipment.Serialize(w.frameBuffer, outfile); err != nil {
		return task.EncodedFrame{}, err
	}
	data, _ := shipment.Frame(outfile)

	return task.EncodedFrame{Frame: frame, Outfile: outfile, Data: data}, nil
}

func (w *Worker) RollCall(nothing misc.Nothing, present *bool) error {
	*present = true
	return nil
}
