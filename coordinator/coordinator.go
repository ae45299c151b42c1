package coordinator

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"MandelbrotMovie/misc"
	"MandelbrotMovie/movie"
	"MandelbrotMovie/rpc"
	"MandelbrotMovie/sink"
	"MandelbrotMovie/task"

	"github.com/BrugadaSyndrome/bslogger"
	"github.com/google/uuid"
)

// Coordinator hands frame leases out to farm workers and writes the encoded
// frames they return. Leases from workers that stop answering roll calls go
// back into the pool, so a died worker costs time but never frames.
type Coordinator struct {
	clients         map[string]rpc.Caller
	done            chan task.LeaseResult
	failed          map[int]string
	frameCount      int
	leases          chan task.Lease
	leasesClosed    bool
	leasesHandedOut map[string]map[uuid.UUID]task.Lease
	logger          bslogger.Logger
	mutex           sync.Mutex
	settings        Settings
	startTime       time.Time
	workerWait      *sync.WaitGroup
	written         map[int]bool

	Finished chan misc.Nothing
	RunError error
	Server   rpc.Server
}

func NewCoordinator(settings Settings) (*Coordinator, error) {
	if err := settings.Verify(); err != nil {
		return nil, err
	}

	chunks := task.Chunk(settings.Movie.Images, settings.LeaseSize)
	coordinator := &Coordinator{
		clients:         make(map[string]rpc.Caller),
		done:            make(chan task.LeaseResult, len(chunks)),
		failed:          make(map[int]string),
		frameCount:      settings.Movie.Images,
		leases:          make(chan task.Lease, len(chunks)),
		leasesHandedOut: make(map[string]map[uuid.UUID]task.Lease),
		logger:          bslogger.NewLogger("Coordinator", bslogger.Normal, nil),
		settings:        settings,
		startTime:       time.Now(),
		workerWait:      &sync.WaitGroup{},
		written:         make(map[int]bool),
		Finished:        make(chan misc.Nothing),
	}

	for _, frames := range chunks {
		coordinator.leases <- task.NewLease(frames)
	}

	// Create the directory the frames land in, keep a copy of the settings
	// there so the run can be reproduced, and log beside the output.
	if settings.Movie.SavePath != "" {
		if err := os.MkdirAll(settings.Movie.SavePath, 0755); err != nil {
			return nil, fmt.Errorf("%w: creating save path %s: %s", misc.ErrSinkFailure, settings.Movie.SavePath, err)
		}

		settingsBytes, err := json.MarshalIndent(settings, "", "  ")
		if err == nil {
			_, err = misc.WriteFile(filepath.Join(settings.Movie.SavePath, "run_settings.json"), settingsBytes)
		}
		misc.CheckError(err, coordinator.logger, misc.Warning)

		logFile, err := os.Create(filepath.Join(settings.Movie.SavePath, "coordinator.log"))
		misc.CheckError(err, coordinator.logger, misc.Warning)
		if err == nil {
			coordinator.logger = bslogger.NewLogger("Coordinator", bslogger.Normal, logFile)
		}
	}

	server, err := rpc.NewServer(settings.Transport, coordinator, settings.ServerAddress, "CoordinatorServer")
	if err != nil {
		return nil, err
	}
	coordinator.Server = server
	if err := coordinator.Server.Run(); err != nil {
		return nil, err
	}

	coordinator.logger.Infof("Serving %d frames as %d leases at %s", coordinator.frameCount, len(chunks), settings.ServerAddress)

	go coordinator.tickers()
	go coordinator.ingestFrames()

	return coordinator, nil
}

func (c *Coordinator) tickers() {
	rollCall := time.NewTicker(time.Minute)
	heartBeat := time.NewTicker(30 * time.Second)
	defer rollCall.Stop()
	defer heartBeat.Stop()

	for {
		select {
		case <-c.Finished:
			return

		case <-rollCall.C:
			c.logger.Debug("Roll call ticker")
			for address, client := range c.snapshotClients() {
				var present bool
				err := client.Call("Worker.RollCall", misc.Nothing{}, &present)
				if err != nil {
					// Cannot communicate with the worker
					c.logger.Warningf("Worker %s missed roll call: %s", address, err)
					var nothing misc.Nothing
					misc.CheckError(c.DeRegisterWorker(address, &nothing), c.logger, misc.Warning)
				}
			}

		case <-heartBeat.C:
			c.logger.Debug("Heart beat ticker")
			c.mutex.Lock()
			writtenCount, failedCount, workerCount := len(c.written), len(c.failed), len(c.clients)
			outstanding := 0
			for _, leases := range c.leasesHandedOut {
				outstanding += len(leases)
			}
			c.mutex.Unlock()
			c.logger.Infof("Frames [Written: %d] [Failed: %d] [Todo: %d] | Leases [Out: %d] | Workers [Connected: %d]",
				writtenCount, failedCount, c.frameCount-writtenCount-failedCount, outstanding, workerCount)
		}
	}
}

func (c *Coordinator) snapshotClients() map[string]rpc.Caller {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	clients := make(map[string]rpc.Caller, len(c.clients))
	for address, client := range c.clients {
		clients[address] = client
	}
	return clients
}

// ingestFrames drains lease results until every frame is written or failed,
// then walks the farm through an orderly shutdown.
func (c *Coordinator) ingestFrames() {
	c.logger.Info("Ingesting frames")

	for result := range c.done {
		c.logger.Debugf("Ingesting %s", result.String())
		for _, failure := range result.Failures {
			c.recordFailure(failure.Frame, failure.Message)
		}
		for _, encodedFrame := range result.Frames {
			c.writeFrame(encodedFrame)
		}

		c.mutex.Lock()
		delete(c.leasesHandedOut[result.WorkerAddress], result.LeaseID)
		settled := len(c.written) + len(c.failed)
		c.mutex.Unlock()

		if settled == c.frameCount {
			break
		}
	}

	// No frame is outstanding anymore. Closing the lease pool turns every
	// following lease request into the hand out complete signal.
	c.mutex.Lock()
	c.leasesClosed = true
	close(c.leases)
	workerCount := len(c.clients)
	c.mutex.Unlock()

	// Results can still trickle in from workers that were presumed dead and
	// requeued. The drain keeps their sends from hanging; the results
	// themselves are duplicates by now and need no processing.
	go func() {
		for range c.done {
		}
	}()

	c.logger.Infof("Waiting for %d workers to disconnect", workerCount)
	c.workerWait.Wait()

	misc.CheckError(c.Server.Stop(), c.logger, misc.Warning)

	c.mutex.Lock()
	writtenCount := len(c.written)
	failures := make(map[int]string, len(c.failed))
	failedFrames := make([]int, 0, len(c.failed))
	for frame, message := range c.failed {
		failures[frame] = message
		failedFrames = append(failedFrames, frame)
	}
	c.mutex.Unlock()
	sort.Ints(failedFrames)

	if len(failedFrames) > 0 {
		for _, frame := range failedFrames {
			c.logger.Errorf("Frame %d failed: %s", frame, failures[frame])
		}
		c.RunError = fmt.Errorf("%w: %d of %d frames did not render", misc.ErrWorkerFailure, len(failedFrames), c.frameCount)
	} else {
		c.logger.Infof("Generated %d images in %s", writtenCount, time.Since(c.startTime))
	}
	close(c.Finished)
}

func (c *Coordinator) writeFrame(encodedFrame task.EncodedFrame) {
	c.mutex.Lock()
	duplicate := c.written[encodedFrame.Frame]
	c.mutex.Unlock()
	if duplicate {
		// A requeued lease rendered this frame twice; the first copy won.
		c.logger.Debugf("Frame %d arrived twice", encodedFrame.Frame)
		return
	}

	path, err := sink.Outfile(c.settings.Movie.SavePath, c.settings.Movie.Outfile, encodedFrame.Frame, c.settings.Movie.Ext)
	if err != nil {
		c.recordFailure(encodedFrame.Frame, err.Error())
		return
	}
	if _, err := misc.WriteFile(path, encodedFrame.Data); err != nil {
		c.recordFailure(encodedFrame.Frame, err.Error())
		return
	}

	c.mutex.Lock()
	c.written[encodedFrame.Frame] = true
	delete(c.failed, encodedFrame.Frame)
	writtenCount := len(c.written)
	c.mutex.Unlock()
	c.logger.Debugf("Saved image %s (%d of %d)", path, writtenCount, c.frameCount)
}

func (c *Coordinator) recordFailure(frame int, message string) {
	c.mutex.Lock()
	if !c.written[frame] {
		c.failed[frame] = message
	}
	c.mutex.Unlock()
	c.logger.Errorf("Frame %d failed: %s", frame, message)
}

func (c *Coordinator) RegisterWorker(workerServerAddress string, reply *misc.Nothing) error {
	c.mutex.Lock()
	closed := c.leasesClosed
	_, registered := c.clients[workerServerAddress]
	c.mutex.Unlock()
	if closed {
		return errors.New("run is complete, not accepting workers")
	}
	if registered {
		return fmt.Errorf("worker %s is already registered", workerServerAddress)
	}

	// Create a client to communicate with this worker
	client, err := rpc.NewCaller(c.settings.Transport, workerServerAddress, workerServerAddress)
	if err != nil {
		return err
	}
	if err := client.Connect(); err != nil {
		c.logger.Warningf("Cannot connect back to worker at %s: %s", workerServerAddress, err)
		return err
	}

	c.mutex.Lock()
	c.clients[workerServerAddress] = client
	c.leasesHandedOut[workerServerAddress] = make(map[uuid.UUID]task.Lease)
	c.mutex.Unlock()

	c.logger.Infof("Worker joined: %s", workerServerAddress)
	c.workerWait.Add(1)
	return nil
}

func (c *Coordinator) DeRegisterWorker(workerServerAddress string, reply *misc.Nothing) error {
	c.mutex.Lock()
	client, registered := c.clients[workerServerAddress]
	if !registered {
		c.mutex.Unlock()
		return nil
	}

	// Put leases this worker never returned back into the pool
	for _, lease := range c.leasesHandedOut[workerServerAddress] {
		if !c.leasesClosed {
			lease.WorkerAddress = ""
			c.leases <- lease
			c.logger.Warningf("Requeued frames %s from worker %s", lease.Frames, workerServerAddress)
		}
	}
	delete(c.leasesHandedOut, workerServerAddress)
	delete(c.clients, workerServerAddress)
	c.mutex.Unlock()

	misc.CheckError(client.Disconnect(), c.logger, misc.Warning)
	c.logger.Infof("Worker left: %s", workerServerAddress)
	c.workerWait.Done()
	return nil
}

func (c *Coordinator) RollCall(nothing misc.Nothing, present *bool) error {
	*present = true
	return nil
}

// GetSettings hands a joining worker the movie parameters, so only the
// coordinator needs a settings file.
func (c *Coordinator) GetSettings(nothing misc.Nothing, settings *movie.Settings) error {
	*settings = c.settings.Movie
	return nil
}

// GetLease blocks until a lease is free. Once every frame is settled it
// tells the worker the hand out is over instead.
func (c *Coordinator) GetLease(workerAddress string, lease *task.Lease) error {
	todo, more := <-c.leases
	if !more {
		c.logger.Info("Telling worker that all frames are handed out")
		return errors.New("all frames handed out")
	}

	todo.WorkerAddress = workerAddress
	c.mutex.Lock()
	if _, ok := c.leasesHandedOut[workerAddress]; !ok {
		c.leasesHandedOut[workerAddress] = make(map[uuid.UUID]task.Lease)
	}
	c.leasesHandedOut[workerAddress][todo.ID] = todo
	c.mutex.Unlock()

	*lease = todo
	c.logger.Debugf("Leased frames %s to worker %s", todo.Frames, workerAddress)
	return nil
}

func (c *Coordinator) ReturnLease(result task.LeaseResult, nothing *misc.Nothing) error {
	c.done <- result
	return nil
}
