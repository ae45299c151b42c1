package movie

import (
	"fmt"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"MandelbrotMovie/misc"
	"MandelbrotMovie/render"
	"MandelbrotMovie/sink"
	"MandelbrotMovie/task"
	"MandelbrotMovie/zoom"

	"github.com/BrugadaSyndrome/bslogger"
	"github.com/google/uuid"
)

const heartbeatInterval = 15 * time.Second

// Movie renders one whole zoom sequence through an image sink. The frames
// are fanned out to range workers, each walking a contiguous slice of the
// sequence, and every frame inside a range is derived, rendered and
// serialized independently of all the others.
type Movie struct {
	logger   bslogger.Logger
	settings Settings
	sink     sink.Sink
	runID    uuid.UUID
}

func NewMovie(settings Settings, imageSink sink.Sink) (Movie, error) {
	if err := settings.Verify(); err != nil {
		return Movie{}, err
	}

	return Movie{
		logger:   bslogger.NewLogger("Movie", bslogger.Normal, nil),
		settings: settings,
		sink:     imageSink,
		runID:    uuid.New(),
	}, nil
}

func (m *Movie) Settings() Settings {
	return m.settings
}

// Run renders every frame of the sequence and joins every range worker
// before reporting. A failed frame never takes its siblings down: the
// failure is recorded, the rest of the range keeps rendering, and the error
// returned at the end names how much of the movie is missing.
func (m *Movie) Run() (Report, error) {
	started := time.Now()
	report := Report{RunID: m.runID, Frames: m.settings.Images}

	trajectory := m.settings.Trajectory()
	if err := trajectory.Verify(); err != nil {
		return report, err
	}
	renderer, err := render.NewRenderer(m.settings.MaxIterations, m.settings.Threads)
	if err != nil {
		return report, err
	}
	if err := m.prepareSavePath(); err != nil {
		return report, err
	}

	ranges := task.Partition(m.settings.Images, m.settings.Processes)
	m.logger.Infof("Run %s rendering %d %dx%d frames across %d range workers with %d render threads each",
		m.runID, m.settings.Images, m.settings.Width, m.settings.Height, len(ranges), renderer.Threads())

	reports := make(chan RangeReport, len(ranges))
	var rendered int64
	waitGroup := &sync.WaitGroup{}
	for _, frames := range ranges {
		waitGroup.Add(1)
		go func(frames task.Range) {
			defer waitGroup.Done()
			reports <- m.renderRange(trajectory, &renderer, frames, &rendered)
		}(frames)
	}

	done := make(chan struct{})
	go func() {
		waitGroup.Wait()
		close(done)
	}()

	if m.waitForWorkers(done, &rendered) {
		for range ranges {
			report.merge(<-reports)
		}
	} else {
		// Whatever already came back still counts; every range that did not
		// is reported lost rather than waited on forever.
		reported := make(map[task.Range]bool)
	drain:
		for {
			select {
			case rangeReport := <-reports:
				report.merge(rangeReport)
				reported[rangeReport.Frames] = true
			default:
				break drain
			}
		}
		for _, frames := range ranges {
			if !reported[frames] {
				report.LostRanges = append(report.LostRanges, frames)
			}
		}
	}

	sort.Slice(report.Failures, func(i, j int) bool {
		return report.Failures[i].Frame < report.Failures[j].Frame
	})
	report.Elapsed = time.Since(started)

	if report.Failed() {
		for _, failure := range report.Failures {
			m.logger.Errorf("Frame %d failed: %s", failure.Frame, failure.Err)
		}
		for _, lost := range report.LostRanges {
			m.logger.Errorf("Frames %s never reported back", lost)
		}
		return report, fmt.Errorf("%d of %d frames did not render", report.Missing(), report.Frames)
	}

	m.logger.Infof("Generated %d images in %s", report.Rendered, report.Elapsed)
	return report, nil
}

// RenderFinal renders only the last frame of the sequence, synchronously and
// without any range fan out, to preview where the zoom lands before paying
// for the whole movie.
func (m *Movie) RenderFinal() (Report, error) {
	started := time.Now()
	report := Report{RunID: m.runID, Frames: 1}

	trajectory := m.settings.Trajectory()
	if err := trajectory.Verify(); err != nil {
		return report, err
	}
	renderer, err := render.NewRenderer(m.settings.MaxIterations, m.settings.Threads)
	if err != nil {
		return report, err
	}
	if err := m.prepareSavePath(); err != nil {
		return report, err
	}

	outfile, err := sink.FinalOutfile(m.settings.SavePath, m.settings.Outfile, m.settings.Ext)
	if err != nil {
		return report, err
	}

	lastFrame := m.settings.Images - 1
	m.logger.Infof("Run %s previewing frame %d at scale %g", m.runID, lastFrame, trajectory.ScaleAt(lastFrame))
	if err := m.renderJob(trajectory, &renderer, lastFrame, outfile); err != nil {
		return report, err
	}

	report.Rendered = 1
	report.Elapsed = time.Since(started)
	m.logger.Infof("Generated the final preview image %s in %s", outfile, report.Elapsed)
	return report, nil
}

// renderRange walks one contiguous frame range. Frames fail individually;
// the walk never stops early.
func (m *Movie) renderRange(trajectory zoom.Trajectory, renderer *render.Renderer, frames task.Range, rendered *int64) RangeReport {
	report := RangeReport{Frames: frames}
	for frame := frames.Start; frame < frames.End; frame++ {
		if err := m.renderFrame(trajectory, renderer, frame); err != nil {
			report.Failures = append(report.Failures, FrameFailure{Frame: frame, Err: err})
			continue
		}
		report.Rendered++
		atomic.AddInt64(rendered, 1)
		m.logger.Debugf("Generated frame %d of %s", frame, frames)
	}
	return report
}

func (m *Movie) renderFrame(trajectory zoom.Trajectory, renderer *render.Renderer, frame int) error {
	outfile, err := sink.Outfile(m.settings.SavePath, m.settings.Outfile, frame, m.settings.Ext)
	if err != nil {
		return err
	}
	return m.renderJob(trajectory, renderer, frame, outfile)
}

// renderJob renders one frame into a sink buffer and serializes it. The
// recover turns a panicking render or sink into an error for this frame
// alone, so a poisoned frame cannot take its range worker down.
func (m *Movie) renderJob(trajectory zoom.Trajectory, renderer *render.Renderer, frame int, outfile string) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("%w: frame %d: %v", misc.ErrWorkerFailure, frame, v)
		}
	}()

	job := task.Job{
		Frame:         frame,
		Viewport:      trajectory.ViewportAt(frame),
		Width:         m.settings.Width,
		Height:        m.settings.Height,
		MaxIterations: m.settings.MaxIterations,
		Outfile:       outfile,
	}

	frameBuffer := m.sink.Allocate(job.Width, job.Height)
	defer m.sink.Release(frameBuffer)

	if err := renderer.Render(job, frameBuffer); err != nil {
		return err
	}
	if m.settings.Label {
		caption := fmt.Sprintf("frame %d  scale %.3e", frame, trajectory.ScaleAt(frame))
		if labelErr := sink.Label(frameBuffer, caption); labelErr != nil {
			m.logger.Warningf("Skipping the label on frame %d: %s", frame, labelErr)
		}
	}
	return m.sink.Serialize(frameBuffer, job.Outfile)
}

// waitForWorkers blocks until every range worker reports back, logging
// progress on a heartbeat. A configured wait timeout turns a hung worker
// into a partial run instead of a hung process; zero means wait forever.
func (m *Movie) waitForWorkers(done <-chan struct{}, rendered *int64) bool {
	var timeout <-chan time.Time
	if m.settings.WaitTimeout > 0 {
		timer := time.NewTimer(m.settings.WaitTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-done:
			return true
		case <-heartbeat.C:
			m.logger.Infof("Progress: %d of %d frames done", atomic.LoadInt64(rendered), m.settings.Images)
		case <-timeout:
			m.logger.Errorf("Gave up waiting for range workers after %s", m.settings.WaitTimeout)
			return false
		}
	}
}

func (m *Movie) prepareSavePath() error {
	if m.settings.SavePath == "" {
		return nil
	}
	if err := os.MkdirAll(m.settings.SavePath, 0755); err != nil {
		return fmt.Errorf("%w: creating save path %s: %s", misc.ErrSinkFailure, m.settings.SavePath, err)
	}
	return nil
}
