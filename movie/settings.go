package movie

import (
	"encoding/json"
	"fmt"
	"runtime"
	"strings"
	"time"

	"MandelbrotMovie/misc"
	"MandelbrotMovie/render"
	"MandelbrotMovie/zoom"
)

// Settings is the complete parameter set of one movie run.
type Settings struct {
	CenterX       float64
	CenterY       float64
	EndX          float64
	EndY          float64
	Ext           string
	FinalScale    float64
	Height        int
	Images        int
	Label         bool
	MaxIterations int
	Outfile       string
	PreviewFinal  bool
	Processes     int
	Quality       int
	SavePath      string
	Scale         float64
	Threads       int
	WaitTimeout   time.Duration
	Width         int
}

// DefaultSettings returns the classic deep zoom onto the seahorse valley,
// one frame short of the float64 floor.
func DefaultSettings() Settings {
	return Settings{
		CenterX:       -0.743643,
		CenterY:       0.131825,
		EndX:          -0.743643,
		EndY:          0.131825,
		Ext:           ".jpg",
		FinalScale:    1e-11,
		Height:        2160,
		Images:        300,
		MaxIterations: 2000,
		Outfile:       "mandel",
		Processes:     runtime.NumCPU(),
		Quality:       90,
		Scale:         4,
		Threads:       1,
		Width:         3840,
	}
}

// NewSettings loads settings from a json file laid over the defaults, so a
// settings file only has to name what it changes.
func NewSettings(settingsFile string) (Settings, error) {
	settings := DefaultSettings()

	fileBytes, err := misc.ReadFile(settingsFile)
	if err != nil {
		return settings, err
	}
	if err := json.Unmarshal(fileBytes, &settings); err != nil {
		return settings, fmt.Errorf("%w: parsing %s: %s", misc.ErrInvalidConfiguration, settingsFile, err)
	}
	return settings, settings.Verify()
}

// Verify rejects any parameter set that cannot produce a movie. Nothing is
// silently corrected; a bad value comes back as an error before any frame
// buffer is allocated or process spawned.
func (s *Settings) Verify() error {
	if s.Width < 1 || s.Height < 1 {
		return fmt.Errorf("%w: frame dimensions must be positive, got %dx%d", misc.ErrInvalidConfiguration, s.Width, s.Height)
	}
	if s.Images < 1 {
		return fmt.Errorf("%w: image count must be positive, got %d", misc.ErrInvalidConfiguration, s.Images)
	}
	if s.MaxIterations < 1 {
		return fmt.Errorf("%w: max iterations must be positive, got %d", misc.ErrInvalidConfiguration, s.MaxIterations)
	}
	if s.Processes < 1 {
		return fmt.Errorf("%w: process count must be positive, got %d", misc.ErrInvalidConfiguration, s.Processes)
	}
	if s.Threads < 1 || s.Threads > render.MaxThreads {
		return fmt.Errorf("%w: threads must be between 1 and %d, got %d", misc.ErrInvalidConfiguration, render.MaxThreads, s.Threads)
	}
	if s.Scale <= 0 {
		return fmt.Errorf("%w: scale must be positive, got %g", misc.ErrInvalidConfiguration, s.Scale)
	}
	if s.FinalScale <= 0 {
		return fmt.Errorf("%w: final scale must be positive, got %g", misc.ErrInvalidConfiguration, s.FinalScale)
	}
	if s.Outfile == "" {
		return fmt.Errorf("%w: outfile must not be empty", misc.ErrInvalidConfiguration)
	}
	switch strings.ToLower(s.Ext) {
	case ".jpg", ".jpeg", ".png":
	default:
		return fmt.Errorf("%w: ext must be .jpg, .jpeg or .png, got %q", misc.ErrInvalidConfiguration, s.Ext)
	}
	if s.Quality < 1 || s.Quality > 100 {
		return fmt.Errorf("%w: quality must be between 1 and 100, got %d", misc.ErrInvalidConfiguration, s.Quality)
	}
	if s.WaitTimeout < 0 {
		return fmt.Errorf("%w: wait timeout must not be negative, got %s", misc.ErrInvalidConfiguration, s.WaitTimeout)
	}
	return nil
}

// Trajectory builds the zoom trajectory these settings describe.
func (s *Settings) Trajectory() zoom.Trajectory {
	return zoom.Trajectory{
		CenterX:      s.CenterX,
		CenterY:      s.CenterY,
		EndX:         s.EndX,
		EndY:         s.EndY,
		InitialScale: s.Scale,
		FinalScale:   s.FinalScale,
		Width:        s.Width,
		Height:       s.Height,
		FrameCount:   s.Images,
	}
}

func (s *Settings) String() string {
	output := "Movie settings\n"
	output += fmt.Sprintf("Center X: %g\n", s.CenterX)
	output += fmt.Sprintf("Center Y: %g\n", s.CenterY)
	output += fmt.Sprintf("End X: %g\n", s.EndX)
	output += fmt.Sprintf("End Y: %g\n", s.EndY)
	output += fmt.Sprintf("Ext: %s\n", s.Ext)
	output += fmt.Sprintf("Final Scale: %g\n", s.FinalScale)
	output += fmt.Sprintf("Height: %d\n", s.Height)
	output += fmt.Sprintf("Images: %d\n", s.Images)
	output += fmt.Sprintf("Label: %t\n", s.Label)
	output += fmt.Sprintf("Max Iterations: %d\n", s.MaxIterations)
	output += fmt.Sprintf("Outfile: %s\n", s.Outfile)
	output += fmt.Sprintf("Preview Final: %t\n", s.PreviewFinal)
	output += fmt.Sprintf("Processes: %d\n", s.Processes)
	output += fmt.Sprintf("Quality: %d\n", s.Quality)
	output += fmt.Sprintf("Save Path: %s\n", s.SavePath)
	output += fmt.Sprintf("Scale: %g\n", s.Scale)
	output += fmt.Sprintf("Threads: %d\n", s.Threads)
	output += fmt.Sprintf("Wait Timeout: %s\n", s.WaitTimeout)
	output += fmt.Sprintf("Width: %d", s.Width)
	return output
}
