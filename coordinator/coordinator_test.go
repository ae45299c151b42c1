package coordinator

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"MandelbrotMovie/misc"
	"MandelbrotMovie/movie"
	"MandelbrotMovie/sink"
	"MandelbrotMovie/worker"
)

func testSettings(t *testing.T) Settings {
	t.Helper()

	port, err := misc.GetFreePort()
	if err != nil {
		t.Fatalf("finding a free port: %s", err)
	}

	settings := DefaultSettings()
	settings.LeaseSize = 2
	settings.ServerAddress = fmt.Sprintf("127.0.0.1:%d", port)
	settings.Movie = movie.Settings{
		CenterX:       -0.743643,
		CenterY:       0.131825,
		EndX:          -0.743643,
		EndY:          0.131825,
		Ext:           ".png",
		FinalScale:    1e-3,
		Height:        30,
		Images:        6,
		MaxIterations: 30,
		Outfile:       "farm",
		Processes:     1,
		Quality:       90,
		SavePath:      t.TempDir(),
		Scale:         4,
		Threads:       2,
		Width:         40,
	}
	return settings
}

// One coordinator and one worker over loopback tcp, start to finish.
func TestFarmRendersEveryFrame(t *testing.T) {
	settings := testSettings(t)
	savePath := settings.Movie.SavePath

	coordinator, err := NewCoordinator(settings)
	if err != nil {
		t.Fatalf("starting coordinator: %s", err)
	}

	farmhand, err := worker.NewWorker(worker.Settings{
		CoordinatorAddress: settings.ServerAddress,
		Transport:          "tcp",
		WorkerHost:         "127.0.0.1",
	})
	if err != nil {
		t.Fatalf("starting worker: %s", err)
	}

	select {
	case <-coordinator.Finished:
	case <-time.After(30 * time.Second):
		t.Fatal("farm did not finish in time")
	}
	if coordinator.RunError != nil {
		t.Fatalf("run failed: %s", coordinator.RunError)
	}
	farmhand.Server.Wait()

	// The same movie rendered locally has to come out byte for byte
	// identical, the farm only moves the work around.
	localSettings := settings.Movie
	localSettings.SavePath = t.TempDir()
	local, err := movie.NewMovie(localSettings, sink.NewFileSink(localSettings.Quality))
	if err != nil {
		t.Fatalf("starting local run: %s", err)
	}
	if _, err := local.Run(); err != nil {
		t.Fatalf("local run failed: %s", err)
	}

	for frame := 0; frame < settings.Movie.Images; frame++ {
		name := fmt.Sprintf("farm%d.png", frame)
		contents, err := os.ReadFile(filepath.Join(savePath, name))
		if err != nil {
			t.Fatalf("frame %d: %s", frame, err)
		}
		img, err := png.Decode(bytes.NewReader(contents))
		if err != nil {
			t.Fatalf("frame %d did not decode: %s", frame, err)
		}
		bounds := img.Bounds()
		if bounds.Dx() != settings.Movie.Width || bounds.Dy() != settings.Movie.Height {
			t.Errorf("frame %d is %dx%d, want %dx%d",
				frame, bounds.Dx(), bounds.Dy(), settings.Movie.Width, settings.Movie.Height)
		}

		localContents, err := os.ReadFile(filepath.Join(localSettings.SavePath, name))
		if err != nil {
			t.Fatalf("local frame %d: %s", frame, err)
		}
		if !bytes.Equal(contents, localContents) {
			t.Errorf("frame %d differs between the farm and the local run", frame)
		}
	}

	if _, err := os.Stat(filepath.Join(savePath, "run_settings.json")); err != nil {
		t.Errorf("settings copy missing from save path: %s", err)
	}
	if _, err := os.Stat(filepath.Join(savePath, "coordinator.log")); err != nil {
		t.Errorf("log file missing from save path: %s", err)
	}
}

func TestFarmSharesFramesBetweenWorkers(t *testing.T) {
	settings := testSettings(t)
	settings.Movie.Images = 8
	settings.Movie.Threads = 1
	savePath := settings.Movie.SavePath

	coordinator, err := NewCoordinator(settings)
	if err != nil {
		t.Fatalf("starting coordinator: %s", err)
	}

	workerSettings := worker.Settings{
		CoordinatorAddress: settings.ServerAddress,
		Transport:          "tcp",
		WorkerHost:         "127.0.0.1",
	}
	first, err := worker.NewWorker(workerSettings)
	if err != nil {
		t.Fatalf("starting first worker: %s", err)
	}
	second, err := worker.NewWorker(workerSettings)
	if err != nil {
		t.Fatalf("starting second worker: %s", err)
	}

	select {
	case <-coordinator.Finished:
	case <-time.After(30 * time.Second):
		t.Fatal("farm did not finish in time")
	}
	if coordinator.RunError != nil {
		t.Fatalf("run failed: %s", coordinator.RunError)
	}
	first.Server.Wait()
	second.Server.Wait()

	for frame := 0; frame < settings.Movie.Images; frame++ {
		path := filepath.Join(savePath, fmt.Sprintf("farm%d.png", frame))
		if _, err := os.Stat(path); err != nil {
			t.Errorf("frame %d missing: %s", frame, err)
		}
	}
}

func TestSettingsVerify(t *testing.T) {
	tests := []struct {
		name  string
		wreck func(settings *Settings)
	}{
		{"lease size zero", func(s *Settings) { s.LeaseSize = 0 }},
		{"lease size negative", func(s *Settings) { s.LeaseSize = -3 }},
		{"unknown transport", func(s *Settings) { s.Transport = "carrier pigeon" }},
		{"movie settings broken", func(s *Settings) { s.Movie.Width = 0 }},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			settings := testSettings(t)
			test.wreck(&settings)
			err := settings.Verify()
			if !errors.Is(err, misc.ErrInvalidConfiguration) {
				t.Fatalf("got %v, want an invalid configuration error", err)
			}
		})
	}
}
