package worker

import (
	"encoding/json"
	"fmt"

	"MandelbrotMovie/misc"

	"github.com/BrugadaSyndrome/bslogger"
)

type Settings struct {
	logger bslogger.Logger

	CoordinatorAddress string
	Transport          string
	WorkerHost         string
}

func DefaultSettings() Settings {
	return Settings{
		logger:    bslogger.NewLogger("WorkerSettings", bslogger.Normal, nil),
		Transport: "tcp",
	}
}

func NewSettings(settingsFile string) (Settings, error) {
	settings := DefaultSettings()

	contents, err := misc.ReadFile(settingsFile)
	if err != nil {
		return settings, err
	}
	if err := json.Unmarshal(contents, &settings); err != nil {
		return settings, fmt.Errorf("%w: parsing %s: %s", misc.ErrInvalidConfiguration, settingsFile, err)
	}

	return settings, settings.Verify()
}

func (s *Settings) Verify() error {
	if s.CoordinatorAddress == "" {
		s.CoordinatorAddress = fmt.Sprintf("%s:%s", misc.GetLocalAddress(), "51000")
		s.logger.Warningf("Defaulting coordinator address to %s", s.CoordinatorAddress)
	}
	if s.Transport != "tcp" && s.Transport != "http" {
		return fmt.Errorf("%w: transport must be tcp or http, got %q", misc.ErrInvalidConfiguration, s.Transport)
	}
	if s.WorkerHost == "" {
		s.WorkerHost = misc.GetLocalAddress()
		s.logger.Warningf("Defaulting worker host to %s", s.WorkerHost)
	}
	return nil
}

func (s Settings) String() string {
	output := "Worker settings\n"
	output += fmt.Sprintf("CoordinatorAddress: %s\n", s.CoordinatorAddress)
	output += fmt.Sprintf("Transport: %s\n", s.Transport)
	output += fmt.Sprintf("WorkerHost: %s", s.WorkerHost)
	return output
}
