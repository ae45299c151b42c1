package coordinator

import (
	"encoding/json"
	"fmt"

	"MandelbrotMovie/misc"
	"MandelbrotMovie/movie"

	"github.com/BrugadaSyndrome/bslogger"
)

// Settings configures a render farm coordinator: the movie to produce plus
// how to serve its frames out to workers.
type Settings struct {
	logger bslogger.Logger

	LeaseSize     int
	Movie         movie.Settings
	ServerAddress string
	Transport     string
}

func DefaultSettings() Settings {
	return Settings{
		logger:    bslogger.NewLogger("CoordinatorSettings", bslogger.Normal, nil),
		LeaseSize: 5,
		Movie:     movie.DefaultSettings(),
		Transport: "tcp",
	}
}

func NewSettings(settingsFile string) (Settings, error) {
	settings := DefaultSettings()

	fileBytes, err := misc.ReadFile(settingsFile)
	if err != nil {
		return settings, err
	}
	if err := json.Unmarshal(fileBytes, &settings); err != nil {
		return settings, fmt.Errorf("%w: parsing %s: %s", misc.ErrInvalidConfiguration, settingsFile, err)
	}
	if err := settings.Verify(); err != nil {
		return settings, err
	}
	settings.logger.Debug(settings.String())
	return settings, nil
}

func (s *Settings) Verify() error {
	if err := s.Movie.Verify(); err != nil {
		return err
	}
	if s.LeaseSize < 1 {
		return fmt.Errorf("%w: lease size must be positive, got %d", misc.ErrInvalidConfiguration, s.LeaseSize)
	}
	switch s.Transport {
	case "tcp", "http":
	default:
		return fmt.Errorf("%w: transport must be tcp or http, got %q", misc.ErrInvalidConfiguration, s.Transport)
	}
	if s.ServerAddress == "" {
		s.ServerAddress = fmt.Sprintf("%s:%s", misc.GetLocalAddress(), "51000")
		s.logger.Warningf("Defaulting server address to %s", s.ServerAddress)
	}
	return nil
}

func (s *Settings) String() string {
	output := "Coordinator settings\n"
	output += fmt.Sprintf("Lease Size: %d\n", s.LeaseSize)
	output += fmt.Sprintf("Server Address: %s\n", s.ServerAddress)
	output += fmt.Sprintf("Transport: %s\n", s.Transport)
	output += s.Movie.String()
	return output
}
