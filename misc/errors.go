package misc

import (
	"errors"

	"github.com/BrugadaSyndrome/bslogger"
)

const (
	Fatal Severity = iota
	Error
	Warning
	Info
	Debug
)

type Severity int

func (s Severity) String() string {
	return []string{
		"Fatal", "Error", "Warning", "Info", "Debug",
	}[s]
}

// Error kinds shared across the renderer. Wrap them with fmt.Errorf("...: %w", err)
// so callers can sort failures with errors.Is.
var (
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrFilenameOverflow     = errors.New("output filename too long")
	ErrWorkerFailure        = errors.New("worker failure")
	ErrSinkFailure          = errors.New("image sink failure")
)

func CheckError(err error, logger bslogger.Logger, severity Severity) {
	if err != nil {
		switch severity {
		case Fatal:
			logger.Fatal(err.Error())
		case Error:
			logger.Error(err.Error())
		case Warning:
			logger.Warning(err.Error())
		case Info:
			logger.Info(err.Error())
		case Debug:
			logger.Debug(err.Error())
		default:
			logger.Fatal(err.Error())
		}
	}
}
