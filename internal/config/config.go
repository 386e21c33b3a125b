package config

import (
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"gopkg.in/dealancer/validate.v2"
)

const (
	vendorName     = "tacusci"
	appName        = "facetrackd"
	configFileName = "config.json"
)

var ErrConfigAlreadyExists = errors.New("config file already exists")

var fs afero.Fs = afero.NewOsFs()

// Values is the full on disk configuration. Capture is the single
// source specifier token handed to the video source selector, the
// geometry fields travel opaquely to whichever backend wins selection.
type Values struct {
	Debug         bool    `json:"debug"`
	Capture       string  `json:"capture"`
	Width         int     `json:"width" validate:"gte=1"`
	Height        int     `json:"height" validate:"gte=1"`
	FPS           float64 `json:"fps" validate:"gt=0"`
	RawFrames     bool    `json:"raw_frames"`
	DirectCapture bool    `json:"direct_capture"`
}

func (v Values) RunValidate() error {
	if err := validate.Validate(&v); err != nil {
		return err
	}
	return v.Validate()
}

func (v Values) Validate() error {
	const validationErrorHeader = "validation failed: %w"
	if len(v.Capture) == 0 {
		return fmt.Errorf(validationErrorHeader, errors.New("capture specifier must not be empty"))
	}
	return nil
}

type Resolver interface {
	Resolve() (Values, error)
}

func DefaultResolver() Resolver {
	return defaultResolver{}
}

type defaultResolver struct{}

func (d defaultResolver) Resolve() (Values, error) {
	return load()
}

type Creator interface {
	Create() error
}

func DefaultCreator() Creator {
	return defaultCreator{}
}

type defaultCreator struct{}

func (d defaultCreator) Create() error {
	return create()
}
