package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/tauraamui/facetrackd/pkg/log"
	"github.com/tauraamui/xerror"
)

func load() (Values, error) {
	configPath, err := resolveConfigPath()
	if err != nil {
		return Values{}, err
	}

	log.Info("Resolved config file location: %s", configPath)
	file, err := readConfigFile(configPath)
	if err != nil {
		return Values{}, err
	}

	var values Values
	if err := unmarshal(file, &values); err != nil {
		return Values{}, err
	}

	loadDefaultCaptureSettings(&values)

	if err = values.RunValidate(); err != nil {
		return Values{}, err
	}

	return values, nil
}

// loadDefaultCaptureSettings fills any capture field the config file
// left unset. Validation runs against the filled values, so a config
// with no geometry at all is still acceptable.
func loadDefaultCaptureSettings(values *Values) {
	if len(values.Capture) == 0 {
		values.Capture = defaultSettings[CAPTURE].(string)
	}
	if values.Width == 0 {
		values.Width = defaultSettings[WIDTH].(int)
	}
	if values.Height == 0 {
		values.Height = defaultSettings[HEIGHT].(int)
	}
	if values.FPS == 0 {
		values.FPS = defaultSettings[FPS].(float64)
	}
}

var readConfigFile = func(path string) ([]byte, error) {
	return afero.ReadFile(fs, path)
}

func unmarshal(content []byte, values *Values) error {
	err := json.Unmarshal(content, values)
	if err != nil {
		return errors.Errorf("parsing configuration error: %v", err)
	}
	return nil
}

func resolveConfigPath() (string, error) {
	configPath := os.Getenv("FACETRACKD_CONFIG")
	if len(configPath) > 0 {
		return configPath, nil
	}

	configParentDir, err := userConfigDir()
	if err != nil {
		return "", xerror.Errorf("unable to resolve %s location: %w", configFileName, err)
	}

	return filepath.Join(
		configParentDir,
		vendorName,
		appName,
		configFileName), nil
}

var userConfigDir = func() (string, error) {
	return os.UserConfigDir()
}
