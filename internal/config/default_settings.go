package config

type defaultSettingKey uint

const (
	CAPTURE defaultSettingKey = 0x0
	WIDTH   defaultSettingKey = 0x1
	HEIGHT  defaultSettingKey = 0x2
	FPS     defaultSettingKey = 0x3
)

var defaultSettings = map[defaultSettingKey]interface{}{
	CAPTURE: "0",
	WIDTH:   640,
	HEIGHT:  360,
	FPS:     24.0,
}
