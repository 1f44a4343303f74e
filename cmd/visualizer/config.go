package main

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
	"github.com/rotisserie/eris"

	"github.com/cybre/aurora-visualizer/internal/scene"
	"github.com/cybre/aurora-visualizer/internal/ui"
)

func selectDeviceAndScene(
	devices []*portaudio.DeviceInfo,
	sceneIDs []scene.ID,
	defaultDeviceIndex int,
	opts runtimeOptions,
) (*portaudio.DeviceInfo, scene.ID, error) {
	if len(devices) == 0 {
		return nil, "", eris.New("no input devices available")
	}
	if len(sceneIDs) == 0 {
		return nil, "", eris.New("no scene variants registered")
	}

	var (
		selectedDevice *portaudio.DeviceInfo
		selectedScene  scene.ID
		deviceIndex    = -1
		sceneIndex     = 0
	)

	if opts.deviceIndex >= 0 {
		if opts.deviceIndex >= len(devices) {
			return nil, "", eris.Errorf("invalid device index %d", opts.deviceIndex)
		}
		selectedDevice = devices[opts.deviceIndex]
		deviceIndex = opts.deviceIndex
	}
	if opts.sceneID != "" {
		idx := sceneIndexOf(sceneIDs, scene.ID(opts.sceneID))
		if idx < 0 {
			return nil, "", eris.Errorf("unknown scene variant %q", opts.sceneID)
		}
		selectedScene = sceneIDs[idx]
		sceneIndex = idx
	}

	needDevice := selectedDevice == nil
	needScene := selectedScene == ""

	if !needDevice && !needScene {
		return selectedDevice, selectedScene, nil
	}

	initialDevice := effectiveInitialDeviceIndex(deviceIndex, defaultDeviceIndex, len(devices))

	result, err := ui.RunSetup(
		buildDeviceOptions(devices),
		buildSceneOptions(sceneIDs),
		ui.SetupConfig{
			RequireDevice: needDevice,
			RequireScene:  needScene,
			InitialDevice: initialDevice,
			InitialScene:  sceneIndex,
		},
	)
	if err != nil {
		if eris.Is(err, ui.ErrNoInteractiveTTY) {
			if needDevice {
				selectedDevice = devices[initialDevice]
			}
			if needScene {
				selectedScene = sceneIDs[sceneIndex]
			}
			return selectedDevice, selectedScene, nil
		}
		return nil, "", err
	}

	if needDevice {
		selectedDevice = devices[result.DeviceIndex]
	}
	selectedScene = sceneIDs[result.SceneIndex]

	return selectedDevice, selectedScene, nil
}

func buildDeviceOptions(devices []*portaudio.DeviceInfo) []ui.Option {
	options := make([]ui.Option, len(devices))
	for i, dev := range devices {
		options[i] = ui.Option{
			Label: fmt.Sprintf(
				"[%d] %s · %.0fHz · in:%d · latency:%.1fms",
				i,
				dev.Name,
				dev.DefaultSampleRate,
				dev.MaxInputChannels,
				dev.DefaultLowInputLatency.Seconds()*1000,
			),
		}
	}
	return options
}

func buildSceneOptions(ids []scene.ID) []ui.Option {
	options := make([]ui.Option, len(ids))
	for i, id := range ids {
		options[i] = ui.Option{
			Label: fmt.Sprintf("[%d] %s", i+1, id),
		}
	}
	return options
}

func sceneIndexOf(ids []scene.ID, id scene.ID) int {
	for i, candidate := range ids {
		if candidate == id {
			return i
		}
	}
	return -1
}

func effectiveInitialDeviceIndex(requested, fallback, length int) int {
	if length == 0 {
		return 0
	}
	if requested >= 0 && requested < length {
		return requested
	}
	if fallback >= 0 && fallback < length {
		return fallback
	}
	return 0
}

func sanitizeChannelCount(requested, max int) int {
	if requested <= 0 {
		return 1
	}

	if max > 0 && requested > max {
		return max
	}

	return requested
}
