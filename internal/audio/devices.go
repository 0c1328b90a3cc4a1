package audio

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gordonklaus/portaudio"
)

// DefaultDeviceID selects the system default input device.
const DefaultDeviceID = "default"

// Device describes an input device.
type Device struct {
	Index      int
	Name       string
	HostAPI    string
	Channels   int
	SampleRate float64
	Default    bool
}

// InputDevices lists every device that can capture audio.
func InputDevices() ([]Device, error) {
	all, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	def, _ := portaudio.DefaultInputDevice()
	return inputDevices(all, def), nil
}

func inputDevices(all []*portaudio.DeviceInfo, def *portaudio.DeviceInfo) []Device {
	var out []Device
	for i, d := range all {
		if d.MaxInputChannels < 1 {
			continue
		}
		dev := Device{
			Index:      i,
			Name:       d.Name,
			Channels:   d.MaxInputChannels,
			SampleRate: d.DefaultSampleRate,
			Default:    def != nil && d.Name == def.Name,
		}
		if d.HostApi != nil {
			dev.HostAPI = d.HostApi.Name
		}
		out = append(out, dev)
	}
	return out
}

// FindInputDevice resolves an id to an input device. The id may be
// "default", a device index as printed by InputDevices, or a device name;
// names match case-insensitively, first exactly and then by substring.
func FindInputDevice(id string) (*portaudio.DeviceInfo, error) {
	all, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	def, _ := portaudio.DefaultInputDevice()
	return matchInputDevice(all, def, id)
}

func matchInputDevice(all []*portaudio.DeviceInfo, def *portaudio.DeviceInfo, id string) (*portaudio.DeviceInfo, error) {
	id = strings.TrimSpace(id)
	if id == "" || strings.EqualFold(id, DefaultDeviceID) {
		if def == nil {
			return nil, fmt.Errorf("%w: no default input", ErrDeviceNotFound)
		}
		return def, nil
	}

	if idx, err := strconv.Atoi(id); err == nil {
		if idx >= 0 && idx < len(all) && all[idx].MaxInputChannels > 0 {
			return all[idx], nil
		}
		return nil, fmt.Errorf("%w: index %d", ErrDeviceNotFound, idx)
	}

	for _, d := range all {
		if d.MaxInputChannels > 0 && strings.EqualFold(d.Name, id) {
			return d, nil
		}
	}
	lower := strings.ToLower(id)
	for _, d := range all {
		if d.MaxInputChannels > 0 && strings.Contains(strings.ToLower(d.Name), lower) {
			return d, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrDeviceNotFound, id)
}
