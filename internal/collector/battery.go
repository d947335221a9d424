package collector

import (
	"errors"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	powerNowFile   = "power_now"
	currentNowFile = "current_now"
	voltageNowFile = "voltage_now"
	statusFile     = "status"
)

// ReadBattery reads the power state of the battery at root/id.
//
// power_now is preferred. If it is absent, power is derived from
// current_now and voltage_now. If neither is available the reading has
// SourceNone and no error. A metric file that exists but cannot be read
// or parsed yields Err; there is no fallback after a failed read.
func ReadBattery(root, id string) Reading {
	dir := filepath.Join(root, id)
	r := Reading{Sample: BatterySample{DeviceID: id}}

	switch {
	case fileExists(filepath.Join(dir, powerNowFile)):
		uw, err := readIntFile(filepath.Join(dir, powerNowFile))
		if err != nil {
			r.Err = &DeviceReadError{Device: id, File: powerNowFile, Err: err}
			return r
		}
		r.Source = SourcePowerNow
		r.RawPowerUW = uw
		r.Sample.PowerWatts = roundTenth(math.Abs(float64(uw)) / 1e6)

	case fileExists(filepath.Join(dir, currentNowFile)) && fileExists(filepath.Join(dir, voltageNowFile)):
		ua, err := readIntFile(filepath.Join(dir, currentNowFile))
		if err != nil {
			r.Err = &DeviceReadError{Device: id, File: currentNowFile, Err: err}
			return r
		}
		uv, err := readIntFile(filepath.Join(dir, voltageNowFile))
		if err != nil {
			r.Err = &DeviceReadError{Device: id, File: voltageNowFile, Err: err}
			return r
		}
		r.Source = SourceCurrentVoltage
		r.RawCurrentUA = ua
		r.RawVoltageUV = uv
		// Multiply in float64: µA*µV stays exact well past any real battery.
		r.Sample.PowerWatts = roundTenth(math.Abs(float64(ua)*float64(uv)) / 1e12)

	default:
		return r
	}

	r.Sample.Direction = readDirection(filepath.Join(dir, statusFile))
	return r
}

// ParseDirection maps a status file's contents to a Direction.
func ParseDirection(status string) Direction {
	switch strings.TrimSpace(status) {
	case "Charging":
		return Charging
	case "Discharging":
		return Discharging
	case "Full", "":
		return Idle
	default:
		return Unknown
	}
}

func readDirection(path string) Direction {
	data, err := os.ReadFile(path)
	if err != nil {
		return Unknown
	}
	return ParseDirection(string(data))
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, fs.ErrNotExist)
}

func readIntFile(path string) (int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
}
