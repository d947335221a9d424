package collector

import (
	"errors"
	"fmt"
)

var (
	// ErrEnumerationFailed is returned when the power-supply directory cannot be listed.
	ErrEnumerationFailed = errors.New("enumeration failed")

	// ErrDeviceReadFailed matches every *DeviceReadError.
	ErrDeviceReadFailed = errors.New("device read failed")
)

// DeviceReadError is a failed read or parse of one sensor file.
type DeviceReadError struct {
	Device string
	File   string
	Err    error
}

func (e *DeviceReadError) Error() string {
	return fmt.Sprintf("read %s/%s: %v", e.Device, e.File, e.Err)
}

func (e *DeviceReadError) Unwrap() error {
	return e.Err
}

func (e *DeviceReadError) Is(target error) bool {
	return target == ErrDeviceReadFailed
}
