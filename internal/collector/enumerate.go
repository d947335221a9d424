package collector

import (
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strings"
)

// BatteryType is the type file contents of a battery device.
const BatteryType = "Battery"

// Batteries lists root and returns a sequence of the entries whose type
// file reads "Battery", in directory order. The listing happens up front so
// a missing root is reported immediately; classification happens lazily
// while iterating. Call it again on every poll since batteries can be
// hot-plugged.
func Batteries(root string) (iter.Seq[string], error) {
	ids, err := DeviceIDs(root)
	if err != nil {
		return nil, err
	}

	return func(yield func(string) bool) {
		for _, id := range ids {
			if !IsBattery(root, id) {
				continue
			}
			if !yield(id) {
				return
			}
		}
	}, nil
}

// Classify returns the trimmed contents of a device's type file.
// Entries are usually symlinks into /sys/devices, so they are not
// filtered by file mode.
func Classify(root, id string) (string, error) {
	data, err := os.ReadFile(filepath.Join(root, id, "type"))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// IsBattery reports whether the device is a battery. A device without a
// readable type file is treated as not a battery.
func IsBattery(root, id string) bool {
	typ, err := Classify(root, id)
	return err == nil && typ == BatteryType
}

// DeviceIDs lists every power-supply entry under root regardless of type.
// Names come back in the order the filesystem returns them, not sorted.
func DeviceIDs(root string) ([]string, error) {
	f, err := os.Open(root)
	if err != nil {
		return nil, fmt.Errorf("%w: list %s: %v", ErrEnumerationFailed, root, err)
	}
	defer f.Close()

	ids, err := f.Readdirnames(-1)
	if err != nil {
		return nil, fmt.Errorf("%w: list %s: %v", ErrEnumerationFailed, root, err)
	}
	return ids, nil
}
