package audiomix

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Preferences holds persistent engine configuration: output device choice,
// master volume, and memory budget ceilings. Stored as JSON at
// os.UserConfigDir()/audiomix/preferences.json.
type Preferences struct {
	OutputDeviceID      int     `json:"output_device_id"`
	MasterVolume        float32 `json:"master_volume"`
	SampleRate          int32   `json:"sample_rate"`
	BufferSize          int32   `json:"buffer_size"`
	MaxCompressedBytes  uint64  `json:"max_compressed_bytes"`
	MaxDecodedBytes     uint64  `json:"max_decoded_bytes"`
}

// DefaultPreferences returns Preferences populated with sensible defaults.
func DefaultPreferences() Preferences {
	return Preferences{
		OutputDeviceID:     -1,
		MasterVolume:       1.0,
		SampleRate:         44100,
		BufferSize:         256,
		MaxCompressedBytes: 64 * 1024 * 1024,
		MaxDecodedBytes:    8 * 1024 * 1024,
	}
}

// PreferencesPath returns the absolute path to the preferences file.
func PreferencesPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "audiomix", "preferences.json"), nil
}

// LoadPreferences reads the preferences file and returns it. If the file is
// missing or unreadable, the defaults are returned — never an error.
func LoadPreferences() Preferences {
	path, err := PreferencesPath()
	if err != nil {
		return DefaultPreferences()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultPreferences()
	}
	prefs := DefaultPreferences()
	if err := json.Unmarshal(data, &prefs); err != nil {
		return DefaultPreferences()
	}
	return prefs
}

// SavePreferences writes prefs to disk, creating the directory if needed.
func SavePreferences(prefs Preferences) error {
	path, err := PreferencesPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
