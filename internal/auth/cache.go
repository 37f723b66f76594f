package auth

import (
	"encoding/json"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

const cacheFileName = "auth.json"

// CachePath returns the credential cache location under the state directory.
func CachePath(home string) string {
	return filepath.Join(home, cacheFileName)
}

// LoadCache reads the cached credential bundle.
//
// ok is false when no usable cache exists; a missing or corrupt file is not
// an error, only unexpected I/O failures are.
func LoadCache(home string) (Bundle, bool, error) {
	data, err := os.ReadFile(CachePath(home))
	if err != nil {
		if os.IsNotExist(err) {
			return Bundle{}, false, nil
		}
		return Bundle{}, false, err
	}

	var bundle Bundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		log.Warnf("ignoring corrupt credential cache %s: %v", CachePath(home), err)
		return Bundle{}, false, nil
	}
	if len(bundle.Cookies) == 0 {
		return Bundle{}, false, nil
	}
	return bundle, true, nil
}

// SaveCache persists the credential bundle atomically with owner-only
// permissions.
func SaveCache(home string, bundle Bundle) error {
	if err := os.MkdirAll(home, 0o700); err != nil {
		return err
	}

	raw, err := json.Marshal(bundle)
	if err != nil {
		return err
	}

	path := CachePath(home)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
