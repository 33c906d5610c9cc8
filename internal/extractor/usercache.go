package extractor

import (
	"encoding/json"
	"os"
)

// usercacheEntry is one record of the server's usercache.json.
type usercacheEntry struct {
	Name string `json:"name"`
	UUID string `json:"uuid"`
}

// LoadUsercache reads the server usercache.json and returns a UUID to
// player name mapping. A missing or corrupt file degrades to an empty
// map; name resolution is best effort and never blocks an extraction run.
func LoadUsercache(path string) map[string]string {
	cache := make(map[string]string)

	data, err := os.ReadFile(path)
	if err != nil {
		return cache
	}

	var entries []usercacheEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return cache
	}

	for _, e := range entries {
		if e.UUID != "" && e.Name != "" {
			cache[e.UUID] = e.Name
		}
	}
	return cache
}
