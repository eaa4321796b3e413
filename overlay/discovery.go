package overlay

import (
	"sort"
)

// Discover loads every overlay document under the given directories,
// merging YAML, JSONC, and script sources into one path-sorted list.
func Discover(dirs ...string) ([]DocumentFile, error) {
	var all []DocumentFile
	for _, dir := range dirs {
		yamlDocs, err := LoadDocumentDir(dir)
		if err != nil {
			return nil, err
		}
		all = append(all, yamlDocs...)

		jsoncDocs, err := LoadJSONCDir(dir)
		if err != nil {
			return nil, err
		}
		all = append(all, jsoncDocs...)

		scriptDocs, err := LoadScriptDir(dir)
		if err != nil {
			return nil, err
		}
		all = append(all, scriptDocs...)
	}
	if len(all) == 0 {
		return nil, nil
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Path < all[j].Path })
	return all, nil
}
