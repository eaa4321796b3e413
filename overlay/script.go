package overlay

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
	"gopkg.in/yaml.v3"
)

const scriptFuncName = "Overlays"

// LoadScriptDir evaluates every .go file in dir and collects overlays
// declared via Overlays(). Scripts let authors compute set values instead of
// writing them out literally.
func LoadScriptDir(dir string) ([]DocumentFile, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(trimmed)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("overlay: read %s: %w", trimmed, err)
	}
	var docs []DocumentFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if filepath.Ext(entry.Name()) != ".go" {
			continue
		}
		fileDocs, err := loadScriptFile(filepath.Join(trimmed, entry.Name()))
		if err != nil {
			return nil, err
		}
		docs = append(docs, fileDocs...)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	return docs, nil
}

func loadScriptFile(path string) ([]DocumentFile, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("overlay: read %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(code))) == 0 {
		return nil, fmt.Errorf("overlay: %s is empty", path)
	}
	i := interp.New(interp.Options{})
	i.Use(stdlib.Symbols)
	if _, err := i.EvalPath(path); err != nil {
		return nil, fmt.Errorf("overlay: interpret %s: %w", path, err)
	}
	fnValue, err := i.Eval(scriptFuncName)
	if err != nil {
		return nil, fmt.Errorf("overlay: %s must define %s() ([]map[string]any, error): %w", path, scriptFuncName, err)
	}
	raws, callErr := invokeScriptFunc(fnValue)
	if callErr != nil {
		return nil, fmt.Errorf("overlay: %s: %w", path, callErr)
	}
	docs := make([]DocumentFile, 0, len(raws))
	for idx, raw := range raws {
		payload, err := yaml.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("overlay: %s overlay[%d]: %w", path, idx, err)
		}
		parsed, err := ParseDocumentYAML(payload)
		if err != nil {
			return nil, fmt.Errorf("overlay: %s overlay[%d]: %w", path, idx, err)
		}
		docs = append(docs, DocumentFile{Document: parsed, Path: fmt.Sprintf("%s#%d", path, idx+1)})
	}
	return docs, nil
}

func invokeScriptFunc(value reflect.Value) ([]map[string]any, error) {
	if !value.IsValid() {
		return nil, fmt.Errorf("missing %s function", scriptFuncName)
	}
	fn := value
	if fn.Kind() != reflect.Func {
		return nil, fmt.Errorf("%s is not a function", scriptFuncName)
	}
	results := fn.Call(nil)
	if len(results) == 0 || len(results) > 2 {
		return nil, fmt.Errorf("%s must return ([]map[string]any[, error])", scriptFuncName)
	}
	docsVal := results[0]
	if len(results) == 2 {
		if !results[1].IsNil() {
			if e, ok := results[1].Interface().(error); ok && e != nil {
				return nil, e
			}
			return nil, fmt.Errorf("%s returned non-error second value", scriptFuncName)
		}
	}
	docs, ok := docsVal.Interface().([]map[string]any)
	if ok {
		return docs, nil
	}
	if docsVal.Kind() == reflect.Slice {
		result := make([]map[string]any, docsVal.Len())
		for i := 0; i < docsVal.Len(); i++ {
			entry := docsVal.Index(i).Interface()
			m, ok := entry.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%s[%d] is not map[string]any", scriptFuncName, i)
			}
			result[i] = m
		}
		return result, nil
	}
	return nil, fmt.Errorf("%s must return []map[string]any", scriptFuncName)
}
