package am

import (
	"os"
	"sort"
	"strings"

	"github.com/UCNot/esgen-sub001/errors"
)

// ConfigSource represents where a configuration value came from
type ConfigSource string

const (
	SourceDefault     ConfigSource = "default"
	SourceSystem      ConfigSource = "system"      // /etc/esgen/esgen.toml
	SourceUser        ConfigSource = "user"        // ~/.esgen/esgen.toml
	SourceProject     ConfigSource = "project"     // nearest esgen.toml
	SourceEnvironment ConfigSource = "environment" // ESGEN_* env vars
)

// SourceInfo tracks where a configuration value originated
type SourceInfo struct {
	Source ConfigSource // The type of config source
	Path   string       // File path or environment variable name
}

// SettingInfo contains metadata about a configuration setting
type SettingInfo struct {
	Key        string       `json:"key"`
	Value      interface{}  `json:"value"`
	Source     ConfigSource `json:"source"`
	SourcePath string       `json:"source_path,omitempty"` // File path or env var name
}

// ConfigIntrospection provides metadata about the active configuration
type ConfigIntrospection struct {
	ConfigFiles []string      `json:"config_files"` // Merged config files, lowest precedence first
	Settings    []SettingInfo `json:"settings"`     // All settings with sources
}

// GetConfigIntrospection returns detailed information about active configuration
// using the sources tracked during actual configuration loading
func GetConfigIntrospection() (*ConfigIntrospection, error) {
	if _, err := Load(); err != nil {
		return nil, errors.Wrap(err, "failed to load config for introspection")
	}

	mu.Lock()
	defer mu.Unlock()

	v := initViperLocked()
	introspection := &ConfigIntrospection{
		Settings: make([]SettingInfo, 0),
	}

	seen := make(map[string]bool)
	for _, info := range ConfigSources {
		if !seen[info.Path] {
			seen[info.Path] = true
			introspection.ConfigFiles = append(introspection.ConfigFiles, info.Path)
		}
	}
	sort.Slice(introspection.ConfigFiles, func(i, j int) bool {
		return sourceRank(introspection.ConfigFiles[i]) < sourceRank(introspection.ConfigFiles[j])
	})

	flattenSettingsWithSources(v.AllSettings(), "", introspection, ConfigSources)

	return introspection, nil
}

func sourceRank(path string) int {
	switch {
	case strings.HasPrefix(path, SystemConfigDir):
		return 0
	case path == UserConfigPath():
		return 1
	default:
		return 2
	}
}

// flattenSettingsWithSources flattens settings and assigns sources from sourceMap
func flattenSettingsWithSources(settings map[string]interface{}, prefix string, introspection *ConfigIntrospection, sourceMap map[string]SourceInfo) {
	// Sort keys for deterministic iteration
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := settings[key]
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}

		if nestedMap, ok := value.(map[string]interface{}); ok {
			flattenSettingsWithSources(nestedMap, fullKey, introspection, sourceMap)
			continue
		}

		sourceInfo := SourceInfo{Source: SourceDefault, Path: "built-in default"}
		if si, ok := sourceMap[fullKey]; ok {
			sourceInfo = si
		}

		// Environment variables override every file
		envKey := EnvKey(fullKey)
		if envValue := os.Getenv(envKey); envValue != "" {
			sourceInfo = SourceInfo{Source: SourceEnvironment, Path: envKey}
		}

		introspection.Settings = append(introspection.Settings, SettingInfo{
			Key:        fullKey,
			Value:      value,
			Source:     sourceInfo.Source,
			SourcePath: sourceInfo.Path,
		})
	}
}

// EnvKey returns the environment variable overriding key, e.g. ESGEN_EVAL_TIMEOUT_MS.
func EnvKey(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}
