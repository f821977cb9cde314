// Package version provides build- and run-time version information of
// the plug-in.
package version

import (
	"encoding/json"
	"fmt"
	"runtime"
)

// Populated at build time with `-ldflags -X`; empty in a plain build.
var (
	pluginVersion string
	gitCommit     string
	buildDate     string
)

// A VersionInfo represents build- and run-time version information of
// the plug-in.
type VersionInfo struct {
	PluginVersion string `json:"pluginVersion"`
	GitCommit     string `json:"gitCommit"`
	BuildDate     string `json:"buildDate"`
	GoVersion     string `json:"goVersion"`
	Compiler      string `json:"compiler"`
	Platform      string `json:"platform"`
}

// GetVersion returns a `VersionInfo`.
func GetVersion() VersionInfo {
	return VersionInfo{
		PluginVersion: pluginVersion,
		GitCommit:     gitCommit,
		BuildDate:     buildDate,
		GoVersion:     runtime.Version(),
		Compiler:      runtime.Compiler,
		Platform:      fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// GetVersionJSON returns JSON string representation of `VersionInfo`.
func GetVersionJSON() (string, error) {
	info := GetVersion()
	marshalled, err := json.MarshalIndent(&info, "", "  ")
	if err != nil {
		return "", err
	}
	return string(marshalled), nil
}
