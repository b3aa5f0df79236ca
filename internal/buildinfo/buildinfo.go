// Package buildinfo reports which guidecast build produced a guide
// document; the version string is stamped into every saved document and
// shown by the version command.
package buildinfo

import "runtime/debug"

var version = "dev"

// SetVersion overrides the reported version. Release builds set it via
// -ldflags; a module-aware `go install` works without it.
func SetVersion(v string) {
	if v == "" {
		return
	}
	version = v
}

// Version prefers the linker-set version, then the module version, then
// the VCS revision the toolchain recorded.
func Version() string {
	if version != "dev" {
		return version
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return version
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		return v
	}
	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" && len(setting.Value) >= 12 {
			return "dev-" + setting.Value[:12]
		}
	}
	return version
}
