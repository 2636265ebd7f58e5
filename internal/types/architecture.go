package types

import (
	"fmt"
	"runtime"
)

type Architecture string

const (
	Architecture32Bit Architecture = "32bit"
	Architecture64Bit Architecture = "64bit"
	ArchitectureArm64 Architecture = "arm64"
)

var Architectures = []Architecture{Architecture32Bit, Architecture64Bit, ArchitectureArm64}

func ParseArchitecture(value string) (Architecture, error) {
	switch value {
	case "32bit", "386", "x86":
		return Architecture32Bit, nil
	case "64bit", "amd64", "x64", "x86_64":
		return Architecture64Bit, nil
	case "arm64", "aarch64":
		return ArchitectureArm64, nil
	default:
		return "", fmt.Errorf("unsupported architecture %q", value)
	}
}

// HostArchitecture maps the running GOARCH to a manifest architecture key.
func HostArchitecture() Architecture {
	switch runtime.GOARCH {
	case "386":
		return Architecture32Bit
	case "arm64":
		return ArchitectureArm64
	default:
		return Architecture64Bit
	}
}
