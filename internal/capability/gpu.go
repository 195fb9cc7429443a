// SPDX-License-Identifier: MPL-2.0

package capability

import (
	"context"
	"strings"

	"pstux/internal/execx"
)

// GPUVendor identifies the graphics adapter vendor.
type GPUVendor string

const (
	// VendorNVIDIA marks NVIDIA adapters.
	VendorNVIDIA GPUVendor = "nvidia"
	// VendorAMD marks AMD and ATI adapters.
	VendorAMD GPUVendor = "amd"
	// VendorIntel marks Intel adapters.
	VendorIntel GPUVendor = "intel"
	// VendorUnknown is returned when no adapter could be classified.
	VendorUnknown GPUVendor = "unknown"
)

// String returns the string representation of the GPUVendor.
func (v GPUVendor) String() string { return string(v) }

// GPU is one display adapter: the classified vendor and the human-readable
// device name lspci printed for it.
type GPU struct {
	Vendor GPUVendor
	Name   string
}

// DetectGPUs lists the display adapters by parsing lspci output. Every
// display-class device is returned, including ones whose vendor could not
// be classified. Absence of lspci or a failed run yields an empty list.
func DetectGPUs(ctx context.Context, inv execx.Invoker) []GPU {
	res, err := inv.Run(ctx, execx.Spec{Argv: []string{"lspci"}})
	if err != nil || res.ExitCode != 0 {
		return nil
	}

	return parseAdapters(res.Output)
}

func parseAdapters(lspci string) []GPU {
	var gpus []GPU
	for _, line := range strings.Split(lspci, "\n") {
		lower := strings.ToLower(line)
		if !strings.Contains(lower, "vga compatible controller") &&
			!strings.Contains(lower, "3d controller") &&
			!strings.Contains(lower, "display controller") {
			continue
		}

		// "01:00.0 VGA compatible controller: NVIDIA Corporation GA104".
		// The device name follows the class description.
		name := strings.TrimSpace(line)
		if _, rest, ok := strings.Cut(line, ": "); ok {
			name = strings.TrimSpace(rest)
		}
		gpus = append(gpus, GPU{Vendor: classifyAdapter(lower), Name: name})
	}

	return gpus
}

func classifyAdapter(lower string) GPUVendor {
	switch {
	case strings.Contains(lower, "nvidia"):
		return VendorNVIDIA
	case strings.Contains(lower, "amd"), strings.Contains(lower, "ati"), strings.Contains(lower, "radeon"):
		return VendorAMD
	case strings.Contains(lower, "intel"):
		return VendorIntel
	default:
		return VendorUnknown
	}
}

// PrimaryVendor picks the adapter that recommendations should target: the
// first classified one, VendorUnknown when nothing classified.
func PrimaryVendor(gpus []GPU) GPUVendor {
	for _, g := range gpus {
		if g.Vendor != VendorUnknown {
			return g.Vendor
		}
	}
	return VendorUnknown
}

// driverPackages maps vendor and family to the driver package worth
// suggesting for GPU acceleration inside the prefix.
var driverPackages = map[GPUVendor]map[Family]string{
	VendorNVIDIA: {
		FamilyDebian: "nvidia-driver",
		FamilyArch:   "nvidia nvidia-utils lib32-nvidia-utils",
		FamilyFedora: "akmod-nvidia",
		FamilySuse:   "nvidia-video-G06",
	},
	VendorAMD: {
		FamilyDebian: "mesa-vulkan-drivers",
		FamilyArch:   "vulkan-radeon lib32-vulkan-radeon",
		FamilyFedora: "mesa-vulkan-drivers",
		FamilySuse:   "libvulkan_radeon",
	},
	VendorIntel: {
		FamilyDebian: "mesa-vulkan-drivers",
		FamilyArch:   "vulkan-intel lib32-vulkan-intel",
		FamilyFedora: "mesa-vulkan-drivers",
		FamilySuse:   "libvulkan_intel",
	},
}

// Recommendations returns human guidance for the detected adapter on the
// detected family. Unknown combinations yield generic advice rather than
// nothing.
func Recommendations(vendor GPUVendor, family Family) []string {
	var recs []string

	switch vendor {
	case VendorNVIDIA:
		recs = append(recs, "NVIDIA adapter detected. The proprietary driver gives the best Direct3D translation performance.")
	case VendorAMD:
		recs = append(recs, "AMD adapter detected. Recent Mesa with Vulkan support is recommended.")
	case VendorIntel:
		recs = append(recs, "Intel adapter detected. Integrated graphics work but large documents may be slow.")
	default:
		recs = append(recs, "No display adapter could be classified. Software rendering will be used, expect degraded performance.")
		return recs
	}

	if pkg, ok := driverPackages[vendor][family]; ok {
		recs = append(recs, "Suggested driver package: "+pkg)
	} else {
		recs = append(recs, "Install your distribution's Vulkan-capable driver for this adapter.")
	}

	return recs
}
