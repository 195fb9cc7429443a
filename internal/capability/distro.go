// SPDX-License-Identifier: MPL-2.0

package capability

import (
	"bufio"
	"os"
	"strings"
)

// Family groups Linux distributions by package manager lineage.
type Family string

const (
	// FamilyDebian covers Debian, Ubuntu, Mint and other apt systems.
	FamilyDebian Family = "debian"
	// FamilyArch covers Arch, Manjaro, EndeavourOS and other pacman systems.
	FamilyArch Family = "arch"
	// FamilyFedora covers Fedora, RHEL, CentOS and other dnf systems.
	FamilyFedora Family = "fedora"
	// FamilySuse covers openSUSE and other zypper systems.
	FamilySuse Family = "suse"
	// FamilyUnknown is everything else.
	FamilyUnknown Family = "unknown"
)

// IsValid checks if the Family is one of the defined values.
func (f Family) IsValid() (bool, []error) {
	switch f {
	case FamilyDebian, FamilyArch, FamilyFedora, FamilySuse, FamilyUnknown:
		return true, nil
	default:
		return false, []error{&InvalidFamilyError{Value: string(f)}}
	}
}

// String returns the string representation of the Family.
func (f Family) String() string { return string(f) }

// InvalidFamilyError is returned by Family.IsValid for undefined values.
type InvalidFamilyError struct {
	Value string
}

// Error implements the error interface for InvalidFamilyError.
func (e *InvalidFamilyError) Error() string {
	return "invalid distribution family: " + e.Value
}

// familyIDs maps os-release ID and ID_LIKE tokens to families.
var familyIDs = map[string]Family{
	"debian":              FamilyDebian,
	"ubuntu":              FamilyDebian,
	"linuxmint":           FamilyDebian,
	"pop":                 FamilyDebian,
	"arch":                FamilyArch,
	"manjaro":             FamilyArch,
	"endeavouros":         FamilyArch,
	"fedora":              FamilyFedora,
	"rhel":                FamilyFedora,
	"centos":              FamilyFedora,
	"rocky":               FamilyFedora,
	"almalinux":           FamilyFedora,
	"opensuse":            FamilySuse,
	"suse":                FamilySuse,
	"opensuse-tumbleweed": FamilySuse,
	"opensuse-leap":       FamilySuse,
}

// DetectFamily reads os-release and classifies the distribution. The ID
// field is consulted first, then each ID_LIKE token in order. A distribution
// outside the known families keeps its raw ID so it can still be displayed;
// only an unreadable file or a missing ID classifies as FamilyUnknown.
func (p *Prober) DetectFamily() Family {
	path := p.OSReleasePath
	if path == "" {
		path = "/etc/os-release"
	}

	f, err := os.Open(path)
	if err != nil {
		return FamilyUnknown
	}
	defer f.Close()

	var id string
	var idLike []string

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		value = strings.Trim(value, `"'`)

		switch key {
		case "ID":
			id = strings.ToLower(value)
		case "ID_LIKE":
			idLike = strings.Fields(strings.ToLower(value))
		}
	}

	if fam, ok := familyIDs[id]; ok {
		return fam
	}
	for _, like := range idLike {
		if fam, ok := familyIDs[like]; ok {
			return fam
		}
	}
	if id != "" {
		return Family(id)
	}

	return FamilyUnknown
}
