package installer

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Type is the installer package format, it decides how the silent install is invoked
type Type struct {
	name string
	ext  string
}

var (
	// TypeExe is an NSIS setup executable, "/S" runs it unattended
	TypeExe = Type{name: "EXE", ext: ".exe"}
	// TypeMSI is a Windows Installer package run through msiexec
	TypeMSI = Type{name: "MSI", ext: ".msi"}
)

func (t Type) String() string {
	return t.name
}

// command returns the program and arguments of the unattended invocation
func (t Type) command(installerPath string) (string, []string) {
	if t == TypeMSI {
		logPath := filepath.Join(filepath.Dir(installerPath), "msi.log")
		return "msiexec.exe", []string{"/i", filepath.Base(installerPath), "/quiet", "/qn", "/norestart", "/l*v", logPath}
	}
	return installerPath, []string{SilentFlag}
}

// TypeByFileExtension picks the installer type from the artifact file name
func TypeByFileExtension(filePath string) (Type, error) {
	switch {
	case strings.HasSuffix(strings.ToLower(filePath), TypeExe.ext):
		return TypeExe, nil
	case strings.HasSuffix(strings.ToLower(filePath), TypeMSI.ext):
		return TypeMSI, nil
	default:
		return Type{}, fmt.Errorf("unsupported installer type for file: %s", filePath)
	}
}
