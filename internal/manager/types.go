package manager

import "cwmanager/internal/installer"

// InstallStatus is the externally reported lifecycle stage of the backend.
type InstallStatus string

const (
	StatusUnknown      InstallStatus = "unknown"
	StatusNotInstalled InstallStatus = "not_installed"
	StatusStopped      InstallStatus = "stopped"
	StatusRunning      InstallStatus = "running"
)

// IsInstalled reports whether the backend images are present.
func (s InstallStatus) IsInstalled() bool { return s == StatusStopped || s == StatusRunning }

// IsStarted reports whether the backend is running.
func (s InstallStatus) IsStarted() bool { return s == StatusRunning }

// parseStatusToken maps an installer status token onto InstallStatus.
func parseStatusToken(tok string) (InstallStatus, bool) {
	switch tok {
	case installer.TokenUninstalled:
		return StatusNotInstalled, true
	case installer.TokenStopped:
		return StatusStopped, true
	case installer.TokenStarted:
		return StatusRunning, true
	}
	return StatusUnknown, false
}

// InstallerStatus marks an installer operation in progress. The empty value
// means no operation is running.
type InstallerStatus string

const (
	InstallerIdle         InstallerStatus = ""
	InstallerInstalling   InstallerStatus = "installing"
	InstallerUninstalling InstallerStatus = "uninstalling"
	InstallerStarting     InstallerStatus = "starting"
	InstallerStopping     InstallerStatus = "stopping"
)

// Snapshot is a read-only projection of the manager state.
type Snapshot struct {
	InstallStatus   InstallStatus
	InstallerStatus InstallerStatus
	URL             string
	Version         string
	LocalConnection bool
}

// Display is the status to present: the installer operation if one is
// running, otherwise the install status.
func (s Snapshot) Display() string {
	if s.InstallerStatus != InstallerIdle {
		return string(s.InstallerStatus)
	}
	return string(s.InstallStatus)
}
