// Package manager tracks the install and run state of the local Codewind
// backend and owns the single shared local connection. It is structured into
// small files by concern:
//
//   - manager.go: core Manager type, constructor, simple getters.
//   - config.go: ManagerConfig and package defaults; NewWithConfig applies defaults.
//   - types.go: InstallStatus, InstallerStatus and the Snapshot projection.
//   - errors.go: error values and helpers (IsBusy, IsNotInstalled, ...).
//   - events.go: Observer, Event and subscription fan-out.
//   - observer_memory.go: MemoryObserver, an Observer that records events.
//   - status.go: InstallStatus queries, URL and version caching.
//   - local.go: creation and removal of the local connection.
//   - apps.go: Refresh and HasActiveApplications across the registry.
//   - ops.go: installer operations (Start, Stop, Install, Uninstall) and
//     EnsureLocalConnection.
//   - poll.go: caller-driven status polling with backoff.
//   - metrics.go: Prometheus collectors.
//
// Status queries block on the installer and the backend; callers run them off
// any latency-sensitive goroutine. Failures never escape as errors from the
// query methods: an unreachable or confused installer reads as StatusUnknown
// and a failed version fetch reads as "".
package manager
