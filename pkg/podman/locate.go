package podman

import (
	"os"
	osexec "os/exec"
	"path/filepath"
	"runtime"
)

// Default binary names for the engine and the compose orchestrator.
const (
	EngineBinary  = "podman"
	ComposeBinary = "podman-compose"
)

// windowsInstallPaths lists the well-known podman install locations checked
// before falling back to a PATH search.
func windowsInstallPaths() []string {
	paths := []string{
		`C:\Program Files\RedHat\Podman\podman.exe`,
	}
	if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
		paths = append(paths, filepath.Join(localAppData, "podman", "podman.exe"))
	}
	return paths
}

// FindEngine resolves the absolute path to the podman binary, checking
// platform-specific install locations first and the PATH second.
// Returns a KindEnvironment error when no binary is found.
func FindEngine() (string, error) {
	return findEngine(runtime.GOOS, osexec.LookPath, fileExists)
}

// findEngine is the testable core of FindEngine.
func findEngine(goos string, lookPath func(string) (string, error), exists func(string) bool) (string, error) {
	if goos == "windows" {
		for _, path := range windowsInstallPaths() {
			if exists(path) {
				return path, nil
			}
		}
	}

	path, err := lookPath(EngineBinary)
	if err != nil {
		return "", &Error{
			Kind:    KindEnvironment,
			Op:      "locate",
			Err:     err,
			Message: "podman executable not found",
		}
	}
	return path, nil
}

// FindCompose resolves the podman-compose binary on the PATH.
// Returns a KindEnvironment error when not found.
func FindCompose() (string, error) {
	path, err := osexec.LookPath(ComposeBinary)
	if err != nil {
		return "", &Error{
			Kind:    KindEnvironment,
			Op:      "locate",
			Err:     err,
			Message: "podman-compose executable not found",
		}
	}
	return path, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
