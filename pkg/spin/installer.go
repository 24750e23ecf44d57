package spin

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/hashicorp/go-version"

	"github.com/fermyon/spin-companion/pkg/util"
)

const (
	// Version is the tool release installed when no custom path is configured
	Version = "3.0.0"

	// DownloadURLTemplate is filled with version, os, arch and archive format
	DownloadURLTemplate = "https://github.com/fermyon/spin/releases/download/v%[1]s/spin-v%[1]s-%[2]s-%[3]s.%[4]s"

	toolName          = "spin"
	versionMarkerFile = "current-version"
)

// Installer locates the tool binary, downloading the pinned release into
// ToolsDir when it is missing or stale
type Installer struct {
	// CustomPath, when set, is used as the binary without any checks
	CustomPath string

	// ToolsDir is the root of the download cache
	ToolsDir string

	// Version overrides the pinned release
	Version string

	HTTPClient *http.Client

	warnedInstall bool
}

// NewInstaller creates an installer caching releases under toolsDir
func NewInstaller(customPath, toolsDir string) *Installer {
	return &Installer{
		CustomPath: customPath,
		ToolsDir:   toolsDir,
		Version:    Version,
		HTTPClient: http.DefaultClient,
	}
}

// EnsureInstalled returns the path to a usable binary
func (i *Installer) EnsureInstalled(ctx context.Context) (string, error) {
	log := util.GetLogger()

	if i.CustomPath != "" {
		log.V(1).Info("Using custom spin path from configuration", "path", i.CustomPath)
		return i.CustomPath, nil
	}

	toolFile := i.InstallLocation()
	if _, err := os.Stat(toolFile); err == nil && i.IsInstallCurrent() {
		log.V(1).Info("Spin already installed", "path", toolFile)
		return toolFile, nil
	}

	log.Info("Downloading spin", "version", i.version(), "dest", toolFile)
	if err := i.download(ctx, filepath.Dir(toolFile)); err != nil {
		return "", fmt.Errorf("failed to install spin %s: %w", i.version(), err)
	}
	if err := i.markInstallCurrent(); err != nil {
		return "", err
	}

	log.Info("Spin installed", "path", toolFile)
	return toolFile, nil
}

// WarnInstallNotEnsured calls warn with msg the first time it is used and
// never again for the life of the process
func (i *Installer) WarnInstallNotEnsured(warn func(string), msg string) {
	if i.warnedInstall {
		return
	}
	i.warnedInstall = true
	warn(msg)
}

func (i *Installer) version() string {
	if i.Version != "" {
		return i.Version
	}
	return Version
}

// InstallLocation is the path of the binary for the pinned release
func (i *Installer) InstallLocation() string {
	bin := toolName
	if runtime.GOOS == "windows" {
		bin += ".exe"
	}
	return filepath.Join(i.ToolsDir, toolName, i.version(), bin)
}

func (i *Installer) versionMarker() string {
	return filepath.Join(i.ToolsDir, toolName, versionMarkerFile)
}

// IsInstallCurrent reports whether the marker left by the last install names
// the pinned release
func (i *Installer) IsInstallCurrent() bool {
	data, err := os.ReadFile(i.versionMarker())
	if err != nil {
		return false
	}
	installed, err := version.NewVersion(strings.TrimSpace(string(data)))
	if err != nil {
		return false
	}
	wanted, err := version.NewVersion(i.version())
	if err != nil {
		return false
	}
	return installed.Equal(wanted)
}

func (i *Installer) markInstallCurrent() error {
	if err := os.MkdirAll(filepath.Dir(i.versionMarker()), 0755); err != nil {
		return fmt.Errorf("failed to create tools directory: %w", err)
	}
	if err := os.WriteFile(i.versionMarker(), []byte(i.version()), 0644); err != nil {
		return fmt.Errorf("failed to write version marker: %w", err)
	}
	return nil
}

// InstalledVersions lists the releases present in the cache, oldest first.
// Directories that are not version numbers are ignored.
func (i *Installer) InstalledVersions() ([]*version.Version, error) {
	entries, err := os.ReadDir(filepath.Join(i.ToolsDir, toolName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read tools directory: %w", err)
	}

	var versions []*version.Version
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		v, err := version.NewVersion(entry.Name())
		if err != nil {
			continue
		}
		versions = append(versions, v)
	}
	sort.Sort(version.Collection(versions))
	return versions, nil
}

// VersionDir is the cache directory holding release v
func (i *Installer) VersionDir(v *version.Version) string {
	return filepath.Join(i.ToolsDir, toolName, v.Original())
}

// StaleVersions lists cached releases other than the pinned one
func (i *Installer) StaleVersions() ([]*version.Version, error) {
	installed, err := i.InstalledVersions()
	if err != nil {
		return nil, err
	}
	current, err := version.NewVersion(i.version())
	if err != nil {
		return nil, fmt.Errorf("invalid spin version %q: %w", i.version(), err)
	}

	var stale []*version.Version
	for _, v := range installed {
		if !v.Equal(current) {
			stale = append(stale, v)
		}
	}
	return stale, nil
}

// DownloadSource returns the release archive URL for a platform
func DownloadSource(ver, goos, goarch string) (string, error) {
	var osID string
	switch goos {
	case "windows":
		osID = "windows"
	case "darwin":
		osID = "macos"
	case "linux":
		osID = "linux"
	default:
		return "", fmt.Errorf("unsupported operating system: %s", goos)
	}

	var archID string
	switch goarch {
	case "arm64":
		archID = "arm64"
		if goos == "darwin" {
			archID = "aarch64"
		}
	case "amd64":
		archID = "amd64"
	default:
		return "", fmt.Errorf("unsupported processor architecture: %s", goarch)
	}

	format := "tar.gz"
	if goos == "windows" {
		format = "zip"
	}

	return fmt.Sprintf(DownloadURLTemplate, ver, osID, archID, format), nil
}

func (i *Installer) download(ctx context.Context, destDir string) error {
	sourceURL, err := DownloadSource(i.version(), runtime.GOOS, runtime.GOARCH)
	if err != nil {
		return err
	}

	archive, err := os.CreateTemp("", toolName+"-autoinstall-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(archive.Name())
	defer archive.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return err
	}
	client := i.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", sourceURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download %s: %s", sourceURL, resp.Status)
	}
	if _, err := io.Copy(archive, resp.Body); err != nil {
		return fmt.Errorf("failed to download %s: %w", sourceURL, err)
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("failed to create install directory: %w", err)
	}
	if strings.HasSuffix(sourceURL, ".zip") {
		return unzip(archive.Name(), destDir)
	}
	return untar(archive.Name(), destDir)
}
