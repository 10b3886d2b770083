// Package pyenv discovers a Python interpreter and resolves its marker
// environment and site-packages directories.
package pyenv

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pipshow-dev/pipshow/internal/cache"
	"github.com/pipshow-dev/pipshow/internal/pep508"
)

// Info describes one resolved Python environment.
type Info struct {
	Executable   string             `json:"executable"`
	Prefix       string             `json:"prefix"`
	Environment  pep508.Environment `json:"markers"`
	SitePackages []string           `json:"site_packages"`
}

// probeScript runs inside the target interpreter and prints the environment
// as a single JSON document. It must stay compatible with Python 3.7+.
const probeScript = `import json, os, platform, site, sys, sysconfig
markers = {
    "implementation_name": sys.implementation.name,
    "implementation_version": "{0.major}.{0.minor}.{0.micro}".format(sys.implementation.version),
    "os_name": os.name,
    "platform_machine": platform.machine(),
    "platform_python_implementation": platform.python_implementation(),
    "platform_release": platform.release(),
    "platform_system": platform.system(),
    "platform_version": platform.version(),
    "python_full_version": platform.python_version(),
    "python_version": ".".join(platform.python_version_tuple()[:2]),
    "sys_platform": sys.platform,
}
paths = []
try:
    paths.extend(site.getsitepackages())
except Exception:
    pass
purelib = sysconfig.get_paths().get("purelib")
if purelib and purelib not in paths:
    paths.append(purelib)
print(json.dumps({
    "executable": sys.executable,
    "prefix": sys.prefix,
    "markers": markers,
    "site_packages": paths,
}))
`

// Discover resolves which interpreter to inspect: an explicit request, then
// the active virtual environment, then (only with system=true) the first
// python3/python on PATH.
func Discover(request string, system bool) (string, error) {
	if request != "" {
		if strings.ContainsRune(request, os.PathSeparator) {
			if _, err := os.Stat(request); err != nil {
				return "", fmt.Errorf("python interpreter %s: %w", request, err)
			}
			return request, nil
		}
		exe, err := exec.LookPath(request)
		if err != nil {
			return "", fmt.Errorf("python interpreter %q not found on PATH", request)
		}
		return exe, nil
	}

	if venv := os.Getenv("VIRTUAL_ENV"); venv != "" {
		exe := filepath.Join(venv, "bin", "python")
		if runtime.GOOS == "windows" {
			exe = filepath.Join(venv, "Scripts", "python.exe")
		}
		if _, err := os.Stat(exe); err != nil {
			return "", fmt.Errorf("active virtual environment %s has no interpreter: %w", venv, err)
		}
		return exe, nil
	}

	if !system {
		return "", fmt.Errorf("no virtual environment is active; pass --system to inspect the base interpreter")
	}
	for _, name := range []string{"python3", "python"} {
		if exe, err := exec.LookPath(name); err == nil {
			return exe, nil
		}
	}
	return "", fmt.Errorf("no python interpreter found on PATH")
}

// Probe runs the interpreter and returns its environment. Results are
// cached per executable path and mtime; pass a nil cache to force a fresh
// probe.
func Probe(ctx context.Context, exe string, c *cache.Cache, logger *logrus.Logger) (*Info, error) {
	key := probeCacheKey(exe)
	if c != nil && key != "" {
		var info Info
		if c.GetJSON(key, &info) {
			logger.WithField("python", exe).Debug("using cached interpreter probe")
			return &info, nil
		}
	}

	logger.WithField("python", exe).Debug("probing interpreter")
	out, err := exec.CommandContext(ctx, exe, "-I", "-c", probeScript).Output()
	if err != nil {
		return nil, fmt.Errorf("querying interpreter %s: %w", exe, err)
	}

	info, err := decodeProbe(out)
	if err != nil {
		return nil, fmt.Errorf("querying interpreter %s: %w", exe, err)
	}

	if c != nil && key != "" {
		if err := c.SetJSON(key, info); err != nil {
			logger.WithError(err).Debug("caching interpreter probe failed")
		}
	}
	return info, nil
}

func decodeProbe(data []byte) (*Info, error) {
	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("parsing probe output: %w", err)
	}
	if info.Executable == "" || len(info.SitePackages) == 0 {
		return nil, fmt.Errorf("parsing probe output: incomplete environment")
	}
	return &info, nil
}

// probeCacheKey ties a cached probe to the interpreter binary and its
// mtime, so upgrading Python in place invalidates the entry.
func probeCacheKey(exe string) string {
	st, err := os.Stat(exe)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("pyenv:%s:%d", exe, st.ModTime().UnixNano())
}
