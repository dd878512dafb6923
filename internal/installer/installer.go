// Package installer provisions language servers into codenote's home bin
// directory, where lsp.ServerCommand finds them.
package installer

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const downloadAttempts = 3

// RunFunc runs an external tool in dir with extra environment entries.
type RunFunc func(ctx context.Context, dir string, env []string, name string, args ...string) error

// Installer installs servers under a codenote home directory.
type Installer struct {
	binDir   string
	libDir   string
	client   *http.Client
	platform string
	run      RunFunc
	backOff  func() backoff.BackOff
	lookup   func(string) (Server, error)
}

// New returns an Installer for the given home directory.
func New(home string) *Installer {
	return &Installer{
		binDir:   filepath.Join(home, "bin"),
		libDir:   filepath.Join(home, "lib"),
		client:   &http.Client{Timeout: 10 * time.Minute},
		platform: PlatformKey(),
		run:      runTool,
		backOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = time.Second
			return b
		},
		lookup: Lookup,
	}
}

// BinDir is where installed executables are placed.
func (in *Installer) BinDir() string { return in.binDir }

// Install provisions the server for languageID and returns the path of the
// installed executable. An empty version selects the recipe default.
func (in *Installer) Install(ctx context.Context, languageID, version string) (string, error) {
	s, err := in.lookup(languageID)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(in.binDir, 0o755); err != nil {
		return "", fmt.Errorf("create bin dir: %w", err)
	}

	slog.Info("installer: installing", "server", s.Name, "language", languageID, "method", s.Method)
	switch s.Method {
	case MethodGo:
		return in.installGo(ctx, s, version)
	case MethodNPM:
		return in.installNPM(ctx, s, version)
	case MethodRelease:
		return in.installRelease(ctx, s, version)
	default:
		return "", fmt.Errorf("%w: unknown method %q", ErrUnsupported, s.Method)
	}
}

func (in *Installer) installGo(ctx context.Context, s Server, version string) (string, error) {
	if version == "" {
		version = s.Version
	}
	pkg := s.Packages[0] + "@" + version
	if err := in.run(ctx, "", []string{"GOBIN=" + in.binDir}, "go", "install", pkg); err != nil {
		return "", fmt.Errorf("go install %s: %w", pkg, err)
	}
	path := filepath.Join(in.binDir, exeName(s.Binary))
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("go install %s: %w", pkg, err)
	}
	return path, nil
}

func (in *Installer) installNPM(ctx context.Context, s Server, version string) (string, error) {
	if version == "" {
		version = s.Version
	}
	prefix := filepath.Join(in.libDir, s.Name)
	if err := os.MkdirAll(prefix, 0o755); err != nil {
		return "", fmt.Errorf("create package dir: %w", err)
	}

	args := []string{"install", "--prefix", prefix, "--no-fund", "--no-audit"}
	for i, pkg := range s.Packages {
		if i == 0 {
			pkg += "@" + version
		}
		args = append(args, pkg)
	}
	if err := in.run(ctx, prefix, nil, "npm", args...); err != nil {
		return "", fmt.Errorf("npm install %s: %w", s.Packages[0], err)
	}

	target := filepath.Join(prefix, "node_modules", ".bin", s.Binary)
	if _, err := os.Stat(target); err != nil {
		return "", fmt.Errorf("npm install %s: %w", s.Packages[0], err)
	}
	link := filepath.Join(in.binDir, s.Binary)
	if err := os.Remove(link); err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("replace link: %w", err)
	}
	if err := os.Symlink(target, link); err != nil {
		return "", fmt.Errorf("link %s: %w", s.Binary, err)
	}
	return link, nil
}

func (in *Installer) installRelease(ctx context.Context, s Server, version string) (string, error) {
	tmpl, ok := s.URLs[in.platform]
	if !ok {
		return "", fmt.Errorf("%w: %s has no build for %s", ErrUnsupported, s.Name, in.platform)
	}
	version = in.resolveVersion(ctx, s, version)
	url := strings.ReplaceAll(tmpl, "{version}", version)

	archive, err := os.CreateTemp("", "codenote-"+s.Name+"-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(archive.Name())
	defer archive.Close()

	slog.Info("installer: downloading", "url", url)
	if err := in.download(ctx, url, archive); err != nil {
		return "", err
	}
	if _, err := archive.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	kind := s.Archive
	if strings.HasSuffix(url, ".zip") {
		kind = "zip"
	}
	dest := filepath.Join(in.binDir, exeName(s.Binary))
	err = writeExecutable(dest, func(w io.Writer) error {
		return extract(archive, kind, s.ArchivePath, w)
	})
	if err != nil {
		return "", fmt.Errorf("install %s: %w", s.Name, err)
	}
	slog.Info("installer: installed", "server", s.Name, "version", version, "path", dest)
	return dest, nil
}

// resolveVersion picks the requested version, then the latest release, then
// the pinned default.
func (in *Installer) resolveVersion(ctx context.Context, s Server, requested string) string {
	if requested != "" && requested != "latest" {
		return requested
	}
	if s.Resolver != nil {
		v, err := s.Resolver.ResolveLatestVersion(ctx)
		if err == nil {
			return v
		}
		slog.Warn("installer: could not resolve latest version", "server", s.Name, "fallback", s.Version, "error", err)
	}
	return s.Version
}

// download fetches url into dest, retrying transient failures. Client
// errors are not retried.
func (in *Installer) download(ctx context.Context, url string, dest *os.File) error {
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		resp, err := in.client.Do(req)
		if err != nil {
			return struct{}{}, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return struct{}{}, backoff.Permanent(fmt.Errorf("download %s: %s", url, resp.Status))
		}
		if resp.StatusCode != http.StatusOK {
			return struct{}{}, fmt.Errorf("download %s: %s", url, resp.Status)
		}

		if err := dest.Truncate(0); err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		if _, err := dest.Seek(0, io.SeekStart); err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		_, err = io.Copy(dest, resp.Body)
		return struct{}{}, err
	},
		backoff.WithBackOff(in.backOff()),
		backoff.WithMaxTries(downloadAttempts),
		backoff.WithNotify(func(err error, wait time.Duration) {
			slog.Warn("installer: download failed, retrying", "url", url, "wait", wait, "error", err)
		}),
	)
	return err
}

// extract copies the server binary out of src according to kind.
func extract(src *os.File, kind, inner string, dst io.Writer) error {
	switch kind {
	case "":
		_, err := io.Copy(dst, src)
		return err
	case "gz":
		gz, err := gzip.NewReader(src)
		if err != nil {
			return err
		}
		defer gz.Close()
		_, err = io.Copy(dst, gz)
		return err
	case "tar.gz":
		gz, err := gzip.NewReader(src)
		if err != nil {
			return err
		}
		defer gz.Close()
		tr := tar.NewReader(gz)
		for {
			hdr, err := tr.Next()
			if err == io.EOF {
				return fmt.Errorf("%s not found in archive", inner)
			}
			if err != nil {
				return err
			}
			if hdr.Typeflag == tar.TypeReg && matchesEntry(hdr.Name, inner) {
				_, err = io.Copy(dst, tr)
				return err
			}
		}
	case "zip":
		info, err := src.Stat()
		if err != nil {
			return err
		}
		zr, err := zip.NewReader(src, info.Size())
		if err != nil {
			return err
		}
		for _, f := range zr.File {
			if f.FileInfo().IsDir() || !matchesEntry(f.Name, inner) {
				continue
			}
			rc, err := f.Open()
			if err != nil {
				return err
			}
			defer rc.Close()
			_, err = io.Copy(dst, rc)
			return err
		}
		return fmt.Errorf("%s not found in archive", inner)
	default:
		return fmt.Errorf("unknown archive type %q", kind)
	}
}

func matchesEntry(name, inner string) bool {
	name = strings.TrimPrefix(name, "./")
	return name == inner || strings.HasSuffix(name, "/"+inner)
}

// writeExecutable writes through a temp file in the target directory and
// renames it into place.
func writeExecutable(dest string, fill func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+"-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := fill(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o755); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dest)
}

func runTool(ctx context.Context, dir string, env []string, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), env...)
	// stdout stays clean for the command's own output
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
