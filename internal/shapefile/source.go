package shapefile

import (
	"archive/zip"
	"context"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/geoconvert/internal/resilience"
)

// resolve turns a source (.shp path, .zip path or URL to a .zip) into a local
// .shp path. The returned cleanup removes any temporary files.
func resolve(ctx context.Context, src string, o options) (string, func(), error) {
	noop := func() {}

	if isURL(src) {
		dir, err := os.MkdirTemp(o.tempDir, "geoconvert-*")
		if err != nil {
			return "", noop, eris.Wrap(err, "shapefile: create temp dir")
		}
		cleanup := func() { _ = os.RemoveAll(dir) }

		zipPath := filepath.Join(dir, zipName(src))
		retry := o.retry
		retry.OnRetry = resilience.RetryLogger("shapefile.download", src)
		err = resilience.Do(ctx, retry, func(ctx context.Context) error {
			return downloadFile(ctx, o.httpClient, src, zipPath)
		})
		if err != nil {
			cleanup()
			return "", noop, formatError(src, err)
		}
		shpPath, err := unpack(zipPath, filepath.Join(dir, "extract"))
		if err != nil {
			cleanup()
			return "", noop, formatError(src, err)
		}
		return shpPath, cleanup, nil
	}

	if _, err := os.Stat(src); err != nil {
		return "", noop, formatError(src, err)
	}

	if strings.EqualFold(filepath.Ext(src), ".zip") {
		dir, err := os.MkdirTemp(o.tempDir, "geoconvert-*")
		if err != nil {
			return "", noop, eris.Wrap(err, "shapefile: create temp dir")
		}
		cleanup := func() { _ = os.RemoveAll(dir) }

		shpPath, err := unpack(src, dir)
		if err != nil {
			cleanup()
			return "", noop, formatError(src, err)
		}
		return shpPath, cleanup, nil
	}

	return src, noop, nil
}

func isURL(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// zipName derives the archive filename from a URL.
func zipName(url string) string {
	name := path.Base(strings.SplitN(url, "?", 2)[0])
	if name == "" || name == "." || name == "/" {
		name = "download"
	}
	if !strings.EqualFold(filepath.Ext(name), ".zip") {
		name += ".zip"
	}
	return name
}

// unpack extracts a ZIP archive and returns the first .shp inside it.
func unpack(zipPath, destDir string) (string, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", eris.Wrap(err, "create extract dir")
	}
	if err := extractZIP(zipPath, destDir); err != nil {
		return "", err
	}
	return findFileByExt(destDir, ".shp")
}

// downloadFile downloads a URL to a local file. Failures worth retrying are
// returned as *resilience.TransientError.
func downloadFile(ctx context.Context, client *http.Client, url, dest string) error {
	log := zap.L().With(zap.String("component", "shapefile.download"), zap.String("url", url))
	log.Info("downloading shapefile archive")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return eris.Wrap(err, "build request")
	}

	resp, err := client.Do(req)
	if err != nil {
		if resilience.IsTransient(err) {
			return resilience.NewTransientError(eris.Wrap(err, "download"), 0)
		}
		return eris.Wrap(err, "download")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("download returned status %d", resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return resilience.NewTransientError(err, resp.StatusCode)
		}
		return err
	}

	f, err := os.Create(dest)
	if err != nil {
		return eris.Wrap(err, "create file")
	}
	defer f.Close() //nolint:errcheck

	n, err := io.Copy(f, resp.Body)
	if err != nil {
		if resilience.IsTransient(err) {
			return resilience.NewTransientError(eris.Wrap(err, "read body"), 0)
		}
		return eris.Wrap(err, "write file")
	}
	log.Debug("download complete", zap.Int64("bytes", n))

	return nil
}

// extractZIP extracts a ZIP archive flat into the destination directory.
func extractZIP(zipPath, destDir string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return eris.Wrap(err, "open zip")
	}
	defer r.Close() //nolint:errcheck

	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := filepath.Base(f.Name)
		destPath := filepath.Join(destDir, name)

		rc, err := f.Open()
		if err != nil {
			return eris.Wrapf(err, "open zip entry %s", f.Name)
		}

		outFile, err := os.Create(destPath)
		if err != nil {
			_ = rc.Close()
			return eris.Wrapf(err, "create %s", destPath)
		}

		if _, err := io.Copy(outFile, rc); err != nil {
			_ = outFile.Close()
			_ = rc.Close()
			return eris.Wrapf(err, "extract %s", f.Name)
		}
		_ = outFile.Close()
		_ = rc.Close()
	}

	return nil
}

// findFileByExt finds the first file with the given extension in a directory.
func findFileByExt(dir, ext string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", eris.Wrap(err, "read directory")
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ext) {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", eris.Errorf("no %s file found in %s", ext, dir)
}
