// Package shapefile loads ESRI shapefiles into feature collections.
package shapefile

import (
	"context"
	"encoding/binary"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/geoconvert/internal/feature"
	"github.com/sells-group/geoconvert/internal/resilience"
)

// shpFileCode is the magic number at the start of every .shp main file.
const shpFileCode = 9994

type options struct {
	tempDir    string
	httpClient *http.Client
	retry      resilience.RetryConfig
}

// Option configures Open.
type Option func(*options)

// WithTempDir sets where archives are downloaded and extracted. Empty uses the OS default.
func WithTempDir(dir string) Option {
	return func(o *options) { o.tempDir = dir }
}

// WithHTTPClient sets the client used for URL sources.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		if c != nil {
			o.httpClient = c
		}
	}
}

// WithRetry sets how many times a URL download is attempted and the initial
// backoff between attempts.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(o *options) {
		o.retry.MaxAttempts = attempts
		o.retry.InitialBackoff = backoff
	}
}

// Open loads every feature from src, which may be a .shp path, a .zip
// archive containing a shapefile, or an http(s) URL to such an archive.
// Missing or unparsable sources return a *FileFormatError.
func Open(ctx context.Context, src string, opts ...Option) (*feature.Collection, error) {
	o := options{
		httpClient: &http.Client{Timeout: 10 * time.Minute},
		retry:      resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	shpPath, cleanup, err := resolve(ctx, src, o)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	return Read(ctx, shpPath)
}

// Read loads a local .shp file and its .dbf/.cpg sidecars. Records with a
// null or unusable shape are kept with a nil geometry.
func Read(ctx context.Context, shpPath string) (coll *feature.Collection, err error) {
	log := zap.L().With(zap.String("component", "shapefile"), zap.String("path", shpPath))

	// go-shp sizes slices from record headers and panics on corrupt counts.
	defer func() {
		if r := recover(); r != nil {
			coll = nil
			err = formatError(shpPath, eris.Errorf("corrupt record: %v", r))
		}
	}()

	if !strings.EqualFold(filepath.Ext(shpPath), ".shp") {
		return nil, formatError(shpPath, eris.New("not a .shp file"))
	}
	if err := checkHeader(shpPath); err != nil {
		return nil, formatError(shpPath, err)
	}

	base := strings.TrimSuffix(shpPath, filepath.Ext(shpPath))
	if _, err := os.Stat(base + ".dbf"); err != nil {
		return nil, formatError(shpPath, eris.Wrap(err, "missing .dbf attribute table"))
	}

	dec, err := loadCodePage(base)
	if err != nil {
		return nil, formatError(shpPath, err)
	}

	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, formatError(shpPath, err)
	}
	defer func() { _ = reader.Close() }()

	fields := schema(reader.Fields())
	coll = &feature.Collection{
		Name:   filepath.Base(base),
		Fields: fields,
	}

	for row := 0; reader.Next(); row++ {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "shapefile: read cancelled")
		}

		_, shape := reader.Shape()
		g := ToGeom(shape)
		if g == nil {
			coll.NullGeometries++
		}

		props := make(map[string]any, len(fields))
		for i, f := range fields {
			raw := reader.Attribute(i)
			if f.Type == 'C' {
				raw = dec.decode(raw)
			}
			props[f.Name] = parseValue(f, raw)
		}

		coll.Features = append(coll.Features, &feature.Feature{
			Index:      row,
			Geometry:   g,
			Properties: props,
		})
	}

	if err := reader.Err(); err != nil {
		return nil, formatError(shpPath, err)
	}

	if coll.NullGeometries > 0 {
		log.Warn("shapefile: records without usable geometry", zap.Int("null_geometries", coll.NullGeometries))
	}
	log.Debug("shapefile loaded",
		zap.Int("features", len(coll.Features)),
		zap.Int("fields", len(fields)),
	)

	return coll, nil
}

// checkHeader validates the 100-byte main file header.
func checkHeader(shpPath string) error {
	f, err := os.Open(shpPath)
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck

	var header [100]byte
	if _, err := io.ReadFull(f, header[:]); err != nil {
		return eris.Wrap(err, "read header")
	}
	if code := binary.BigEndian.Uint32(header[0:4]); code != shpFileCode {
		return eris.Errorf("bad file code %d", code)
	}
	return nil
}
