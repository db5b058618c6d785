package strain

import (
	"context"
	"os"

	"github.com/warplab/gwstrain/internal/conf"
)

// Acquirer downloads a strain source and decodes it into a Recording.
type Acquirer struct {
	downloader  *Downloader
	nominalRate int
}

// NewAcquirer creates an acquirer from strain settings.
func NewAcquirer(settings *conf.StrainSettings) *Acquirer {
	return &Acquirer{
		downloader:  NewDownloader(settings.ScratchDir, settings.DownloadTimeout),
		nominalRate: settings.SampleRate,
	}
}

// Acquire fetches the resource at url and decodes it. The scratch file
// is deleted on every exit path once the download has produced one.
func (a *Acquirer) Acquire(ctx context.Context, url string) (*Recording, error) {
	path, err := a.downloader.Download(ctx, url)
	if err != nil {
		return nil, err
	}
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			logger.Warn("Failed to remove scratch file", "path", path, "error", rmErr)
		}
	}()

	return Decode(path, a.nominalRate)
}

// Close releases the acquirer's resources.
func (a *Acquirer) Close() {
	a.downloader.Close()
}
