package fetch

import (
	"bytes"
	"context"
	"strings"

	"github.com/tidwall/gjson"

	"easyaisubbing/internal/logging"
	"easyaisubbing/internal/services"
)

// Info is the subset of yt-dlp's metadata dump the pipeline cares about.
type Info struct {
	Title           string
	Ext             string
	DurationSeconds float64
	WebpageURL      string
}

// Probe asks yt-dlp for a video's metadata without downloading it.
func (f *Fetcher) Probe(ctx context.Context, url string) (Info, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return Info{}, services.Wrap(services.ErrValidation, "fetch", "probe", "url is required", nil)
	}

	out, err := f.capture(ctx, f.binary, "-j", "--no-playlist", url)
	if err != nil {
		marker, reason := classifyFailure(err.Error())
		return Info{}, services.Wrap(marker, "fetch", "probe", reason, err)
	}

	// -j prints one JSON object per line; --no-playlist keeps it to one, but
	// only the first line is trusted either way.
	doc := firstJSONLine(out)
	if !gjson.ValidBytes(doc) {
		return Info{}, services.Wrap(services.ErrExternalTool, "fetch", "probe", "invalid metadata from yt-dlp", nil)
	}

	parsed := gjson.ParseBytes(doc)
	info := Info{
		Title:           parsed.Get("title").String(),
		Ext:             parsed.Get("ext").String(),
		DurationSeconds: parsed.Get("duration").Float(),
		WebpageURL:      parsed.Get("webpage_url").String(),
	}
	if info.WebpageURL == "" {
		info.WebpageURL = url
	}

	f.logger.Debug("probed url",
		logging.String("url", url),
		logging.String("title", info.Title),
		logging.Float64("duration_seconds", info.DurationSeconds))
	return info, nil
}

func firstJSONLine(out []byte) []byte {
	out = bytes.TrimSpace(out)
	if i := bytes.IndexByte(out, '\n'); i >= 0 {
		return bytes.TrimSpace(out[:i])
	}
	return out
}
