package viewer

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/turntable3d/turntable/models"
)

// FetcherFor returns the concrete fetch function for an asset format.
// Both adapters satisfy the same Loader contract; the format is purely a
// configuration choice. A nil client falls back to http.DefaultClient.
func FetcherFor(format Format, client *http.Client) FetchFunc {
	parse := parserFor(format)
	return func(url string) (*models.Mesh, error) {
		data, err := fetchBytes(client, url)
		if err != nil {
			return nil, &LoadError{Reason: LoadNetworkError, URL: url, Err: err}
		}
		mesh, err := parse(data, path.Base(stripQuery(url)))
		if err != nil {
			return nil, &LoadError{Reason: LoadParseError, URL: url, Err: err}
		}
		return mesh, nil
	}
}

func parserFor(format Format) func(data []byte, name string) (*models.Mesh, error) {
	switch format {
	case FormatOBJ:
		return models.ParseOBJ
	default:
		return models.ParseGLB
	}
}

// fetchBytes reads the asset body from an http(s) URL or a local path.
func fetchBytes(client *http.Client, url string) ([]byte, error) {
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		if client == nil {
			client = http.DefaultClient
		}
		resp, err := client.Get(url)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("unexpected status %s", resp.Status)
		}
		return io.ReadAll(resp.Body)
	}
	return os.ReadFile(url)
}
