package archivechaine

import (
	"fmt"
	"mime"
	nurl "net/url"
	"strings"
	"time"

	"github.com/kennygrant/sanitize"
)

// validateArchiveURL checks that a submission URL is well formed and
// uses a scheme the service archives.
func validateArchiveURL(url string) error {
	if strings.TrimSpace(url) == "" {
		return &ValidationError{Field: "url", Reason: "must not be empty"}
	}

	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return &ValidationError{Field: "url", Reason: "must start with http:// or https://"}
	}

	parsed, err := nurl.ParseRequestURI(url)
	if err != nil || parsed.Hostname() == "" {
		return &ValidationError{Field: "url", Reason: fmt.Sprintf("%q is not a valid URL", url)}
	}

	return nil
}

// ArchiveFileName derives a local file name for downloaded archive
// content from its original URL and content type.
func ArchiveFileName(rawURL string, contentType string, now time.Time) string {
	stamp := now.Format("2006-01-02-150405")

	extension := ""
	if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
		extension = exts[0]
	}

	url, err := nurl.Parse(rawURL)
	if err != nil || url.Hostname() == "" {
		return fmt.Sprintf("%s-%s%s", stamp, sanitize.BaseName(rawURL), extension)
	}

	domainName := strings.TrimPrefix(url.Hostname(), "www.")
	domainName = strings.ReplaceAll(domainName, ".", "-")

	if url.Path == "" || url.Path == "/" {
		return fmt.Sprintf("%s-%s%s", stamp, domainName, extension)
	}

	return fmt.Sprintf("%s-%s-%s%s", stamp, domainName, sanitize.BaseName(url.Path), extension)
}
