package browser

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"

	"github.com/matheuskafuri/resourcehub/internal/directory"
)

// Launcher starts the platform URL handler.
type Launcher func(rawURL string) error

// Opener opens resource links in the user's browser.
type Opener struct {
	Linker directory.SearchLinker
	Launch Launcher
}

// Validate accepts only absolute http(s) URLs.
func Validate(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("refusing to open URL with scheme %q (only http/https allowed)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("refusing to open URL without host: %q", rawURL)
	}
	return nil
}

func Open(rawURL string) error {
	return Opener{}.OpenURL(rawURL)
}

func (o Opener) OpenURL(rawURL string) error {
	if err := Validate(rawURL); err != nil {
		return err
	}
	launch := o.Launch
	if launch == nil {
		launch = systemLauncher
	}
	return launch(rawURL)
}

// OpenResource opens the resource's own site, or a search for it when it has none.
func (o Opener) OpenResource(r directory.Resource) (string, error) {
	link := o.Linker.DisplayURL(r)
	return link, o.OpenURL(link)
}

func systemLauncher(rawURL string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", rawURL).Start()
	case "windows":
		// rundll32 avoids cmd /c start shell interpretation
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", rawURL).Start()
	default:
		return exec.Command("xdg-open", rawURL).Start()
	}
}
