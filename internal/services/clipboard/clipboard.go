// Package clipboard provides access to the system clipboard.
package clipboard

import (
	"errors"

	"github.com/atotto/clipboard"
)

// ErrUnsupported reports that no clipboard utility is available on this system.
var ErrUnsupported = errors.New("clipboard is not supported on this system (install xclip, xsel or wl-clipboard)")

// Copier copies textual data to the system clipboard.
type Copier interface {
	Copy(text string) error
}

// Service implements Copier using github.com/atotto/clipboard.
type Service struct {
	unsupported bool
	write       func(string) error
}

// NewService constructs a clipboard Service bound to the system clipboard.
func NewService() *Service {
	return &Service{unsupported: clipboard.Unsupported, write: clipboard.WriteAll}
}

// Copy writes text to the system clipboard.
func (service *Service) Copy(text string) error {
	if service.unsupported {
		return ErrUnsupported
	}
	return service.write(text)
}

var _ Copier = (*Service)(nil)
