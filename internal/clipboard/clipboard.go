package clipboard

import (
	"errors"
	"strings"

	"github.com/atotto/clipboard"
)

// ErrNothingToCopy is returned by Copy for blank text.
var ErrNothingToCopy = errors.New("nothing to copy")

// writeAll is swapped out in tests; CI machines rarely have a clipboard.
var writeAll = clipboard.WriteAll

// Copy writes text to the system clipboard, without surrounding whitespace
func Copy(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrNothingToCopy
	}
	return writeAll(text)
}

// Available reports whether a clipboard utility was found.
func Available() bool {
	return !clipboard.Unsupported
}
