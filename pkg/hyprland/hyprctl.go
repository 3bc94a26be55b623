package hyprland

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var ErrInvalidDispatcher = errors.New("invalid dispatcher")

var replyErrors = []struct {
	re  *regexp.Regexp
	err error
}{
	{regexp.MustCompile(`^ok$`), nil},
	{regexp.MustCompile(`(?i)invalid dispatcher`), ErrInvalidDispatcher},
}

// checkReply maps a plain-text hyprctl reply to an error.
func checkReply(reply string) error {
	reply = strings.TrimSpace(reply)
	for _, m := range replyErrors {
		if m.re.MatchString(reply) {
			return m.err
		}
	}

	return fmt.Errorf("hyprctl: %s", reply)
}
