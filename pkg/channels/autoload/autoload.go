// Package autoload registers the built-in channels.
// Blank-import it from main to make them available to the loader.
package autoload

import (
	_ "concierge/pkg/channels/telegram"
	_ "concierge/pkg/channels/web"
)
