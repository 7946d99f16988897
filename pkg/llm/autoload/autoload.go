// Package autoload registers the built-in completion providers.
// Blank-import it from main to make them available to the loader.
package autoload

import (
	_ "concierge/pkg/llm/gemini"
	_ "concierge/pkg/llm/ollama"
	_ "concierge/pkg/llm/openailm"
)
