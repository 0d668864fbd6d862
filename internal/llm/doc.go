// Package llm builds the AI providers handed to plugins. Each provider
// satisfies plugin.AIProvider; drivers live in subpackages.
package llm
