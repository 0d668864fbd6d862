// Package config loads the JSON host configuration: the plugin data
// directory, logging, AI providers, the project memory backend, the event
// backend and the HTTP listen address.
package config
