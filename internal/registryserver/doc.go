// Package registryserver serves a merged registry index over HTTP, for
// local development of registries and for tests that need a live one.
package registryserver
