// Package template defines the engine-agnostic rendering contract. Engines
// live in sub-packages (see pongo) and resolve template names through the
// locator package so every load, include and extends is checked the same way.
package template
