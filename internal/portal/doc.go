// Package portal serves the device's setup and settings page as an
// embedded asset.
//
// The page is embedded into the Go binary using the go:embed directive,
// so the device has no runtime dependency on external files. Unknown
// paths fall back to index.html.
package portal
