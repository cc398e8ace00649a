// Package api provides the HTTP portal and WebSocket server for the
// alarm device.
//
// It exposes credential enrollment, login with brute-force lockout,
// session-guarded configuration of the notification slots and alarm
// mode, factory reset, and a live status stream.
//
// The server follows the same lifecycle pattern as the other
// infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple
// goroutines.
package api
