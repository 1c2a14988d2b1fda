// Package ws streams the operation history over WebSocket.
//
// After the upgrade the server sends a "system" message and then one
// "record" message for every operation recorded from that point on. The
// history is polled, so records evicted from the bounded history before
// they were sent are reported as a "gap" with the number missed.
//
// Message Types (Client → Server):
//   - ping: Keep-alive ping
//   - subscribe: Replace filters (operations, outcomes, path) and
//     optionally replay from from_seq
//
// Message Types (Server → Client):
//   - system: Connection established
//   - record: One history record
//   - gap: Records were evicted before they could be sent
//   - pong: Reply to ping
//   - error: Bad client message
//
// Example Usage:
//
//	handler := ws.NewHandler(client, logger)
//	router.GET("/history/stream", handler.HandleConnection)
package ws
