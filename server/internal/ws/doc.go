// Package ws implements the report server's WebSocket stream at /ws/stream.
//
// Hub keeps the connected clients and broadcasts the report summary (the
// body of GET /api/v1/reports) to all of them:
//   - "summary" on connect and on every interval tick
//   - "report" with the scope when the receiver accepts a report (Notify)
//
// Message format:
//
//	{
//	  "event": "report",
//	  "scope": "cz",
//	  "data":  { "reports": [...], "generated_at": "..." }
//	}
//
// A client whose send buffer fills up is disconnected. Run(ctx) closes all
// connections when ctx is cancelled.
package ws
