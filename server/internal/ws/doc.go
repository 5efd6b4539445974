// Package ws is the relay's transport adapter.
//
// Server.ServeHTTP handles every request on the relay listener:
//   - requests carrying a WebSocket upgrade are promoted to a full-duplex
//     connection, and their open/message/close/error events are posted to the
//     relay dispatcher;
//   - every other request gets a fixed 200 text/plain body.
//
// Each connection runs one read pump (posts inbound text frames) and one write
// pump (drains a bounded outbound queue), as gorilla/websocket permits only one
// concurrent reader and one concurrent writer. Send never blocks: a full queue
// returns ErrSendBufferFull and the dispatcher drops the client.
//
// Keepalive pings and write deadlines are off by default; connections live
// until the peer closes them or the transport fails. The upgrader accepts all
// origins.
package ws
