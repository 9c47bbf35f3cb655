// Package ws streams the priced shopping list over a WebSocket, one text
// message per item in completion order. The message body is the same JSON
// object as an NDJSON line of GET /.
package ws
