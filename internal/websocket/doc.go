// Package websocket pushes dataset events to browser clients.
//
// The Hub owns the client set and fans out messages; each Client runs a read
// pump (heartbeats only) and a write pump (events and pings). The dataset
// service publishes through Hub.BroadcastUpdate, producing messages such as
//
//	{"type":"dataset:reloaded","subtype":"dataset","action":"reloaded","data":{...}}
package websocket
