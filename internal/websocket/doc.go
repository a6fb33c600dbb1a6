// Package websocket pushes dataset events to live dashboards.
//
// A single Hub owns the client set. Handler upgrades /ws requests and starts
// a read and a write pump per client; services publish through Hub.Broadcast,
// which never blocks the caller.
package websocket
