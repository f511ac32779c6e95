package scanner

import (
	"context"
	"fmt"

	"mediastore-bridge/internal/logging"

	"github.com/godbus/dbus/v5"
)

// Tracker miner endpoint that accepts on-demand indexing requests.
const (
	TrackerDestination = "org.freedesktop.Tracker3.Miner.Files"
	TrackerObjectPath  = "/org/freedesktop/Tracker3/Miner/Files/Index"
	TrackerInterface   = "org.freedesktop.Tracker3.Miner.Files.Index"
	trackerIndexMethod = TrackerInterface + ".IndexLocation"
)

// methodCaller is the part of dbus.BusObject the tracker backend uses.
type methodCaller interface {
	GoWithContext(ctx context.Context, method string, flags dbus.Flags, ch chan *dbus.Call, args ...interface{}) *dbus.Call
}

// Tracker asks the desktop Tracker miner to index files over the session
// bus. Calls are sent without waiting for a reply.
type Tracker struct {
	conn *dbus.Conn
	obj  methodCaller
	log  *logging.Logger
}

// NewTracker connects to the session bus.
func NewTracker() (*Tracker, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &Tracker{
		conn: conn,
		obj:  conn.Object(TrackerDestination, dbus.ObjectPath(TrackerObjectPath)),
		log:  logging.New("tracker"),
	}, nil
}

// Scan sends IndexLocation for the file's URI. Only a failure to send is
// reported; whatever the miner does afterwards is not observed.
func (t *Tracker) Scan(ctx context.Context, path string) error {
	uri := FileLocator(path)

	call := t.obj.GoWithContext(ctx, trackerIndexMethod, dbus.FlagNoReplyExpected, nil,
		uri, []string{}, []string{})
	if call.Err != nil {
		return fmt.Errorf("IndexLocation %s: %w", uri, call.Err)
	}

	t.log.Debug("IndexLocation sent for %s", uri)
	return nil
}

// Close releases the bus connection.
func (t *Tracker) Close() error {
	if t.conn == nil {
		return nil
	}
	return t.conn.Close()
}
