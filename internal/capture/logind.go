// Package capture turns host presence signals into visibility transitions
// for the scoring engines. On Linux the source is systemd-logind over
// D-Bus: a locked or sleeping session means the user cannot be attending,
// an unlock or wake means attention may have returned.
package capture

import (
	"context"
	"fmt"
	"log"

	"github.com/godbus/dbus/v5"
)

// VisibilitySink receives attention transitions derived from the host.
type VisibilitySink interface {
	SetVisible(visible bool)
}

// SinkFunc adapts a function to VisibilitySink.
type SinkFunc func(visible bool)

func (f SinkFunc) SetVisible(visible bool) { f(visible) }

// Watch subscribes to logind lock, unlock, and sleep signals and forwards
// them to the sink until ctx is cancelled. It returns an error when the
// system bus is unreachable; callers should degrade the source to
// disconnected rather than abort.
func Watch(ctx context.Context, sink VisibilitySink) error {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return fmt.Errorf("failed to connect to system bus: %w", err)
	}
	defer conn.Close()

	signalMatches := []struct {
		member string
	}{
		{"PrepareForSleep"},
	}
	for _, match := range signalMatches {
		if err := conn.AddMatchSignal(
			dbus.WithMatchObjectPath("/org/freedesktop/login1"),
			dbus.WithMatchInterface("org.freedesktop.login1.Manager"),
			dbus.WithMatchMember(match.member),
		); err != nil {
			return fmt.Errorf("add match failed: %w", err)
		}
	}

	// watch for property changes (session locked)
	if err := conn.AddMatchSignal(
		dbus.WithMatchInterface("org.freedesktop.DBus.Properties"),
		dbus.WithMatchMember("PropertiesChanged"),
	); err != nil {
		return fmt.Errorf("add match for PropertiesChanged failed: %w", err)
	}

	c := make(chan *dbus.Signal, 10)
	conn.Signal(c)

	log.Println("Capture: watching logind for presence transitions")

	for {
		select {
		case sig := <-c:
			switch sig.Name {
			case "org.freedesktop.login1.Manager.PrepareForSleep":
				if len(sig.Body) > 0 {
					sleeping, _ := sig.Body[0].(bool)
					if sleeping {
						log.Println("System is going to sleep")
						sink.SetVisible(false)
					} else {
						log.Println("System has woken up")
						sink.SetVisible(true)
					}
				}

			case "org.freedesktop.DBus.Properties.PropertiesChanged":
				if len(sig.Body) < 3 {
					break
				}
				iface, ok := sig.Body[0].(string)
				if !ok || iface != "org.freedesktop.login1.Session" {
					break
				}
				changedProps, ok := sig.Body[1].(map[string]dbus.Variant)
				if !ok {
					break
				}
				if val, exists := changedProps["LockedHint"]; exists {
					locked, _ := val.Value().(bool)
					if locked {
						log.Println("Session locked")
						sink.SetVisible(false)
					} else {
						log.Println("Session unlocked")
						sink.SetVisible(true)
					}
				}
			}
		case <-ctx.Done():
			return nil
		}
	}
}
