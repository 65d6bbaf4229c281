package app

import (
	"time"

	"github.com/womat/debug"

	"morsed/pkg/port"
)

// readElements waits in an endless loop for decoded elements. Every
// element is recorded; a report is published to the mqtt broker on each
// completed word, rate limited to the configured interval.
func (app *App) readElements() {
	var lastPublish time.Time

	for e := range app.decoder.C {
		debug.DebugLog.Printf("element: %v", e)
		app.recorder.Add(e)

		switch e {
		case port.BadPulse, port.BadGap:
			// ambiguous widths are ordinary, observable output; decoding
			// continues with the next edge
			debug.InfoLog.Printf("ambiguous width: %v", e)
		case port.EndOfWord:
			if time.Since(lastPublish) >= app.config.MQTT.Interval {
				app.mqtt.PublishJSON(app.config.MQTT.Topic, app.dataReport())
				lastPublish = time.Now()
			}
		}
	}
}
