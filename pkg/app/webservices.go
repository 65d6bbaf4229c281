package app

import (
	"github.com/gofiber/fiber/v2"
	"github.com/womat/debug"

	"morsed/pkg/morse"
	"morsed/pkg/recorder"
)

// dataReport is the payload of the data webservice and the mqtt topic.
type dataReport struct {
	Decoder  morse.Status
	Elements recorder.Report
	// Ticks is the extended tick count of the line clock.
	Ticks uint32
	// DroppedEvents counts events rejected by the full queue.
	DroppedEvents uint64
}

func (app *App) dataReport() dataReport {
	return dataReport{
		Decoder:       app.decoder.Status(),
		Elements:      app.recorder.Snapshot(),
		Ticks:         app.clk.Extended(),
		DroppedEvents: app.queue.Dropped(),
	}
}

// runWebServer starts the applications web server and listens for web requests.
//  It's designed to run in a separate go function to not block the main go function.
//  e.g.: go runWebServer()
//  See app.Run()
func (app *App) runWebServer() {
	err := app.web.Listen(app.urlParsed.Host)
	debug.ErrorLog.Print(err)
}

// HandleData is the get decoder data web handler.
func (app *App) HandleData() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		debug.InfoLog.Print("web request data")

		return ctx.JSON(app.dataReport())
	}
}
