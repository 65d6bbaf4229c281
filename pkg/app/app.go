package app

import (
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/womat/debug"

	"morsed/pkg/app/config"
	"morsed/pkg/clock"
	"morsed/pkg/dispatch"
	"morsed/pkg/morse"
	"morsed/pkg/mqtt"
	"morsed/pkg/raspberry"
	"morsed/pkg/recorder"
)

// App is the main application struct.
// App is where the application is wired up.
type App struct {
	// web is the fiber web framework instance
	web *fiber.App

	// config is the application configuration
	config *config.Config

	// urlParsed contains the parsed Config.Webserver.URL parameter
	// and makes it easier to get params out of e.g.
	// url: https://0.0.0.0:7844/?minTls=1.2&bodyLimit=50MB
	urlParsed *url.URL

	// mqtt is the handler to the mqtt broker
	mqtt *mqtt.Handler

	// chip is the handler to the gpio character device
	chip *raspberry.Chip

	// line is the watched signal line
	line *raspberry.Line

	// button is the reset input
	button *raspberry.Button

	// clk converts edge timestamps to ticks
	clk *clock.Clock

	// queue feeds the decoder, one event at a time
	queue *dispatch.Queue

	// decoder is the morse element decoder
	decoder *morse.Decoder

	// recorder accumulates the decoded elements
	recorder *recorder.Recorder

	// running is set once the service go functions are started
	running bool

	// restart signals application restart
	restart chan struct{}
	// shutdown signals application shutdown
	shutdown chan struct{}
}

// New checks the web server URL and initializes the main app structure.
func New(cfg *config.Config) (*App, error) {
	u, err := url.Parse(cfg.Webserver.URL)
	if err != nil {
		debug.ErrorLog.Printf("Error parsing url %q: %s", cfg.Webserver.URL, err.Error())
		return &App{}, err
	}

	a := App{
		config:    cfg,
		urlParsed: u,

		web:      fiber.New(),
		mqtt:     mqtt.New(),
		clk:      clock.New(cfg.TickPeriod),
		queue:    dispatch.New(cfg.QueueSize),
		recorder: recorder.New(cfg.History),

		restart:  make(chan struct{}),
		shutdown: make(chan struct{}),
	}
	a.decoder = morse.New(a.queue)

	return &a, nil
}

// Run starts the application.
func (app *App) Run() error {
	if err := app.init(); err != nil {
		return err
	}

	go app.queue.Run(app.decoder.HandleEvent)
	go app.readElements()
	go app.mqtt.Service()
	go app.runWebServer()

	app.running = true
	return nil
}

// init opens the gpio inputs and connects the mqtt broker.
func (app *App) init() (err error) {
	if app.chip, err = raspberry.Open(app.config.Chip); err != nil {
		debug.ErrorLog.Printf("can't open gpio chip: %v", err)
		return err
	}

	if app.line, err = app.chip.NewLine(app.config.Gpio, app.config.Terminator,
		app.config.BounceTime, app.clk, app.queue); err != nil {
		debug.ErrorLog.Printf("can't open line: %v", err)
		return err
	}

	if app.button, err = raspberry.OpenButton(app.config.ResetGpio, app.config.BounceTime, app.queue); err != nil {
		debug.ErrorLog.Printf("can't open reset button: %v", err)
		return err
	}

	if err = app.mqtt.Connect(app.config.MQTT.Connection); err != nil {
		debug.ErrorLog.Printf("can't open mqtt broker %v", err)
		return err
	}

	// initDefaultRoutes should always be called last because it may
	// access things which must be initialized before
	app.initDefaultRoutes()

	return nil
}

// Restart returns the read only restart channel.
// Restart is used to be able to react on application restart. (see cmd/morsed.go)
func (app *App) Restart() <-chan struct{} {
	return app.restart
}

// Shutdown returns the read only shutdown channel.
// Shutdown is used to be able to react on application shutdown. (see cmd/morsed.go)
func (app *App) Shutdown() <-chan struct{} {
	return app.shutdown
}

func (app *App) Close() error {
	// stop the inputs first so no new events are posted
	if app.line != nil {
		_ = app.line.Close()
	}
	if app.button != nil {
		_ = app.button.Close()
	}
	if app.chip != nil {
		_ = app.chip.Close()
	}

	// the dispatch loop must be down before the element channel closes
	if app.running {
		_ = app.queue.Close()
		_ = app.decoder.Close()
	}

	_ = app.mqtt.Disconnect()
	return nil
}
