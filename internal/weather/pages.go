package weather

import (
	"net/http"
	"time"

	"github.com/mq-gh-dev/blazor-ssr-tempdata/app"
	"github.com/mq-gh-dev/blazor-ssr-tempdata/ctx"
	"github.com/mq-gh-dev/blazor-ssr-tempdata/middleware"
	"github.com/mq-gh-dev/blazor-ssr-tempdata/redirect"
	"github.com/mq-gh-dev/blazor-ssr-tempdata/relay"
	"github.com/mq-gh-dev/blazor-ssr-tempdata/security"
	"github.com/mq-gh-dev/blazor-ssr-tempdata/status"
	"github.com/mq-gh-dev/blazor-ssr-tempdata/validate"
)

var days = []time.Weekday{time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday}

// Pages serves Home and Forecast.
type Pages struct {
	tmpl     *Templates
	basePath string
}

// NewPages returns the handlers for an app mounted under basePath. An unsafe
// basePath falls back to "/".
func NewPages(tmpl *Templates, basePath string) *Pages {
	clean, err := security.BasePath(basePath)
	if err != nil {
		clean = "/"
	}
	return &Pages{tmpl: tmpl, basePath: clean}
}

// Register mounts the pages on r.
func (p *Pages) Register(r app.Router) {
	r.GET("/", p.Home)
	r.POST("/", p.Submit)
	r.GET("/forecast", p.Forecast)
}

type pageData struct {
	Title       string
	BasePath    string
	CSRF        string
	Status      status.Message
	Display     Display
	Form        WeatherForm
	Errors      map[string]string
	Days        []time.Weekday
	SubmitTypes []SubmitType
}

func (p *Pages) render(c ctx.Ctx, code int, page string, data pageData) error {
	data.BasePath = p.basePath
	data.CSRF = middleware.CSRFToken(c.Context())
	b, err := p.tmpl.Render(page, data)
	if err != nil {
		return err
	}
	c.Header("Cache-Control", "no-store")
	return c.HTML(code, b)
}

// Home shows the form and whatever the last redirect carried.
func (p *Pages) Home(c ctx.Ctx) error {
	d, msg, err := readDisplay(relay.FromContext(c.Context()))
	if err != nil {
		ctx.LoggerFromContext(c.Context()).Error("tempdata flush failed", "err", err.Error())
	}
	return p.render(c, http.StatusOK, "home.html", pageData{
		Title:       "Home",
		Status:      msg,
		Display:     d,
		Form:        NewForm(),
		Days:        days,
		SubmitTypes: SubmitTypes,
	})
}

// Submit binds and validates the form, then redirects the way the pressed
// button asks for.
func (p *Pages) Submit(c ctx.Ctx) error {
	f := NewForm()
	err := c.BindForm(&f, ctx.BindOptions{WeaklyTypedInput: true, ErrorUnused: true, IgnoreFields: []string{"_csrf"}})
	if err == nil {
		err = validate.Struct(f)
	}
	if err != nil {
		fe := validate.ToFieldErrorsWith(err, formMessages)
		if fe == nil {
			return err
		}
		return p.render(c, http.StatusUnprocessableEntity, "home.html", pageData{
			Title:       "Home",
			Form:        f,
			Errors:      fe.Map(),
			Days:        days,
			SubmitTypes: SubmitTypes,
		})
	}

	rd := redirect.New(c, redirect.WithBasePath(p.basePath))
	switch f.SubmitType {
	case SubmitStatus:
		return rd.RedirectToCurrentPageWithStatus(false, SimulatedErrorMessage, status.Error)
	case SubmitStatusAndTempData:
		return rd.RedirectWithStatusAndPayload("forecast", ForecastSuccessMessage, status.Success, f.payload())
	default:
		return rd.RedirectToCurrentPageWithPayload(false, f.payload())
	}
}

// Forecast shows the weather carried over from the form.
func (p *Pages) Forecast(c ctx.Ctx) error {
	d, msg, err := readDisplay(relay.FromContext(c.Context()))
	if err != nil {
		ctx.LoggerFromContext(c.Context()).Error("tempdata flush failed", "err", err.Error())
	}
	return p.render(c, http.StatusOK, "forecast.html", pageData{
		Title:   "Forecast",
		Status:  msg,
		Display: d,
	})
}
