// Package weather is the sample application: a form that posts a weather
// description and redirects with it, and a forecast page that shows what
// the relay carried over.
package weather

import (
	"time"

	"github.com/mq-gh-dev/blazor-ssr-tempdata/relay"
	"github.com/mq-gh-dev/blazor-ssr-tempdata/status"
)

// DefaultDescription pre-fills the form.
const DefaultDescription = "Sunny with a chance of meatballs."

// Relay keys written by the form and read by both pages.
const (
	DescriptionKey = "Description"
	SelectedDayKey = "SelectedDay"
)

// Status messages sent by the demo submit buttons.
const (
	SimulatedErrorMessage  = "A simulated error occurred on the server!"
	ForecastSuccessMessage = "Weather data received successfully on a different page!"
)

func init() {
	relay.RegisterEnum(func(d time.Weekday) bool { return d >= time.Sunday && d <= time.Saturday })
}

// SubmitType selects which redirect the form demonstrates.
type SubmitType int

const (
	SubmitTempData SubmitType = iota
	SubmitStatus
	SubmitStatusAndTempData
)

// SubmitTypes lists the buttons in display order.
var SubmitTypes = []SubmitType{SubmitTempData, SubmitStatus, SubmitStatusAndTempData}

func (s SubmitType) Defined() bool { return s >= SubmitTempData && s <= SubmitStatusAndTempData }

// String returns the button label.
func (s SubmitType) String() string {
	switch s {
	case SubmitTempData:
		return "Test Redirect with TempData"
	case SubmitStatus:
		return "Test Redirect with Status"
	case SubmitStatusAndTempData:
		return "Test Redirect with Status and TempData"
	}
	return "Unknown"
}

// WeatherForm is the posted model.
type WeatherForm struct {
	Description string       `form:"Description" validate:"required,max=100"`
	SelectedDay time.Weekday `form:"SelectedDay" validate:"gte=0,lte=6"`
	SubmitType  SubmitType   `form:"SubmitType" validate:"gte=0,lte=2"`
}

// NewForm returns the form with its defaults.
func NewForm() WeatherForm {
	return WeatherForm{Description: DefaultDescription}
}

// formMessages override the generic validation messages.
var formMessages = map[string]string{
	"Description.required": "Please enter a weather description.",
	"Description.max":      "Description cannot exceed 100 characters.",
}

func (f WeatherForm) payload() map[string]any {
	return map[string]any{
		DescriptionKey: f.Description,
		SelectedDayKey: f.SelectedDay,
	}
}

// Display is the weather shown after a redirect.
type Display struct {
	HasData     bool
	Description string
	SelectedDay time.Weekday
}

// readDisplay pulls the weather and the status envelope out of the relay and
// flushes it, so both are consumed by this request.
func readDisplay(s relay.Store) (Display, status.Message, error) {
	var (
		d               Display
		hasDesc, hasDay bool
	)
	acc := relay.Read(s).
		TryGet(DescriptionKey, &d.Description, &hasDesc).
		TryGet(SelectedDayKey, &d.SelectedDay, &hasDay)
	d.HasData = hasDesc || hasDay
	msg := status.Read(acc)
	return d, msg, acc.Flush()
}
