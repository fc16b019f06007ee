package models

import "time"

// WrongPrediction is a past input whose prediction turned out wrong, as
// emitted by the serving side on the wrong-predictions topic.
type WrongPrediction struct {
	Symbol    string        `json:"symbol" validate:"required"`
	Horizon   string        `json:"horizon" validate:"required,oneof=short medium long"`
	Window    FeatureWindow `json:"features" validate:"required,min=1"`
	Label     int           `json:"label" validate:"gte=0"`
	Predicted int           `json:"predicted"`
	CreatedAt time.Time     `json:"created_at"`
}
