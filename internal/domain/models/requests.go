package models

// TrainUnitRequest triggers training of one unit.
type TrainUnitRequest struct {
	Symbol  string `param:"symbol" validate:"required,uppercase"`
	Horizon string `param:"horizon" validate:"required,oneof=short medium long"`
}

// ModelMetaRequest addresses one persisted model.
type ModelMetaRequest struct {
	Symbol  string `param:"symbol" validate:"required,uppercase"`
	Horizon string `param:"horizon" validate:"required,oneof=short medium long"`
	Model   string `param:"model" validate:"required,oneof=lstm cnn_lstm transformer"`
}

// TrainAccepted is returned when a job was queued.
type TrainAccepted struct {
	JobID string `json:"job_id"`
	Scope string `json:"scope"`
}
