package validator

import (
	"tourbook/pkg/logger"
	"tourbook/pkg/model"
	"tourbook/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type TourValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewTourValidator(log *logger.Logger) *TourValidator {
	v := validation.New()

	log.Info("Tour validator initialized successfully")

	return &TourValidator{
		validate: v,
		logger:   log,
	}
}

func (v *TourValidator) Validate(tour *model.Tour) error {
	if err := validation.Struct(v.validate, tour); err != nil {
		return err
	}
	return v.validateBusinessRules(tour)
}

func (v *TourValidator) ValidateUpdate(update *model.TourUpdate) error {
	return validation.Struct(v.validate, update)
}

func (v *TourValidator) validateBusinessRules(tour *model.Tour) error {
	if tour.Slug == "" {
		return validation.Field("name", "name must contain at least one letter or digit")
	}
	return nil
}
