package services

import (
	"errors"

	"github.com/Dosada05/double-elimination/models"
)

var (
	ErrNoActiveTournament = errors.New("no tournament is running")
	ErrConfigMissing      = errors.New("tournament configuration has not been saved")
	ErrRosterMissing      = errors.New("participant roster has not been saved")
	ErrInvalidRoster      = errors.New("invalid participant roster")
	ErrRosterTooLarge     = errors.New("roster does not fit the configured field")

	// Ошибки конфигурации приходят из models, чтобы Validate можно было вызывать без сервиса.
	ErrInvalidConfig = models.ErrInvalidConfig

	ErrAuthInvalidCredentials = errors.New("invalid organizer password")
)
