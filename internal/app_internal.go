package internal

import "github.com/rios0rios0/bitbucket-provider/internal/domain/entities"

// AppInternal holds every controller exposed as a sub-command.
type AppInternal struct {
	controllers []entities.Controller
}

// NewAppInternal creates a new AppInternal from the registered controllers.
func NewAppInternal(controllers *[]entities.Controller) *AppInternal {
	return &AppInternal{controllers: *controllers}
}

// GetControllers returns the controllers in registration order.
func (it *AppInternal) GetControllers() []entities.Controller {
	return it.controllers
}
