package a2a

import (
	"fmt"

	"github.com/praxis/droneflow/internal/apperror"
)

// UnknownSkillError is returned by the A2A server when a Task names a
// skill that has no registered handler.
func UnknownSkillError(skill string) error {
	return apperror.UnknownSkill(skill)
}

// UnregisteredSkillError fires at Server.Validate time when a card skill
// has no matching handler.
func UnregisteredSkillError(skill string) error {
	return fmt.Errorf("card advertises skill %q but no handler is registered", skill)
}

// UnadvertisedHandlerError fires at Server.Validate time when a handler is
// registered for a skill the card does not advertise.
func UnadvertisedHandlerError(skill string) error {
	return fmt.Errorf("handler registered for skill %q but card does not advertise it", skill)
}

// PanicError wraps a recovered panic value as an error.
func PanicError(skill string, recovered interface{}) error {
	return fmt.Errorf("skill %q panicked: %v", skill, recovered)
}
