package engine

import "bidvault/internal/model"

// Role resolution runs first in every operation, before any state is read
// beyond the project row itself, so a caller without the required role gets
// ErrUnauthorized rather than a state error.

func requireOwner(p *model.Project, caller int) error {
	if caller != p.Owner {
		return ErrUnauthorized
	}
	return nil
}

func requireNotOwner(p *model.Project, caller int) error {
	if caller == p.Owner {
		return ErrUnauthorized
	}
	return nil
}

func requireStakeholder(p *model.Project, caller int) error {
	if !p.IsStakeholder(caller) {
		return ErrUnauthorized
	}
	return nil
}
