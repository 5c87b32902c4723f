package session

import "codesync/internal/models"

// Presence mutations: the small, frequently-updated subset of User fields.
// Only the latest value per field is kept (overwrite semantics).

// SetCursor records the user's cursor offset and selection end.
func (c *Coordinator) SetCursor(connID string, cursorPosition, selectionEnd int) (models.User, bool) {
	return c.registry.Update(connID, func(u *models.User) {
		u.CursorPosition = cursorPosition
		u.SelectionEnd = selectionEnd
	})
}

// SetTyping records the user's typing flag.
func (c *Coordinator) SetTyping(connID string, typing bool) (models.User, bool) {
	return c.registry.Update(connID, func(u *models.User) {
		u.Typing = typing
	})
}

// SetStatus records the user's connection status.
func (c *Coordinator) SetStatus(connID string, status models.Status) (models.User, bool) {
	return c.registry.Update(connID, func(u *models.User) {
		u.Status = status
	})
}

// SetCurrentFile records which file the user has open.
func (c *Coordinator) SetCurrentFile(connID string, fileID *string) (models.User, bool) {
	return c.registry.Update(connID, func(u *models.User) {
		u.CurrentFile = fileID
	})
}
