package middleware

import (
	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
)

// AdminOnly drops every update that was not sent by adminID.
func AdminOnly(adminID int64) th.Handler {
	return func(ctx *th.Context, update telego.Update) error {
		if IsAdmin(update, adminID) {
			return ctx.Next(update)
		}

		return nil
	}
}

func IsAdmin(update telego.Update, adminID int64) bool {
	var from *telego.User

	switch {
	case update.Message != nil:
		from = update.Message.From
	case update.CallbackQuery != nil:
		from = &update.CallbackQuery.From
	}

	return from != nil && from.ID == adminID
}
