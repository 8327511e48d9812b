package config

// Bot delivers budget alerts to ChatID. Admin commands are served only when
// AdminID is set.
type Bot struct {
	Token   string `env:"BOT_TOKEN,notEmpty" json:"-"`
	ChatID  int64  `env:"BOT_CHAT_ID,notEmpty" validate:"required"`
	AdminID int64  `env:"BOT_ADMIN_ID"`
}

func (b Bot) AdminEnabled() bool {
	return b.AdminID != 0
}
