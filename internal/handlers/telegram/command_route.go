package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Nazarious-ucu/weather-bot/internal/reply"
)

// commandRoutes maps a bot command to its fixed catalog text. Other commands are ignored.
var commandRoutes = map[string]string{
	"start": reply.KeyWelcome,
	"help":  reply.KeyHelp,
}

var menuCommands = []tgbotapi.BotCommand{
	{Command: "start", Description: "Начать работу с ботом"},
	{Command: "help", Description: "Как пользоваться ботом"},
}
