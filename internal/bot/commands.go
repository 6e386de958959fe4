package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// Command defines a bot command with its handler key and Telegram menu description.
type Command struct {
	Name        string // Command name without slash (e.g., "start")
	Description string // Description shown in Telegram command menu
}

// botCommands defines all available bot commands.
// This is the single source of truth for command definitions.
var botCommands = []Command{
	{Name: "buscar", Description: "Iniciar uma nova busca"},
	{Name: "cancelar", Description: "Cancelar a busca atual"},
	{Name: "chave", Description: "Definir a chave da API do Google Places"},
	{Name: "categorias", Description: "Listar as categorias disponíveis"},
	{Name: "ajuda", Description: "Mostrar os comandos"},
	{Name: "versao", Description: "Mostrar a versão"},
}

// setMyCommandsConfig builds the request that sets the command menu.
func setMyCommandsConfig() tgbotapi.SetMyCommandsConfig {
	commands := make([]tgbotapi.BotCommand, len(botCommands))
	for i, cmd := range botCommands {
		commands[i] = tgbotapi.BotCommand{
			Command:     cmd.Name,
			Description: cmd.Description,
		}
	}
	return tgbotapi.NewSetMyCommands(commands...)
}

// RegisterCommands sets the bot's command menu in Telegram.
// This should be called once at startup.
func RegisterCommands(tg BotAPI) {
	config := setMyCommandsConfig()
	if _, err := tg.Request(config); err != nil {
		log.Error().Err(err).Msg("failed to set bot commands")
	} else {
		log.Info().Int("count", len(config.Commands)).Msg("registered bot commands")
	}
}
