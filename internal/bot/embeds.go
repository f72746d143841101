package bot

import (
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

func (b *Bot) logEmbed(title, description string, color int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       color,
		Timestamp:   time.Now().Format(time.RFC3339),
	}
}

func (b *Bot) respondEmbed(session *discordgo.Session, interaction *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, ephemeral bool) {
	var flags discordgo.MessageFlags
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	err := session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  flags,
		},
	})
	if err != nil {
		b.logger.Warn("interaction respond failed", zap.Error(err))
	}
}

func (b *Bot) respondSuccess(session *discordgo.Session, interaction *discordgo.InteractionCreate, title, description string) {
	b.respondEmbed(session, interaction, b.logEmbed(title, description, b.cfg.EmbedColors.Success), true)
}

func (b *Bot) respondError(session *discordgo.Session, interaction *discordgo.InteractionCreate, description string) {
	b.respondEmbed(session, interaction, b.logEmbed("Error", description, b.cfg.EmbedColors.Error), true)
}
