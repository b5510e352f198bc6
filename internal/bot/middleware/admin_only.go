package middleware

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/kovalyov-valentin/news-relay/internal/botkit"
	"github.com/tomakado/containers/set"
)

// Права, любого из которых достаточно для админских команд
const adminPermissions = discordgo.PermissionAdministrator | discordgo.PermissionManageChannels

// AdminOnly пропускает к next только пользователей из adminIDs
// и тех, у кого в канале есть права администратора или управления каналами
func AdminOnly(adminIDs []string, next botkit.ViewFunc) botkit.ViewFunc {
	admins := set.New(adminIDs...)

	return func(ctx context.Context, s botkit.Session, m *discordgo.MessageCreate, args []string) error {
		if admins.Contains(m.Author.ID) {
			return next(ctx, s, m, args)
		}

		perms, err := s.UserChannelPermissions(m.Author.ID, m.ChannelID, discordgo.WithContext(ctx))
		if err != nil {
			return fmt.Errorf("resolve permissions of %s: %w", m.Author.ID, err)
		}

		if perms&adminPermissions != 0 {
			return next(ctx, s, m, args)
		}

		if _, err := s.ChannelMessageSend(m.ChannelID, "You are not allowed to run this command."); err != nil {
			return err
		}
		return nil
	}
}
