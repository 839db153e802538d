package controller

import (
	"context"

	"github.com/Freeeeeet/wherewego/internal/controller/handlers"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// BotController административный Telegram-бот
type BotController struct {
	bot      *bot.Bot
	handlers *handlers.Handlers
	logger   *zap.Logger
}

func NewBotController(botInstance *bot.Bot, h *handlers.Handlers, logger *zap.Logger) *BotController {
	return &BotController{
		bot:      botInstance,
		handlers: h,
		logger:   logger,
	}
}

// RegisterHandlers регистрирует обработчики текста и кнопок и меню команд
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	h := c.handlers

	// команды разбирает сам HandleTextMessage
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "", bot.MatchTypePrefix, h.HandleTextMessage)
	c.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "", bot.MatchTypePrefix, h.AdminOnly(h.HandleCallbackQuery))

	return c.setCommands(ctx)
}

func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "newkey", Description: "🔑 Issue a registration key"},
		{Command: "keys", Description: "📋 Registration keys"},
		{Command: "search", Description: "🔎 Find students"},
		{Command: "feedback", Description: "📨 Recent feedback"},
		{Command: "cancel", Description: "❌ Cancel the current action"},
		{Command: "help", Description: "❓ Help"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{Commands: commands})
	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("Bot commands menu set")
	return nil
}

// Start блокирует до отмены ctx
func (c *BotController) Start(ctx context.Context) error {
	c.logger.Info("Starting bot...")
	c.bot.Start(ctx)
	c.handlers.Close()
	return nil
}
