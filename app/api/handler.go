package api

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"ragchat/types"
)

// Retriever builds the context for a question.
type Retriever interface {
	Query(ctx context.Context, question string) (string, error)
}

type Answerer interface {
	GenerateAnswer(ctx context.Context, docContext, question string) (string, error)
}

type ChatHandler struct {
	retriever Retriever
	answerer  Answerer
}

func NewChatHandler(retriever Retriever, answerer Answerer) *ChatHandler {
	return &ChatHandler{
		retriever: retriever,
		answerer:  answerer,
	}
}

func (h *ChatHandler) HandleChat(c *fiber.Ctx) error {
	var params types.ChatRequest
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}

	if errors := types.Validate(&params); len(errors) > 0 {
		return NewValidationError(errors)
	}

	question := *params.Message

	docContext, err := h.retriever.Query(c.UserContext(), question)
	if err != nil {
		return err
	}

	answer, err := h.answerer.GenerateAnswer(c.UserContext(), docContext, question)
	if err != nil {
		return err
	}

	return c.JSON(types.ChatResponse{Response: answer})
}
