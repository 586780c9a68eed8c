package service

import (
	"context"

	"ai-flowchat-be/internal/pkg/logger"
	"ai-flowchat-be/internal/repository/memory"
	"ai-flowchat-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

type INoticeConsumerService interface {
	Consume(ctx context.Context) error
}

// noticeConsumerService drains the event bus into per-user notice buffers
// so the panel can poll what happened while it was busy.
type noticeConsumerService struct {
	bus     *events.Bus
	notices *memory.NoticeRepository
	log     logger.ILogger
}

func NewNoticeConsumerService(bus *events.Bus, notices *memory.NoticeRepository, log logger.ILogger) INoticeConsumerService {
	return &noticeConsumerService{
		bus:     bus,
		notices: notices,
		log:     log,
	}
}

func (cs *noticeConsumerService) Consume(ctx context.Context) error {
	messages, err := cs.bus.Subscribe(ctx)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

func (cs *noticeConsumerService) processMessage(msg *message.Message) {
	evt, err := events.Decode(msg)
	if err != nil {
		cs.log.Error("NoticeConsumer", "failed to decode event", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	userId, _ := evt.Data["user_id"].(string)
	if userId == "" {
		// Events without a user are system-level; nothing to surface.
		msg.Ack()
		return
	}

	cs.notices.Push(userId, evt)
	msg.Ack()
}
