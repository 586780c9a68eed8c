package service

import (
	"context"
	"fmt"
	"time"

	"ai-flowchat-be/internal/dto"
	"ai-flowchat-be/internal/pkg/logger"
	"ai-flowchat-be/pkg/events"
	"ai-flowchat-be/pkg/flow"
	"ai-flowchat-be/pkg/gateway"
)

type IActionService interface {
	CreateRecord(ctx context.Context, userId string, req *dto.CreateRecordRequest) (*dto.CreateRecordResponse, error)
	OpenPopup(ctx context.Context, userId string, req *dto.OpenPopupRequest) error
	GetBalance(ctx context.Context, userId, flowKey string) (*dto.BalanceResponse, error)
}

type actionService struct {
	registry *flow.Registry
	gateway  gateway.HostGateway
	bus      *events.Bus
	log      logger.ILogger
}

func NewActionService(registry *flow.Registry, gw gateway.HostGateway, bus *events.Bus, log logger.ILogger) IActionService {
	return &actionService{
		registry: registry,
		gateway:  gw,
		bus:      bus,
		log:      log,
	}
}

// CreateRecord starts a host workflow record for the flow. Permission and
// field mapping are enforced by the gateway before any network call.
func (s *actionService) CreateRecord(ctx context.Context, userId string, req *dto.CreateRecordRequest) (*dto.CreateRecordResponse, error) {
	if _, err := s.registry.Resolve(req.FlowKey); err != nil {
		return nil, err
	}

	fields := make(map[string]string, len(req.Fields))
	for key, value := range req.Fields {
		fields[key] = fmt.Sprintf("%v", value)
	}

	result, err := s.gateway.CreateRecord(ctx, req.FlowKey, fields)
	if err != nil {
		s.log.Error("ActionService", "record creation failed", map[string]interface{}{
			"flow_key": req.FlowKey,
			"error":    err.Error(),
		})
		s.publish(ctx, events.BaseEvent{
			Type: events.TypeRecordFailed,
			Data: map[string]interface{}{
				"user_id":  userId,
				"flow_key": req.FlowKey,
				"error":    err.Error(),
			},
			OccurredAt: time.Now(),
		})
		return nil, err
	}

	s.publish(ctx, events.BaseEvent{
		Type: events.TypeRecordCreated,
		Data: map[string]interface{}{
			"user_id":   userId,
			"flow_key":  req.FlowKey,
			"record_id": result.RecordId,
		},
		OccurredAt: time.Now(),
	})

	return &dto.CreateRecordResponse{
		RecordId:           result.RecordId,
		ActivityInstanceId: result.ActivityInstanceId,
	}, nil
}

// OpenPopup asks the host UI to show a record. A failed popup is reported
// as a notice rather than an error because the record itself already exists.
func (s *actionService) OpenPopup(ctx context.Context, userId string, req *dto.OpenPopupRequest) error {
	def, err := s.registry.Resolve(req.FlowKey)
	if err != nil {
		return err
	}

	err = s.gateway.OpenRecordPopup(ctx, def.ProcessId, map[string]string{"record_id": req.RecordId})
	if err != nil {
		s.log.Warn("ActionService", "popup failed, surfacing as notice", map[string]interface{}{
			"flow_key":  req.FlowKey,
			"record_id": req.RecordId,
			"error":     err.Error(),
		})
		s.publish(ctx, events.BaseEvent{
			Type: events.TypePopupFailed,
			Data: map[string]interface{}{
				"user_id":   userId,
				"flow_key":  req.FlowKey,
				"record_id": req.RecordId,
				"error":     err.Error(),
			},
			OccurredAt: time.Now(),
		})
	}
	return nil
}

// GetBalance looks up the flow's balance dataset for the user, e.g. leave
// day counts for the LEAVE flow.
func (s *actionService) GetBalance(ctx context.Context, userId, flowKey string) (*dto.BalanceResponse, error) {
	def, err := s.registry.Resolve(flowKey)
	if err != nil {
		return nil, err
	}
	if def.BalanceRef == "" {
		return nil, fmt.Errorf("%w: flow %q has no balance dataset", gateway.ErrActionNotPermitted, flowKey)
	}

	rows, err := s.gateway.QueryDataset(ctx, def.BalanceRef, map[string]string{"user_id": userId}, 1)
	if err != nil {
		return nil, err
	}

	balances := map[string]interface{}{}
	if len(rows) > 0 {
		balances = rows[0]
	}
	return &dto.BalanceResponse{
		FlowKey:  flowKey,
		Balances: balances,
	}, nil
}

func (s *actionService) publish(ctx context.Context, evt events.BaseEvent) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, evt); err != nil {
		s.log.Warn("ActionService", "event publish failed", map[string]interface{}{
			"type":  evt.Type,
			"error": err.Error(),
		})
	}
}
