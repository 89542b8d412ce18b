package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gosimple/slug"

	"github.com/anicoll/campus-simulator/internal/pkg/model"
)

func (s *service) RegisterDevice(ctx context.Context, device model.Device) error {
	if _, exists := s.configuredDevices.Load(device.ID); exists {
		return nil
	}
	msg := model.RegisterMessage{
		ID:         slug.Make(device.ID),
		StateTopic: s.topic(device.ID, "readings"),
		Device: model.MirrorDevice{
			Name:     device.Name,
			Type:     device.Type,
			Location: device.Location,
		},
	}
	if err := s.publish(ctx, s.topic(device.ID, "config"), 1, true, msg); err != nil {
		return err
	}
	s.configuredDevices.Store(device.ID, struct{}{})
	return nil
}

func (s *service) PublishReading(ctx context.Context, deviceID string, reading model.Reading) error {
	return s.publish(ctx, s.topic(deviceID, "readings"), 0, false, model.ReadingMessage{
		Value:     reading.Value,
		Unit:      reading.Unit,
		Timestamp: time.Now(),
	})
}

// PublishStatus is retained so late subscribers see the last known status.
func (s *service) PublishStatus(ctx context.Context, deviceID string, status model.DeviceStatus) error {
	return s.publish(ctx, s.topic(deviceID, "status"), 1, true, model.StatusMessage{
		Status:    status,
		Timestamp: time.Now(),
	})
}

func (s *service) topic(deviceID, leaf string) string {
	return fmt.Sprintf("%s/%s/%s", s.topicPrefix, slug.Make(deviceID), leaf)
}

func (s *service) publish(ctx context.Context, topic string, qos byte, retained bool, msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	token := s.client.Publish(topic, qos, retained, payload)
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(publishTimeout):
		return fmt.Errorf("%w: %s", ErrPublishTimeout, topic)
	}
}
