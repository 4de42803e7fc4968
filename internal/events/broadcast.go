package events

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/gorilla/websocket"
	"github.com/samber/lo"

	"community-service/internal/models"
	"community-service/internal/observability"
	"community-service/internal/repositories"
	"community-service/internal/ws"
)

// Broadcaster fans one outbound event out to the full audience of a chat.
type Broadcaster struct {
	hub     *ws.Hub
	courses *repositories.Repository[models.Course]
	clubs   *repositories.Repository[models.Club]
}

// NewBroadcaster wires the hub and the membership repositories.
func NewBroadcaster(hub *ws.Hub, courses *repositories.Repository[models.Course], clubs *repositories.Repository[models.Club]) *Broadcaster {
	return &Broadcaster{hub: hub, courses: courses, clubs: clubs}
}

// Delivery records one send attempt to one connection.
type Delivery struct {
	UserID string
	Err    error
}

// DeliveryReport summarizes a broadcast.
type DeliveryReport struct {
	Deliveries []Delivery
}

func (r DeliveryReport) Delivered() int {
	return lo.CountBy(r.Deliveries, func(d Delivery) bool { return d.Err == nil })
}

func (r DeliveryReport) Failed() int {
	return len(r.Deliveries) - r.Delivered()
}

// Audience derives the user ids entitled to a chat's events: direct
// targets plus current course and club members. Membership is resolved on
// demand through the repositories and never cached flattened; a referenced
// course or club that no longer exists contributes nothing.
func (b *Broadcaster) Audience(ctx context.Context, chat models.Chat) ([]string, error) {
	audience := lo.Uniq(chat.Targets)

	for _, courseID := range chat.Courses {
		course, err := b.courses.GetByID(ctx, courseID)
		if errors.Is(err, repositories.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		audience = lo.Union(audience, course.Members)
	}

	for _, clubID := range chat.Clubs {
		club, err := b.clubs.GetByID(ctx, clubID)
		if errors.Is(err, repositories.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		audience = lo.Union(audience, club.Members)
	}

	return audience, nil
}

// Broadcast serializes the event once and sends it to every open
// connection of the audience, except exclude. A failed send means the peer
// disconnected mid-broadcast; it is recorded and logged, never raised, and
// delivery to the remaining targets continues.
func (b *Broadcaster) Broadcast(ctx context.Context, chat models.Chat, event models.OutboundEvent, exclude ws.Conn) (DeliveryReport, error) {
	audience, err := b.Audience(ctx, chat)
	if err != nil {
		return DeliveryReport{}, err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return DeliveryReport{}, err
	}

	var report DeliveryReport
	for _, userID := range audience {
		for _, conn := range b.hub.FindByUser(userID) {
			if conn == exclude {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Printf("broadcast write to %s failed: %v", userID, err)
				conn.Close()
				b.hub.Unregister(conn)
				observability.IncBroadcastDelivery("failed")
				report.Deliveries = append(report.Deliveries, Delivery{UserID: userID, Err: err})
				continue
			}
			observability.IncBroadcastDelivery("delivered")
			report.Deliveries = append(report.Deliveries, Delivery{UserID: userID})
		}
	}
	return report, nil
}
