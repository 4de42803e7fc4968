package events

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"

	"community-service/internal/models"
	"community-service/internal/repositories"
)

// Payload data schemas, one per inbound event. The validate tags are the
// schema table: Parse rejects a frame before its handler ever runs.

type MessageSendData struct {
	Chat    string `json:"chat" validate:"required"`
	Content string `json:"content" validate:"required"`
}

type MessageEditData struct {
	Message string `json:"message" validate:"required"`
	Content string `json:"content" validate:"required"`
}

type MessageDeleteData struct {
	Message string `json:"message" validate:"required"`
}

type ReactionData struct {
	Message string `json:"message" validate:"required"`
	Emoji   string `json:"emoji" validate:"required"`
}

type PollVoteData struct {
	Message string `json:"message" validate:"required"`
	Option  *int   `json:"option" validate:"required,gte=0"`
}

type ChatTargetData struct {
	Chat   string `json:"chat" validate:"required"`
	Target string `json:"target" validate:"required"`
}

type ChatCourseData struct {
	Chat   string `json:"chat" validate:"required"`
	Course string `json:"course" validate:"required"`
}

type ChatClubData struct {
	Chat string `json:"chat" validate:"required"`
	Club string `json:"club" validate:"required"`
}

type BlackboardCreateData struct {
	Chat    string `json:"chat" validate:"required"`
	Title   string `json:"title" validate:"required"`
	Content string `json:"content"`
}

type BlackboardUpdateData struct {
	Blackboard string `json:"blackboard" validate:"required"`
	Title      string `json:"title"`
	Content    string `json:"content"`
}

type BlackboardDeleteData struct {
	Blackboard string `json:"blackboard" validate:"required"`
}

// Handlers implements the domain side of every inbound event: mutate
// through the repositories, then echo the effect to the chat's audience,
// excluding the originating connection.
type Handlers struct {
	repos       *repositories.Set
	broadcaster *Broadcaster
}

// NewHandlers builds the handler set.
func NewHandlers(repos *repositories.Set, broadcaster *Broadcaster) *Handlers {
	return &Handlers{repos: repos, broadcaster: broadcaster}
}

// Register binds every event of the closed set to its schema and handler.
func (h *Handlers) Register(reg *Registry) {
	reg.Register(EventMessageSend, func() any { return &MessageSendData{} }, h.MessageSend)
	reg.Register(EventMessageEdit, func() any { return &MessageEditData{} }, h.MessageEdit)
	reg.Register(EventMessageDelete, func() any { return &MessageDeleteData{} }, h.MessageDelete)
	reg.Register(EventMessageReactionAdd, func() any { return &ReactionData{} }, h.ReactionAdd)
	reg.Register(EventMessageReactionRemove, func() any { return &ReactionData{} }, h.ReactionRemove)
	reg.Register(EventPollVoteAdd, func() any { return &PollVoteData{} }, h.PollVoteAdd)
	reg.Register(EventPollVoteRemove, func() any { return &PollVoteData{} }, h.PollVoteRemove)
	reg.Register(EventChatTargetAdd, func() any { return &ChatTargetData{} }, h.ChatTargetAdd)
	reg.Register(EventChatTargetRemove, func() any { return &ChatTargetData{} }, h.ChatTargetRemove)
	reg.Register(EventChatCourseAdd, func() any { return &ChatCourseData{} }, h.ChatCourseAdd)
	reg.Register(EventChatCourseRemove, func() any { return &ChatCourseData{} }, h.ChatCourseRemove)
	reg.Register(EventChatClubAdd, func() any { return &ChatClubData{} }, h.ChatClubAdd)
	reg.Register(EventChatClubRemove, func() any { return &ChatClubData{} }, h.ChatClubRemove)
	reg.Register(EventBlackboardCreate, func() any { return &BlackboardCreateData{} }, h.BlackboardCreate)
	reg.Register(EventBlackboardUpdate, func() any { return &BlackboardUpdateData{} }, h.BlackboardUpdate)
	reg.Register(EventBlackboardDelete, func() any { return &BlackboardDeleteData{} }, h.BlackboardDelete)
}

func (h *Handlers) echo(ctx context.Context, sess *Session, chat models.Chat, event string, payload any) error {
	_, err := h.broadcaster.Broadcast(ctx, chat, models.OutboundEvent{
		Event:   ReceivedEvent(event),
		Payload: payload,
	}, sess.Conn())
	return err
}

func (h *Handlers) MessageSend(ctx context.Context, sess *Session, env Envelope, data any, receivedAt time.Time) error {
	d := data.(*MessageSendData)

	chat, err := h.repos.Chats.GetByID(ctx, d.Chat)
	if err != nil {
		return err
	}

	msg, err := h.repos.Messages.Create(ctx, models.Message{
		ChatID:    chat.ID,
		AuthorID:  env.Payload.Sender,
		Content:   d.Content,
		CreatedAt: receivedAt,
	})
	if err != nil {
		return err
	}

	updated, err := h.repos.Chats.Update(ctx, chat.ID, map[string]any{
		"messages": append(append([]string{}, chat.Messages...), msg.ID),
	})
	if err != nil {
		return err
	}

	return h.echo(ctx, sess, updated, env.Event, msg)
}

func (h *Handlers) MessageEdit(ctx context.Context, sess *Session, env Envelope, data any, receivedAt time.Time) error {
	d := data.(*MessageEditData)

	msg, err := h.repos.Messages.Update(ctx, d.Message, map[string]any{"content": d.Content})
	if err != nil {
		return err
	}
	chat, err := h.repos.Chats.GetByID(ctx, msg.ChatID)
	if err != nil {
		return err
	}
	return h.echo(ctx, sess, chat, env.Event, msg)
}

func (h *Handlers) MessageDelete(ctx context.Context, sess *Session, env Envelope, data any, receivedAt time.Time) error {
	d := data.(*MessageDeleteData)

	msg, err := h.repos.Messages.GetByID(ctx, d.Message)
	if err != nil {
		return err
	}
	chat, err := h.repos.Chats.GetByID(ctx, msg.ChatID)
	if err != nil {
		return err
	}
	if _, err := h.repos.Messages.Delete(ctx, msg.ID); err != nil {
		return err
	}
	updated, err := h.repos.Chats.Update(ctx, chat.ID, map[string]any{
		"messages": lo.Without(chat.Messages, msg.ID),
	})
	if err != nil {
		return err
	}
	return h.echo(ctx, sess, updated, env.Event, map[string]string{"message": msg.ID, "chat": chat.ID})
}

func (h *Handlers) ReactionAdd(ctx context.Context, sess *Session, env Envelope, data any, receivedAt time.Time) error {
	d := data.(*ReactionData)
	return h.mutateReactions(ctx, sess, env, d, func(users []string) []string {
		return lo.Union(users, []string{env.Payload.Sender})
	})
}

func (h *Handlers) ReactionRemove(ctx context.Context, sess *Session, env Envelope, data any, receivedAt time.Time) error {
	d := data.(*ReactionData)
	return h.mutateReactions(ctx, sess, env, d, func(users []string) []string {
		return lo.Without(users, env.Payload.Sender)
	})
}

func (h *Handlers) mutateReactions(ctx context.Context, sess *Session, env Envelope, d *ReactionData, mutate func([]string) []string) error {
	msg, err := h.repos.Messages.GetByID(ctx, d.Message)
	if err != nil {
		return err
	}

	// Cached records are shared; the reaction map is replaced wholesale,
	// never mutated in place.
	reactions := make(map[string][]string, len(msg.Reactions)+1)
	for emoji, users := range msg.Reactions {
		reactions[emoji] = append([]string(nil), users...)
	}
	next := mutate(reactions[d.Emoji])
	if len(next) == 0 {
		delete(reactions, d.Emoji)
	} else {
		reactions[d.Emoji] = next
	}

	updated, err := h.repos.Messages.Update(ctx, msg.ID, map[string]any{"reactions": reactions})
	if err != nil {
		return err
	}
	chat, err := h.repos.Chats.GetByID(ctx, msg.ChatID)
	if err != nil {
		return err
	}
	return h.echo(ctx, sess, chat, env.Event, updated)
}

func (h *Handlers) PollVoteAdd(ctx context.Context, sess *Session, env Envelope, data any, receivedAt time.Time) error {
	d := data.(*PollVoteData)
	return h.mutatePoll(ctx, sess, env, d, func(votes []string) []string {
		return lo.Union(votes, []string{env.Payload.Sender})
	})
}

func (h *Handlers) PollVoteRemove(ctx context.Context, sess *Session, env Envelope, data any, receivedAt time.Time) error {
	d := data.(*PollVoteData)
	return h.mutatePoll(ctx, sess, env, d, func(votes []string) []string {
		return lo.Without(votes, env.Payload.Sender)
	})
}

func (h *Handlers) mutatePoll(ctx context.Context, sess *Session, env Envelope, d *PollVoteData, mutate func([]string) []string) error {
	msg, err := h.repos.Messages.GetByID(ctx, d.Message)
	if err != nil {
		return err
	}
	if msg.Poll == nil {
		return fmt.Errorf("message %s has no poll", msg.ID)
	}
	if *d.Option >= len(msg.Poll.Options) {
		return fmt.Errorf("poll option %d out of range for message %s", *d.Option, msg.ID)
	}

	poll := models.Poll{Question: msg.Poll.Question, Options: make([]models.PollOption, len(msg.Poll.Options))}
	for i, opt := range msg.Poll.Options {
		poll.Options[i] = models.PollOption{Text: opt.Text, Votes: append([]string(nil), opt.Votes...)}
	}
	poll.Options[*d.Option].Votes = mutate(poll.Options[*d.Option].Votes)

	updated, err := h.repos.Messages.Update(ctx, msg.ID, map[string]any{"poll": poll})
	if err != nil {
		return err
	}
	chat, err := h.repos.Chats.GetByID(ctx, msg.ChatID)
	if err != nil {
		return err
	}
	return h.echo(ctx, sess, chat, env.Event, updated)
}

func (h *Handlers) ChatTargetAdd(ctx context.Context, sess *Session, env Envelope, data any, receivedAt time.Time) error {
	d := data.(*ChatTargetData)
	return h.mutateChatRefs(ctx, sess, env, d.Chat, "targets", func(c models.Chat) []string {
		return lo.Union(c.Targets, []string{d.Target})
	})
}

func (h *Handlers) ChatTargetRemove(ctx context.Context, sess *Session, env Envelope, data any, receivedAt time.Time) error {
	d := data.(*ChatTargetData)
	return h.mutateChatRefs(ctx, sess, env, d.Chat, "targets", func(c models.Chat) []string {
		return lo.Without(c.Targets, d.Target)
	})
}

func (h *Handlers) ChatCourseAdd(ctx context.Context, sess *Session, env Envelope, data any, receivedAt time.Time) error {
	d := data.(*ChatCourseData)
	return h.mutateChatRefs(ctx, sess, env, d.Chat, "courses", func(c models.Chat) []string {
		return lo.Union(c.Courses, []string{d.Course})
	})
}

func (h *Handlers) ChatCourseRemove(ctx context.Context, sess *Session, env Envelope, data any, receivedAt time.Time) error {
	d := data.(*ChatCourseData)
	return h.mutateChatRefs(ctx, sess, env, d.Chat, "courses", func(c models.Chat) []string {
		return lo.Without(c.Courses, d.Course)
	})
}

func (h *Handlers) ChatClubAdd(ctx context.Context, sess *Session, env Envelope, data any, receivedAt time.Time) error {
	d := data.(*ChatClubData)
	return h.mutateChatRefs(ctx, sess, env, d.Chat, "clubs", func(c models.Chat) []string {
		return lo.Union(c.Clubs, []string{d.Club})
	})
}

func (h *Handlers) ChatClubRemove(ctx context.Context, sess *Session, env Envelope, data any, receivedAt time.Time) error {
	d := data.(*ChatClubData)
	return h.mutateChatRefs(ctx, sess, env, d.Chat, "clubs", func(c models.Chat) []string {
		return lo.Without(c.Clubs, d.Club)
	})
}

// mutateChatRefs replaces one reference list of a chat and echoes the
// updated chat to its new audience.
func (h *Handlers) mutateChatRefs(ctx context.Context, sess *Session, env Envelope, chatID, field string, next func(models.Chat) []string) error {
	chat, err := h.repos.Chats.GetByID(ctx, chatID)
	if err != nil {
		return err
	}
	updated, err := h.repos.Chats.Update(ctx, chat.ID, map[string]any{field: next(chat)})
	if err != nil {
		return err
	}
	return h.echo(ctx, sess, updated, env.Event, updated)
}

func (h *Handlers) BlackboardCreate(ctx context.Context, sess *Session, env Envelope, data any, receivedAt time.Time) error {
	d := data.(*BlackboardCreateData)

	chat, err := h.repos.Chats.GetByID(ctx, d.Chat)
	if err != nil {
		return err
	}
	board, err := h.repos.Blackboards.Create(ctx, models.Blackboard{
		ChatID:    chat.ID,
		Title:     d.Title,
		Content:   d.Content,
		AuthorID:  env.Payload.Sender,
		CreatedAt: receivedAt,
	})
	if err != nil {
		return err
	}
	return h.echo(ctx, sess, chat, env.Event, board)
}

func (h *Handlers) BlackboardUpdate(ctx context.Context, sess *Session, env Envelope, data any, receivedAt time.Time) error {
	d := data.(*BlackboardUpdateData)

	patch := map[string]any{}
	if d.Title != "" {
		patch["title"] = d.Title
	}
	if d.Content != "" {
		patch["content"] = d.Content
	}

	board, err := h.repos.Blackboards.Update(ctx, d.Blackboard, patch)
	if err != nil {
		return err
	}
	chat, err := h.repos.Chats.GetByID(ctx, board.ChatID)
	if err != nil {
		return err
	}
	return h.echo(ctx, sess, chat, env.Event, board)
}

func (h *Handlers) BlackboardDelete(ctx context.Context, sess *Session, env Envelope, data any, receivedAt time.Time) error {
	d := data.(*BlackboardDeleteData)

	board, err := h.repos.Blackboards.GetByID(ctx, d.Blackboard)
	if err != nil {
		return err
	}
	chat, err := h.repos.Chats.GetByID(ctx, board.ChatID)
	if err != nil {
		return err
	}
	if _, err := h.repos.Blackboards.Delete(ctx, board.ID); err != nil {
		return err
	}
	return h.echo(ctx, sess, chat, env.Event, map[string]string{"blackboard": board.ID, "chat": chat.ID})
}
