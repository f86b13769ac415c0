package chat

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/vijaynimmakayala9/techsterker-mentor-sub000/internal/api"
	"github.com/vijaynimmakayala9/techsterker-mentor-sub000/internal/session"
)

// Service maps between the chat API's wire shapes and the domain types the
// rest of the subsystem works with. All requests are scoped to one actor.
type Service struct {
	api   *api.Client
	actor session.Actor
}

func NewService(client *api.Client, actor session.Actor) *Service {
	return &Service{api: client, actor: actor}
}

func (s *Service) Actor() session.Actor {
	return s.actor
}

// ListGroups returns the actor's group conversations.
func (s *Service) ListGroups(ctx context.Context) ([]Conversation, error) {
	chats, err := s.api.ListGroupChats(ctx, s.actor.ID)
	if err != nil {
		return nil, err
	}

	convs := make([]Conversation, 0, len(chats))
	for _, g := range chats {
		convs = append(convs, Conversation{
			ID:                 g.ID,
			Kind:               KindGroup,
			DisplayName:        g.GroupName,
			LastMessagePreview: string(g.LastMessage),
		})
	}
	return convs, nil
}

// ListIndividuals returns the actor's 1:1 conversations.
func (s *Service) ListIndividuals(ctx context.Context) ([]Conversation, error) {
	chats, err := s.api.ListIndividualChats(ctx, s.actor.ID)
	if err != nil {
		return nil, err
	}

	convs := make([]Conversation, 0, len(chats))
	for _, c := range chats {
		counterpart := Participant{ID: c.OtherUser.ID, Name: c.OtherUser.Name}
		convs = append(convs, Conversation{
			ID:                 c.ID,
			Kind:               KindIndividual,
			DisplayName:        counterpart.Name,
			LastMessagePreview: string(c.LastMessage),
			Counterpart:        &counterpart,
		})
	}
	return convs, nil
}

// FetchMessages returns the current snapshot for a conversation, choosing
// the endpoint from the conversation kind. For groups the roster piggybacked
// on the response comes back too.
func (s *Service) FetchMessages(ctx context.Context, conv Conversation) ([]Message, []Member, error) {
	switch conv.Kind {
	case KindGroup:
		raw, details, err := s.api.FetchGroupMessages(ctx, conv.ID, s.actor.ID)
		if err != nil {
			return nil, nil, err
		}
		return s.toMessages(raw), rosterFromDetails(details), nil

	case KindIndividual:
		if conv.Counterpart == nil {
			return nil, nil, fmt.Errorf("individual conversation %s has no counterpart", conv.ID)
		}
		raw, err := s.api.FetchIndividualMessages(ctx, conv.Counterpart.ID, s.actor.ID)
		if err != nil {
			return nil, nil, err
		}
		return s.toMessages(raw), nil, nil

	default:
		return nil, nil, fmt.Errorf("unknown conversation kind %q", conv.Kind)
	}
}

// SendMessage posts a message, choosing the multipart field set from the
// conversation kind.
func (s *Service) SendMessage(ctx context.Context, conv Conversation, text string, files []api.Upload) error {
	switch conv.Kind {
	case KindGroup:
		return s.api.SendGroupMessage(ctx, conv.ID, s.actor.ID, text, files)
	case KindIndividual:
		if conv.Counterpart == nil {
			return fmt.Errorf("individual conversation %s has no counterpart", conv.ID)
		}
		return s.api.SendIndividualMessage(ctx, conv.Counterpart.ID, s.actor.ID, s.actor.ID, text, files)
	default:
		return fmt.Errorf("unknown conversation kind %q", conv.Kind)
	}
}

// CreateIndividualChat opens (or re-opens) a 1:1 thread with a student and
// returns the synthesized conversation entry.
func (s *Service) CreateIndividualChat(ctx context.Context, member Member) (Conversation, error) {
	created, err := s.api.CreateIndividualChat(ctx, member.ID, s.actor.ID)
	if err != nil {
		return Conversation{}, err
	}

	id := created.ID
	if id == "" {
		// Backend omits the id on some re-open responses.
		id = uuid.New().String()
	}
	counterpart := Participant{ID: member.ID, Name: member.Name}
	return Conversation{
		ID:          id,
		Kind:        KindIndividual,
		DisplayName: member.Name,
		Counterpart: &counterpart,
	}, nil
}

func (s *Service) toMessages(raw []api.Message) []Message {
	msgs := make([]Message, 0, len(raw))
	for _, m := range raw {
		msgs = append(msgs, s.toMessage(m))
	}
	return msgs
}

// toMessage derives IsSelf from the server's sender id, never from
// client-only state.
func (s *Service) toMessage(m api.Message) Message {
	atts := make([]Attachment, 0, len(m.Media))
	for _, media := range m.Media {
		atts = append(atts, Attachment{
			URL:      media.URL,
			FileName: media.FileName,
			Kind:     DetectKind(media.Type, media.FileName),
		})
	}

	isSelf := m.Sender.ID == s.actor.ID
	sender := m.Sender.Name
	if isSelf {
		sender = s.actor.Name
	}

	return Message{
		SenderID:    m.Sender.ID,
		Sender:      sender,
		IsSelf:      isSelf,
		Text:        m.Text,
		Attachments: atts,
		SentAt:      m.CreatedAt.Local().Format(sentAtFormat),
	}
}

func rosterFromDetails(details *api.GroupDetails) []Member {
	if details == nil {
		return nil
	}
	roster := make([]Member, 0, len(details.EnrolledUsers)+len(details.Mentors))
	for _, u := range details.EnrolledUsers {
		roster = append(roster, Member{ID: u.ID, Name: u.Name, Role: RoleStudent})
	}
	for _, u := range details.Mentors {
		roster = append(roster, Member{ID: u.ID, Name: u.Name, Role: RoleMentor})
	}
	return roster
}
