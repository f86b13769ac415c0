package chat

import (
	"context"
	"strings"

	"github.com/vijaynimmakayala9/techsterker-mentor-sub000/pkg/logger"
)

type chatCreator interface {
	CreateIndividualChat(ctx context.Context, member Member) (Conversation, error)
}

// Membership resolves group rosters and escalates a roster entry into a
// 1:1 conversation.
type Membership struct {
	fetcher   Fetcher
	creator   chatCreator
	directory *Directory
	sync      *Synchronizer
}

func NewMembership(fetcher Fetcher, creator chatCreator, directory *Directory, sync *Synchronizer) *Membership {
	return &Membership{
		fetcher:   fetcher,
		creator:   creator,
		directory: directory,
		sync:      sync,
	}
}

// LoadMembers fetches a group's roster. Failures degrade silently to an
// empty roster.
func (m *Membership) LoadMembers(ctx context.Context, conv Conversation) []Member {
	if conv.Kind != KindGroup {
		return nil
	}
	_, roster, err := m.fetcher.FetchMessages(ctx, conv)
	if err != nil {
		logger.Warn().Err(err).Str("group", conv.ID).Msg("roster fetch failed")
		return nil
	}
	return roster
}

// Addressable filters a roster down to the entries that can be escalated to
// a 1:1 thread: students only, matched case-insensitively. Mentors stay
// visible context in the modal but are not selectable.
func Addressable(roster []Member) []Member {
	students := make([]Member, 0, len(roster))
	for _, member := range roster {
		if strings.EqualFold(member.Role, RoleStudent) {
			students = append(students, member)
		}
	}
	return students
}

// StartIndividualChat reuses an existing 1:1 conversation with the member
// when one exists (matched by counterpart id), otherwise creates one,
// prepends it to the individual list, and selects it either way.
func (m *Membership) StartIndividualChat(ctx context.Context, member Member) (Conversation, error) {
	if conv, ok := m.directory.FindIndividual(member.ID); ok {
		m.sync.Select(ctx, conv)
		return conv, nil
	}

	conv, err := m.creator.CreateIndividualChat(ctx, member)
	if err != nil {
		return Conversation{}, err
	}
	m.directory.PrependIndividual(conv)
	m.sync.Select(ctx, conv)
	return conv, nil
}
